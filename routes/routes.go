package routes

import (
	"mealflow/configs"
	"mealflow/controllers"
	"mealflow/middlewares"
	"mealflow/payments"
	"mealflow/pkg/mailer"
	"mealflow/repository"
	"mealflow/services"
	"mealflow/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg *configs.Config, gateway payments.Gateway, sender mailer.Sender) {
	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	// Repositories and services
	orderRepo := repository.NewOrderRepository(db)
	counterRepo := repository.NewCounterRepository(db)

	orderSvc := services.NewOrderService(db, orderRepo, counterRepo)
	paymentSvc := services.NewPaymentService(orderSvc, orderRepo, gateway, cfg.Currency)

	hub := ws.NewOrderHub()
	orderSvc.Notifier = hub
	go hub.Run()

	// Controllers
	authCtl := controllers.NewAuthController(db, cfg, sender)
	categoryCtl := controllers.NewCategoryController(db)
	menuCtl := controllers.NewMenuController(db)
	cartCtl := controllers.NewCartController(db)
	orderCtl := controllers.NewOrderController(orderSvc)
	paymentCtl := controllers.NewPaymentController(paymentSvc)

	userAuth := middlewares.AuthMiddleware(cfg.JWTSecret)
	adminAuth := middlewares.AuthMiddleware(cfg.JWTSecret, "admin")

	api := r.Group("/api")

	// Auth
	auth := api.Group("/auth")
	{
		auth.POST("/register", authCtl.Register)
		auth.POST("/login", authCtl.Login)
		auth.POST("/refresh", authCtl.RefreshToken)
		auth.POST("/logout", authCtl.Logout)
		auth.POST("/request-otp", authCtl.RequestOtp)
		auth.POST("/verify-otp", authCtl.VerifyOtp)
		auth.GET("/me", userAuth, authCtl.Me)
		auth.PATCH("/me", userAuth, authCtl.UpdateMe)
	}

	// Catalog
	api.GET("/categories", categoryCtl.List)
	api.GET("/menu", menuCtl.List)
	catalogAdmin := api.Group("", adminAuth)
	{
		catalogAdmin.POST("/categories", categoryCtl.Create)
		catalogAdmin.PATCH("/categories/:id", categoryCtl.Update)
		catalogAdmin.DELETE("/categories/:id", categoryCtl.Delete)
		catalogAdmin.POST("/menu", menuCtl.Create)
		catalogAdmin.PATCH("/menu/:id", menuCtl.Update)
		catalogAdmin.DELETE("/menu/:id", menuCtl.Delete)
	}

	// Cart
	cart := api.Group("/cart", userAuth)
	{
		cart.GET("", cartCtl.List)
		cart.POST("", cartCtl.Add)
		cart.DELETE("/:id", cartCtl.Remove)
		cart.DELETE("", cartCtl.Clear)
	}

	// Orders
	orders := api.Group("/orders")
	{
		orders.POST("", userAuth, orderCtl.Create)
		orders.GET("/live", userAuth, orderCtl.Live)
		orders.GET("/today", userAuth, orderCtl.Today)
		orders.GET("/history", userAuth, orderCtl.History)
		orders.GET("/:id/receipt", userAuth, orderCtl.Receipt)

		orders.GET("/admin", adminAuth, orderCtl.AdminList)
		orders.PATCH("/:id/status", adminAuth, orderCtl.UpdateStatus)
		orders.POST("/mark-paid", adminAuth, orderCtl.MarkPaid)
	}

	// Payments
	payment := api.Group("/payment")
	{
		payment.POST("/create-checkout-session", paymentCtl.CreateCheckoutSession)
		payment.POST("/confirm", paymentCtl.Confirm)
		payment.POST("/confirm-by-order", paymentCtl.ConfirmByOrder)
		payment.POST("/reconcile-pending", paymentCtl.ReconcilePending)
		payment.POST("/stripe-webhook", paymentCtl.StripeWebhook)
	}

	// Live order push for kitchen dashboards
	r.GET("/ws/orders", adminAuth, hub.HandleWebSocket)
}
