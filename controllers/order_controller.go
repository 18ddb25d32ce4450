package controllers

import (
	"strconv"

	"mealflow/entity"
	"mealflow/pkg/resp"
	"mealflow/repository"
	"mealflow/services"
	"mealflow/utils"

	"github.com/gin-gonic/gin"
)

type OrderController struct {
	Orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{Orders: orders}
}

// POST /api/orders
func (ctl *OrderController) Create(c *gin.Context) {
	var req services.CreateOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}

	var userID *uint
	if uid := utils.CurrentUserID(c); uid != 0 {
		userID = &uid
	}

	order, err := ctl.Orders.Create(userID, &req)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.Created(c, order)
}

// GET /api/orders/live: kitchen queue (paid, preparing, ready)
func (ctl *OrderController) Live(c *gin.Context) {
	out, err := ctl.Orders.Live()
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, out)
}

// GET /api/orders/today: all of today's orders, any status
func (ctl *OrderController) Today(c *gin.Context) {
	out, err := ctl.Orders.Today()
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, out)
}

// GET /api/orders/admin: filtered/paginated/sorted search
func (ctl *OrderController) AdminList(c *gin.Context) {
	p := repository.SearchParams{
		Query:  c.Query("query"),
		Status: c.Query("status"),
		Sort:   c.DefaultQuery("sort", "createdAt"),
		Dir:    c.DefaultQuery("dir", "DESC"),
	}
	p.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	p.PageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	if v := c.Query("userId"); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			uid := uint(id)
			p.UserID = &uid
		}
	}

	out, err := ctl.Orders.Search(p)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, out)
}

type updateStatusReq struct {
	Status entity.OrderStatus `json:"status" binding:"required"`
}

// PATCH /api/orders/:id/status (admin)
func (ctl *OrderController) UpdateStatus(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		resp.BadRequest(c, "invalid order id")
		return
	}

	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}

	order, err := ctl.Orders.TransitionStatus(uint(id), req.Status)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, order)
}

type markPaidReq struct {
	OrderID         uint   `json:"orderId" binding:"required"`
	PaymentIntentID string `json:"paymentIntentId"`
	StripeSessionID string `json:"stripeSessionId"`
}

// POST /api/orders/mark-paid (admin utility)
func (ctl *OrderController) MarkPaid(c *gin.Context) {
	var req markPaidReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}

	order, _, err := ctl.Orders.MarkPaid(req.OrderID, req.StripeSessionID, req.PaymentIntentID)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, order)
}

// GET /api/orders/history: current user's past orders
func (ctl *OrderController) History(c *gin.Context) {
	uid := utils.CurrentUserID(c)
	out, err := ctl.Orders.HistoryForUser(uid)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, out)
}

// GET /api/orders/:id/receipt: owner or admin
func (ctl *OrderController) Receipt(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		resp.BadRequest(c, "invalid order id")
		return
	}

	order, err := ctl.Orders.Receipt(uint(id), utils.CurrentUserID(c), utils.CurrentRole(c))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, order)
}
