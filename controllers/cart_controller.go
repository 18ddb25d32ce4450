package controllers

import (
	"strconv"
	"strings"

	"mealflow/entity"
	"mealflow/pkg/resp"
	"mealflow/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CartController struct{ DB *gorm.DB }

func NewCartController(db *gorm.DB) *CartController { return &CartController{DB: db} }

// GET /api/cart
func (ctl *CartController) List(c *gin.Context) {
	uid := utils.CurrentUserID(c)
	var items []entity.CartItem
	if err := ctl.DB.Where("user_id = ?", uid).Order("id ASC").Find(&items).Error; err != nil {
		resp.ServerError(c, err)
		return
	}
	resp.OK(c, items)
}

type addCartReq struct {
	Name     string  `json:"name" binding:"required"`
	Price    float64 `json:"price" binding:"gte=0"`
	Quantity int     `json:"quantity" binding:"required,min=1"`
}

// POST /api/cart
func (ctl *CartController) Add(c *gin.Context) {
	var req addCartReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}

	uid := utils.CurrentUserID(c)
	name := strings.TrimSpace(req.Name)

	// same item in the cart just bumps the quantity
	var existing entity.CartItem
	if err := ctl.DB.Where("user_id = ? AND name = ? AND price = ?", uid, name, req.Price).
		First(&existing).Error; err == nil {
		existing.Quantity += req.Quantity
		if err := ctl.DB.Save(&existing).Error; err != nil {
			resp.ServerError(c, err)
			return
		}
		resp.OK(c, existing)
		return
	}

	item := entity.CartItem{
		UserID:   uid,
		Name:     name,
		Price:    req.Price,
		Quantity: req.Quantity,
	}
	if err := ctl.DB.Create(&item).Error; err != nil {
		resp.ServerError(c, err)
		return
	}
	resp.Created(c, item)
}

// DELETE /api/cart/:id
func (ctl *CartController) Remove(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("id"))
	uid := utils.CurrentUserID(c)

	res := ctl.DB.Where("id = ? AND user_id = ?", id, uid).Delete(&entity.CartItem{})
	if res.Error != nil {
		resp.ServerError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		resp.NotFound(c, "cart item not found")
		return
	}
	resp.OK(c, gin.H{"deleted": id})
}

// DELETE /api/cart
func (ctl *CartController) Clear(c *gin.Context) {
	uid := utils.CurrentUserID(c)
	if err := ctl.DB.Where("user_id = ?", uid).Delete(&entity.CartItem{}).Error; err != nil {
		resp.ServerError(c, err)
		return
	}
	resp.OK(c, gin.H{"message": "cart cleared"})
}
