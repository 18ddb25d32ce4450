package controllers

import (
	"strconv"
	"strings"

	"mealflow/entity"
	"mealflow/pkg/resp"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type MenuController struct{ DB *gorm.DB }

func NewMenuController(db *gorm.DB) *MenuController { return &MenuController{DB: db} }

// GET /api/menu?categoryId=
func (ctl *MenuController) List(c *gin.Context) {
	q := ctl.DB.Model(&entity.MenuItem{})
	if cid := c.Query("categoryId"); cid != "" {
		id, err := strconv.Atoi(cid)
		if err != nil {
			resp.BadRequest(c, "invalid categoryId")
			return
		}
		q = q.Where("category_id = ?", id)
	}
	if c.Query("available") == "true" {
		q = q.Where("available = ?", true)
	}

	var out []entity.MenuItem
	if err := q.Order("name ASC").Find(&out).Error; err != nil {
		resp.ServerError(c, err)
		return
	}
	resp.OK(c, out)
}

type menuItemReq struct {
	CategoryID  uint    `json:"categoryId" binding:"required"`
	Name        string  `json:"name" binding:"required,max=255"`
	Description string  `json:"description" binding:"max=255"`
	Price       float64 `json:"price" binding:"required,gte=0"`
	ImageURL    string  `json:"imageUrl"`
	Available   *bool   `json:"available"`
}

// POST /api/menu (admin)
func (ctl *MenuController) Create(c *gin.Context) {
	var req menuItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}

	var cat entity.Category
	if err := ctl.DB.First(&cat, req.CategoryID).Error; err != nil {
		resp.BadRequest(c, "category not found")
		return
	}

	item := entity.MenuItem{
		CategoryID:  req.CategoryID,
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Price:       req.Price,
		ImageURL:    strings.TrimSpace(req.ImageURL),
		Available:   true,
	}
	if req.Available != nil {
		item.Available = *req.Available
	}
	if err := ctl.DB.Create(&item).Error; err != nil {
		resp.ServerError(c, err)
		return
	}
	resp.Created(c, item)
}

// PATCH /api/menu/:id (admin)
func (ctl *MenuController) Update(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("id"))
	var item entity.MenuItem
	if err := ctl.DB.First(&item, id).Error; err != nil {
		resp.NotFound(c, "menu item not found")
		return
	}

	var req menuItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}

	item.CategoryID = req.CategoryID
	item.Name = strings.TrimSpace(req.Name)
	item.Description = strings.TrimSpace(req.Description)
	item.Price = req.Price
	item.ImageURL = strings.TrimSpace(req.ImageURL)
	if req.Available != nil {
		item.Available = *req.Available
	}

	if err := ctl.DB.Save(&item).Error; err != nil {
		resp.ServerError(c, err)
		return
	}
	resp.OK(c, item)
}

// DELETE /api/menu/:id (admin)
func (ctl *MenuController) Delete(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("id"))
	if err := ctl.DB.Delete(&entity.MenuItem{}, id).Error; err != nil {
		resp.ServerError(c, err)
		return
	}
	resp.OK(c, gin.H{"deleted": id})
}
