package controllers

import (
	"strconv"
	"strings"

	"mealflow/entity"
	"mealflow/pkg/resp"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CategoryController struct{ DB *gorm.DB }

func NewCategoryController(db *gorm.DB) *CategoryController { return &CategoryController{DB: db} }

// GET /api/categories
func (ctl *CategoryController) List(c *gin.Context) {
	var out []entity.Category
	if err := ctl.DB.Order("name ASC").Find(&out).Error; err != nil {
		resp.ServerError(c, err)
		return
	}
	resp.OK(c, out)
}

type categoryReq struct {
	Name string `json:"name" binding:"required,max=100"`
}

// POST /api/categories (admin)
func (ctl *CategoryController) Create(c *gin.Context) {
	var req categoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		resp.BadRequest(c, "category name is required")
		return
	}

	cat := entity.Category{Name: name}
	if err := ctl.DB.Create(&cat).Error; err != nil {
		resp.BadRequest(c, "category already exists")
		return
	}
	resp.Created(c, cat)
}

// PATCH /api/categories/:id (admin)
func (ctl *CategoryController) Update(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("id"))
	var cat entity.Category
	if err := ctl.DB.First(&cat, id).Error; err != nil {
		resp.NotFound(c, "category not found")
		return
	}

	var req categoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	cat.Name = strings.TrimSpace(req.Name)
	if err := ctl.DB.Save(&cat).Error; err != nil {
		resp.ServerError(c, err)
		return
	}
	resp.OK(c, cat)
}

// DELETE /api/categories/:id (admin)
func (ctl *CategoryController) Delete(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("id"))

	var count int64
	ctl.DB.Model(&entity.MenuItem{}).Where("category_id = ?", id).Count(&count)
	if count > 0 {
		resp.BadRequest(c, "category still has menu items")
		return
	}

	if err := ctl.DB.Delete(&entity.Category{}, id).Error; err != nil {
		resp.ServerError(c, err)
		return
	}
	resp.OK(c, gin.H{"deleted": id})
}
