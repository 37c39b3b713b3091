package handler

import (
	"net/http"

	"family-portal/internal/finance"
	"family-portal/internal/util"

	"github.com/gin-gonic/gin"
)

// CategoryHandler serves category CRUD.
type CategoryHandler struct {
	Svc *finance.Service
}

func NewCategoryHandler(svc *finance.Service) *CategoryHandler {
	return &CategoryHandler{Svc: svc}
}

func (h *CategoryHandler) List(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	categories, err := h.Svc.ListCategories(actor)
	if err != nil {
		writeFinanceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

type createCategoryReq struct {
	Name         string   `json:"name" binding:"required"`
	Color        string   `json:"color"`
	Budget       *float64 `json:"budget"`
	CategoryType string   `json:"category_type"`
	Shared       bool     `json:"shared"`
}

func (h *CategoryHandler) Create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req createCategoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "invalid payload")
		return
	}
	id, err := h.Svc.CreateCategory(actor, finance.CategoryInput{
		Name:         req.Name,
		Color:        req.Color,
		Budget:       req.Budget,
		CategoryType: req.CategoryType,
		Shared:       req.Shared,
	})
	if err != nil {
		writeFinanceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

type updateCategoryReq struct {
	Name   *string  `json:"name"`
	Color  *string  `json:"color"`
	Budget *float64 `json:"budget"`
}

func (h *CategoryHandler) Update(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req updateCategoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "invalid payload")
		return
	}
	err := h.Svc.UpdateCategory(actor, id, finance.UpdateCategoryInput{
		Name:   req.Name,
		Color:  req.Color,
		Budget: req.Budget,
	})
	if err != nil {
		writeFinanceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *CategoryHandler) Delete(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.Svc.DeleteCategory(actor, id); err != nil {
		writeFinanceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
