package handlers

import (
	"net/http"

	"jaryo/utils"

	"github.com/gin-gonic/gin"
)

type CategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.services.Categories.List(c.Request.Context())
	if respondServiceError(c, err) {
		return
	}
	utils.SuccessWithCount(c, categories, len(categories))
}

func (h *Handler) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "category name is required")
		return
	}
	category, err := h.services.Categories.Create(c.Request.Context(), req.Name)
	if respondServiceError(c, err) {
		return
	}
	utils.Created(c, category, "category created")
}

func (h *Handler) UpdateCategory(c *gin.Context) {
	categoryID, ok := parseUintParam(c, "id")
	if !ok {
		utils.Error(c, http.StatusNotFound, "category not found")
		return
	}
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "category name is required")
		return
	}
	category, err := h.services.Categories.Update(c.Request.Context(), categoryID, req.Name)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, category)
}

func (h *Handler) DeleteCategory(c *gin.Context) {
	categoryID, ok := parseUintParam(c, "id")
	if !ok {
		utils.Error(c, http.StatusNotFound, "category not found")
		return
	}
	out, err := h.services.Categories.Delete(c.Request.Context(), categoryID)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, out)
}
