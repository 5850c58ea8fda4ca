package handlers

import (
	"errors"
	"strconv"

	"openshelf/internal/core/domain"
	"openshelf/internal/core/services"
	"openshelf/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// CategoryHandler handles category master data endpoints
type CategoryHandler struct {
	categoryService *services.CategoryService
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(categoryService *services.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// List handles category listing
// @Summary List categories
// @Description List all active categories
// @Tags Categories
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Router /categories [get]
func (h *CategoryHandler) List(c *fiber.Ctx) error {
	categories, err := h.categoryService.ListCategories(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to list categories")
	}

	return response.Success(c, "Categories retrieved successfully", categories)
}

// Create handles category creation (staff only)
// @Summary Create category
// @Description Create a new category
// @Tags Categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CategoryInput true "Category data"
// @Success 201 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /categories [post]
func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	var input services.CategoryInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if input.Code == "" || input.Name == "" {
		return response.BadRequest(c, "Code and name are required")
	}

	category, err := h.categoryService.CreateCategory(c.Context(), &input)
	if err != nil {
		if errors.Is(err, services.ErrCategoryCodeExists) {
			return response.Conflict(c, "Category code already exists")
		}
		return response.InternalServerError(c, "Failed to create category")
	}

	return response.Created(c, "Category created successfully", category)
}

// Update handles category updates (staff only)
// @Summary Update category
// @Description Update an existing category
// @Tags Categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Param body body services.CategoryInput true "Category data"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /categories/{id} [put]
func (h *CategoryHandler) Update(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid category ID")
	}

	var input services.CategoryInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	category, err := h.categoryService.UpdateCategory(c.Context(), uint(id), &input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCategoryNotFound):
			return response.NotFound(c, "Category not found")
		case errors.Is(err, services.ErrCategoryCodeExists):
			return response.Conflict(c, "Category code already exists")
		default:
			return response.InternalServerError(c, "Failed to update category")
		}
	}

	return response.Success(c, "Category updated successfully", category)
}

// Delete handles category deletion (staff only)
// @Summary Delete category
// @Description Soft-delete a category
// @Tags Categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /categories/{id} [delete]
func (h *CategoryHandler) Delete(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid category ID")
	}

	if err := h.categoryService.DeleteCategory(c.Context(), uint(id)); err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) {
			return response.NotFound(c, "Category not found")
		}
		return response.InternalServerError(c, "Failed to delete category")
	}

	return response.Success(c, "Category deleted successfully", nil)
}
