package handlers

import (
	"errors"
	"strconv"

	"openshelf/internal/core/domain"
	"openshelf/internal/core/services"
	"openshelf/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// FavoriteHandler handles bookmark endpoints
type FavoriteHandler struct {
	favoriteService *services.FavoriteService
}

// NewFavoriteHandler creates a new favorite handler
func NewFavoriteHandler(favoriteService *services.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{favoriteService: favoriteService}
}

// Toggle handles favoriting/unfavoriting a book
// @Summary Toggle favorite
// @Description Toggle the favorite state of a book for the user
// @Tags Favorites
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /favorites/{id} [post]
func (h *FavoriteHandler) Toggle(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	bookID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid book ID")
	}

	favorited, err := h.favoriteService.Toggle(c.Context(), userID, uint(bookID))
	if err != nil {
		if errors.Is(err, domain.ErrBookNotFound) {
			return response.NotFound(c, "Book not found")
		}
		return response.InternalServerError(c, "Failed to toggle favorite")
	}

	message := "Book removed from favorites"
	if favorited {
		message = "Book added to favorites"
	}

	return response.Success(c, message, fiber.Map{"favorited": favorited})
}

// List handles listing the user's favorites
// @Summary List favorites
// @Description List the authenticated user's favorite books
// @Tags Favorites
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /favorites [get]
func (h *FavoriteHandler) List(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	favorites, err := h.favoriteService.ListByUser(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list favorites")
	}

	return response.Success(c, "Favorites retrieved successfully", favorites)
}
