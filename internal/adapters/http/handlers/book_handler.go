package handlers

import (
	"errors"
	"strconv"

	"openshelf/internal/adapters/persistence/models"
	"openshelf/internal/core/domain"
	"openshelf/internal/core/services"
	"openshelf/internal/pkg/pagination"
	"openshelf/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// BookHandler handles catalog endpoints
type BookHandler struct {
	bookService *services.BookService
}

// NewBookHandler creates a new book handler
func NewBookHandler(bookService *services.BookService) *BookHandler {
	return &BookHandler{bookService: bookService}
}

// List handles book listing with search and filters
// @Summary List books
// @Description List books with optional search and category filter
// @Tags Books
// @Accept json
// @Produce json
// @Param search query string false "Search in title, author, ISBN"
// @Param category_id query int false "Filter by category"
// @Success 200 {object} response.Response
// @Router /books [get]
func (h *BookHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	input := &services.ListBooksInput{
		Search: c.Query("search"),
		Page:   params.Page,
		Limit:  params.Limit,
	}
	if raw := c.Query("category_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return response.BadRequest(c, "Invalid category ID")
		}
		categoryID := uint(id)
		input.CategoryID = &categoryID
	}

	books, total, err := h.bookService.ListBooks(c.Context(), input)
	if err != nil {
		return response.InternalServerError(c, "Failed to list books")
	}

	responses := make([]*models.BookResponse, len(books))
	for i, book := range books {
		responses[i] = book.ToResponse()
	}

	return response.Success(c, "Books retrieved successfully",
		pagination.NewResponse(responses, params, total))
}

// GetByID handles getting a single book
// @Summary Get book
// @Description Get a book by ID
// @Tags Books
// @Accept json
// @Produce json
// @Param id path int true "Book ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /books/{id} [get]
func (h *BookHandler) GetByID(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid book ID")
	}

	book, err := h.bookService.GetBookByID(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, domain.ErrBookNotFound) {
			return response.NotFound(c, "Book not found")
		}
		return response.InternalServerError(c, "Failed to get book")
	}

	return response.Success(c, "Book retrieved successfully", book.ToResponse())
}

// Create handles adding a book to the catalog (staff only)
// @Summary Create book
// @Description Add a new title to the catalog
// @Tags Books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateBookInput true "Book data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /books [post]
func (h *BookHandler) Create(c *fiber.Ctx) error {
	var input services.CreateBookInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if input.ISBN == "" {
		return response.BadRequest(c, "ISBN is required")
	}
	if input.Title == "" {
		return response.BadRequest(c, "Title is required")
	}

	book, err := h.bookService.CreateBook(c.Context(), &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrISBNAlreadyExists):
			return response.Conflict(c, "A book with this ISBN already exists")
		case errors.Is(err, domain.ErrCategoryNotFound):
			return response.NotFound(c, "Category not found")
		case errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, "Invalid book data")
		default:
			return response.InternalServerError(c, "Failed to create book")
		}
	}

	return response.Created(c, "Book created successfully", book.ToResponse())
}

// Update handles catalog field updates (staff only)
// @Summary Update book
// @Description Update catalog fields of a book
// @Tags Books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Param body body services.UpdateBookInput true "Fields to update"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /books/{id} [put]
func (h *BookHandler) Update(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid book ID")
	}

	var input services.UpdateBookInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	book, err := h.bookService.UpdateBook(c.Context(), uint(id), &input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrBookNotFound):
			return response.NotFound(c, "Book not found")
		case errors.Is(err, domain.ErrCategoryNotFound):
			return response.NotFound(c, "Category not found")
		case errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, "Invalid book data")
		default:
			return response.InternalServerError(c, "Failed to update book")
		}
	}

	return response.Success(c, "Book updated successfully", book.ToResponse())
}

// AddCopies handles stock additions (staff only)
// @Summary Add copies
// @Description Put additional copies of a title on the shelf
// @Tags Books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Param body body services.AdjustCopiesInput true "Copy count"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /books/{id}/copies/add [post]
func (h *BookHandler) AddCopies(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid book ID")
	}

	var input services.AdjustCopiesInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	book, err := h.bookService.AddCopies(c.Context(), uint(id), &input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrBookNotFound):
			return response.NotFound(c, "Book not found")
		case errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, "Count must be at least 1")
		default:
			return response.InternalServerError(c, "Failed to add copies")
		}
	}

	return response.Success(c, "Copies added successfully", book.ToResponse())
}

// RetireCopies handles stock removals (staff only)
// @Summary Retire copies
// @Description Remove idle copies of a title from the shelf
// @Tags Books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Param body body services.AdjustCopiesInput true "Copy count"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /books/{id}/copies/retire [post]
func (h *BookHandler) RetireCopies(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid book ID")
	}

	var input services.AdjustCopiesInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	book, err := h.bookService.RetireCopies(c.Context(), uint(id), &input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrBookNotFound):
			return response.NotFound(c, "Book not found")
		case errors.Is(err, domain.ErrNoCopiesAvailable):
			return response.Conflict(c, "Not enough idle copies to retire")
		case errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, "Count must be at least 1")
		default:
			return response.InternalServerError(c, "Failed to retire copies")
		}
	}

	return response.Success(c, "Copies retired successfully", book.ToResponse())
}

// Delete handles removing a title (staff only)
// @Summary Delete book
// @Description Remove a title from the catalog
// @Tags Books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /books/{id} [delete]
func (h *BookHandler) Delete(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid book ID")
	}

	if err := h.bookService.DeleteBook(c.Context(), uint(id)); err != nil {
		switch {
		case errors.Is(err, domain.ErrBookNotFound):
			return response.NotFound(c, "Book not found")
		case errors.Is(err, services.ErrBookHasOpenLoans):
			return response.Conflict(c, "Book still has copies on loan")
		default:
			return response.InternalServerError(c, "Failed to delete book")
		}
	}

	return response.Success(c, "Book deleted successfully", nil)
}
