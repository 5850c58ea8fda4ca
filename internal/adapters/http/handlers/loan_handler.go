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

// LoanHandler handles circulation endpoints
type LoanHandler struct {
	circulation *services.CirculationService
	scanner     *services.OverdueScanner
}

// NewLoanHandler creates a new loan handler
func NewLoanHandler(circulation *services.CirculationService, scanner *services.OverdueScanner) *LoanHandler {
	return &LoanHandler{
		circulation: circulation,
		scanner:     scanner,
	}
}

// BorrowRequest represents borrow request body
type BorrowRequest struct {
	BookID uint `json:"book_id"`
}

// Borrow handles opening a loan
// @Summary Borrow a book
// @Description Borrow one copy of a book for the authenticated user
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body BorrowRequest true "Borrow data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /loans/borrow [post]
func (h *LoanHandler) Borrow(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req BorrowRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.BookID == 0 {
		return response.BadRequest(c, "Book ID is required")
	}

	loan, err := h.circulation.Borrow(c.Context(), &services.BorrowInput{
		UserID: userID,
		BookID: req.BookID,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrBookNotFound):
			return response.NotFound(c, "Book not found")
		case errors.Is(err, domain.ErrBookInactive):
			return response.UnprocessableEntity(c, "Book is not available for lending")
		case errors.Is(err, domain.ErrNoCopiesAvailable):
			return response.Conflict(c, "No copies available")
		case errors.Is(err, domain.ErrDuplicateActiveLoan):
			return response.Conflict(c, "You already have this book on loan")
		case errors.Is(err, domain.ErrUserInactive):
			return response.Forbidden(c, "User account is disabled")
		case errors.Is(err, domain.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		default:
			return response.InternalServerError(c, "Failed to borrow book")
		}
	}

	return response.Created(c, "Book borrowed successfully", loan.ToResponse())
}

// Return handles closing a loan
// @Summary Return a book
// @Description Return a borrowed book, settling any fine
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /loans/{id}/return [post]
func (h *LoanHandler) Return(c *fiber.Ctx) error {
	loanID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid loan ID")
	}

	if err := h.authorizeLoanAccess(c, uint(loanID)); err != nil {
		return err
	}

	loan, err := h.circulation.Return(c.Context(), uint(loanID))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrLoanNotFound):
			return response.NotFound(c, "Loan record not found")
		case errors.Is(err, domain.ErrAlreadyReturned):
			return response.Conflict(c, "Loan already returned")
		default:
			return response.InternalServerError(c, "Failed to return book")
		}
	}

	return response.Success(c, "Book returned successfully", loan.ToResponse())
}

// Renew handles extending a loan
// @Summary Renew a loan
// @Description Extend the due date of an active loan
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /loans/{id}/renew [post]
func (h *LoanHandler) Renew(c *fiber.Ctx) error {
	loanID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid loan ID")
	}

	if err := h.authorizeLoanAccess(c, uint(loanID)); err != nil {
		return err
	}

	loan, err := h.circulation.Renew(c.Context(), uint(loanID))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrLoanNotFound):
			return response.NotFound(c, "Loan record not found")
		case errors.Is(err, domain.ErrAlreadyReturned):
			return response.Conflict(c, "Loan already returned")
		case errors.Is(err, domain.ErrRenewLimitExceeded):
			return response.UnprocessableEntity(c, "Renewal limit reached")
		case errors.Is(err, domain.ErrRenewalBlocked):
			return response.UnprocessableEntity(c, "Overdue loans cannot be renewed")
		default:
			return response.InternalServerError(c, "Failed to renew loan")
		}
	}

	return response.Success(c, "Loan renewed successfully", loan.ToResponse())
}

// GetByID returns a single loan record
// @Summary Get loan
// @Description Get a loan record by ID
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loans/{id} [get]
func (h *LoanHandler) GetByID(c *fiber.Ctx) error {
	loanID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid loan ID")
	}

	if err := h.authorizeLoanAccess(c, uint(loanID)); err != nil {
		return err
	}

	loan, err := h.circulation.GetByID(c.Context(), uint(loanID))
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return response.NotFound(c, "Loan record not found")
		}
		return response.InternalServerError(c, "Failed to get loan")
	}

	return response.Success(c, "Loan retrieved successfully", loan.ToResponse())
}

// MyLoans returns the authenticated user's loan history
// @Summary My loans
// @Description List the authenticated user's loan records
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /loans/my [get]
func (h *LoanHandler) MyLoans(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	params := pagination.GetParams(c)
	loans, total, err := h.circulation.ListByUser(c.Context(), userID, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list loans")
	}

	return response.Success(c, "Loans retrieved successfully",
		pagination.NewResponse(toLoanResponses(loans), params, total))
}

// List returns loan records filtered by status (staff only)
// @Summary List loans
// @Description List loan records by status, earliest due first
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param status query string false "Loan status" Enums(BORROWING, OVERDUE, RETURNED)
// @Success 200 {object} response.Response
// @Router /loans [get]
func (h *LoanHandler) List(c *fiber.Ctx) error {
	status := c.Query("status", models.LoanStatusBorrowing)
	params := pagination.GetParams(c)

	loans, total, err := h.circulation.ListByStatus(c.Context(), status, params.Offset, params.Limit)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return response.BadRequest(c, "Invalid loan status")
		}
		return response.InternalServerError(c, "Failed to list loans")
	}

	return response.Success(c, "Loans retrieved successfully",
		pagination.NewResponse(toLoanResponses(loans), params, total))
}

// ListOverdue returns all overdue loans (staff only)
// @Summary List overdue loans
// @Description List every overdue loan, earliest due first
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /loans/overdue [get]
func (h *LoanHandler) ListOverdue(c *fiber.Ctx) error {
	loans, err := h.circulation.ListOverdue(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to list overdue loans")
	}

	return response.Success(c, "Overdue loans retrieved successfully", toLoanResponses(loans))
}

// ListDueSoon returns loans approaching their due date (staff only)
// @Summary List due-soon loans
// @Description List active loans due within the next N days
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param days query int false "Window in days (defaults to the reminder window)"
// @Success 200 {object} response.Response
// @Router /loans/due-within [get]
func (h *LoanHandler) ListDueSoon(c *fiber.Ctx) error {
	days, err := strconv.Atoi(c.Query("days", "0"))
	if err != nil || days < 0 {
		return response.BadRequest(c, "Invalid days value")
	}

	loans, err := h.circulation.ListDueSoon(c.Context(), days)
	if err != nil {
		return response.InternalServerError(c, "Failed to list due-soon loans")
	}

	return response.Success(c, "Due-soon loans retrieved successfully", toLoanResponses(loans))
}

// RunSweep triggers an overdue sweep on demand (staff only)
// @Summary Run overdue sweep
// @Description Flag overdue loans and refresh provisional fines now
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /loans/sweep [post]
func (h *LoanHandler) RunSweep(c *fiber.Ctx) error {
	result, err := h.scanner.Sweep(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Sweep failed")
	}

	return response.Success(c, "Sweep completed", result)
}

// authorizeLoanAccess lets staff touch any loan and borrowers only
// their own
func (h *LoanHandler) authorizeLoanAccess(c *fiber.Ctx, loanID uint) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	role, _ := c.Locals("role").(string)
	if role == "LIBRARIAN" || role == "ADMIN" {
		return nil
	}

	loan, err := h.circulation.GetByID(c.Context(), loanID)
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return response.NotFound(c, "Loan record not found")
		}
		return response.InternalServerError(c, "Failed to get loan")
	}
	if loan.UserID != userID {
		return response.Forbidden(c, "You don't have permission to access this loan")
	}
	return nil
}

func toLoanResponses(loans []*models.LoanRecord) []*models.LoanResponse {
	out := make([]*models.LoanResponse, len(loans))
	for i, loan := range loans {
		out[i] = loan.ToResponse()
	}
	return out
}
