package services

import (
	"context"
	"errors"
	"log"

	"openshelf/internal/adapters/persistence/models"
	"openshelf/internal/adapters/persistence/repositories"
	"openshelf/internal/core/domain"
)

// Book service errors
var (
	ErrISBNAlreadyExists = errors.New("isbn already exists")
	ErrBookHasOpenLoans  = errors.New("book still has copies on loan")
)

// BookService handles catalog business logic
type BookService struct {
	bookRepo     *repositories.BookRepository
	categoryRepo *repositories.CategoryRepository
}

// NewBookService creates a new book service
func NewBookService(bookRepo *repositories.BookRepository, categoryRepo *repositories.CategoryRepository) *BookService {
	return &BookService{
		bookRepo:     bookRepo,
		categoryRepo: categoryRepo,
	}
}

// CreateBookInput represents create book input
type CreateBookInput struct {
	ISBN        string `json:"isbn" validate:"required"`
	Title       string `json:"title" validate:"required,max=200"`
	Author      string `json:"author" validate:"max=100"`
	Publisher   string `json:"publisher" validate:"max=100"`
	CategoryID  *uint  `json:"category_id"`
	TotalCopies int    `json:"total_copies" validate:"min=0"`
}

// UpdateBookInput represents update book input
type UpdateBookInput struct {
	Title      *string `json:"title"`
	Author     *string `json:"author"`
	Publisher  *string `json:"publisher"`
	CategoryID *uint   `json:"category_id"`
	Status     *string `json:"status"`
}

// AdjustCopiesInput represents a stock adjustment
type AdjustCopiesInput struct {
	Count int `json:"count" validate:"required,min=1"`
}

// ListBooksInput represents list books input
type ListBooksInput struct {
	Search     string
	CategoryID *uint
	Page       int
	Limit      int
}

// CreateBook adds a title to the catalog. New copies all start on the
// shelf: available equals total, borrowed is zero.
func (s *BookService) CreateBook(ctx context.Context, input *CreateBookInput) (*models.Book, error) {
	if input.TotalCopies < 0 {
		return nil, domain.ErrInvalidInput
	}

	existing, err := s.bookRepo.GetByISBN(ctx, input.ISBN)
	if err != nil && !errors.Is(err, domain.ErrBookNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrISBNAlreadyExists
	}

	if input.CategoryID != nil {
		if _, err := s.categoryRepo.GetByID(ctx, *input.CategoryID); err != nil {
			return nil, err
		}
	}

	book := &models.Book{
		ISBN:            input.ISBN,
		Title:           input.Title,
		Author:          input.Author,
		Publisher:       input.Publisher,
		CategoryID:      input.CategoryID,
		TotalCopies:     input.TotalCopies,
		AvailableCopies: input.TotalCopies,
		BorrowedCopies:  0,
		Status:          models.BookStatusActive,
	}

	if err := s.bookRepo.Create(ctx, book); err != nil {
		return nil, err
	}

	log.Printf("✅ Book created: %s (%s)", book.Title, book.ISBN)
	return book, nil
}

// GetBookByID gets a book by ID
func (s *BookService) GetBookByID(ctx context.Context, id uint) (*models.Book, error) {
	return s.bookRepo.GetByID(ctx, id)
}

// UpdateBook updates catalog fields. Copy counters are not touched
// here; use AddCopies and RetireCopies for stock changes.
func (s *BookService) UpdateBook(ctx context.Context, id uint, input *UpdateBookInput) (*models.Book, error) {
	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		book.Title = *input.Title
	}
	if input.Author != nil {
		book.Author = *input.Author
	}
	if input.Publisher != nil {
		book.Publisher = *input.Publisher
	}
	if input.CategoryID != nil {
		if _, err := s.categoryRepo.GetByID(ctx, *input.CategoryID); err != nil {
			return nil, err
		}
		book.CategoryID = input.CategoryID
	}
	if input.Status != nil {
		if *input.Status != models.BookStatusActive && *input.Status != models.BookStatusInactive {
			return nil, domain.ErrInvalidInput
		}
		book.Status = *input.Status
	}

	if err := s.bookRepo.Update(ctx, book); err != nil {
		return nil, err
	}

	return book, nil
}

// AddCopies puts n new copies of a title on the shelf
func (s *BookService) AddCopies(ctx context.Context, id uint, input *AdjustCopiesInput) (*models.Book, error) {
	if input.Count < 1 {
		return nil, domain.ErrInvalidInput
	}
	if err := s.bookRepo.AddCopies(ctx, id, input.Count); err != nil {
		return nil, err
	}
	return s.bookRepo.GetByID(ctx, id)
}

// RetireCopies removes n copies from the shelf. Only idle copies can
// be retired; copies out on loan are untouchable until returned.
func (s *BookService) RetireCopies(ctx context.Context, id uint, input *AdjustCopiesInput) (*models.Book, error) {
	if input.Count < 1 {
		return nil, domain.ErrInvalidInput
	}
	if err := s.bookRepo.RetireCopies(ctx, id, input.Count); err != nil {
		return nil, err
	}
	return s.bookRepo.GetByID(ctx, id)
}

// DeleteBook removes a title from the catalog. Blocked while any copy
// is still out on loan.
func (s *BookService) DeleteBook(ctx context.Context, id uint) error {
	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if book.BorrowedCopies > 0 {
		return ErrBookHasOpenLoans
	}
	return s.bookRepo.Delete(ctx, id)
}

// ListBooks lists books with search, category filter and pagination
func (s *BookService) ListBooks(ctx context.Context, input *ListBooksInput) ([]*models.Book, int64, error) {
	if input.Page < 1 {
		input.Page = 1
	}
	if input.Limit < 1 {
		input.Limit = 20
	}
	if input.Limit > 100 {
		input.Limit = 100
	}

	offset := (input.Page - 1) * input.Limit
	return s.bookRepo.List(ctx, input.Search, input.CategoryID, offset, input.Limit)
}
