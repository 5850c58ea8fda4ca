package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ============================================================
// Users & Auth
// ============================================================

// User statuses
const (
	UserStatusActive   = "ACTIVE"
	UserStatusDisabled = "DISABLED"
)

// User represents users table
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email     string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password  string         `gorm:"size:255;not null" json:"-"`
	Role      string         `gorm:"size:20;default:'USER'" json:"role"`
	Status    string         `gorm:"size:20;default:'ACTIVE'" json:"status"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// IsActive reports whether the user may open new loans
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// UserResponse DTO
type UserResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Catalog
// ============================================================

// Category represents categories table (Master)
type Category struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Code        string         `gorm:"size:20;uniqueIndex;not null" json:"code"`
	Name        string         `gorm:"size:100;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Category) TableName() string {
	return "categories"
}

// Book statuses
const (
	BookStatusActive   = "ACTIVE"
	BookStatusInactive = "INACTIVE"
)

// Book represents books table. Copy counts are aggregate per title:
// available_copies + borrowed_copies must always equal total_copies.
// Counters are only mutated through BookRepository ledger operations.
type Book struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	ISBN            string         `gorm:"uniqueIndex;size:20;not null" json:"isbn"`
	Title           string         `gorm:"size:200;not null;index" json:"title"`
	Author          string         `gorm:"size:100;index" json:"author"`
	Publisher       string         `gorm:"size:100" json:"publisher"`
	CategoryID      *uint          `gorm:"index" json:"category_id"`
	TotalCopies     int            `gorm:"not null;default:0" json:"total_copies"`
	AvailableCopies int            `gorm:"not null;default:0" json:"available_copies"`
	BorrowedCopies  int            `gorm:"not null;default:0" json:"borrowed_copies"`
	Status          string         `gorm:"size:20;not null;default:'ACTIVE'" json:"status"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

func (Book) TableName() string {
	return "books"
}

// CountersConsistent reports the aggregate copy invariant
func (b *Book) CountersConsistent() bool {
	return b.AvailableCopies >= 0 &&
		b.BorrowedCopies >= 0 &&
		b.AvailableCopies+b.BorrowedCopies == b.TotalCopies
}

// BookResponse DTO
type BookResponse struct {
	ID              uint      `json:"id"`
	ISBN            string    `json:"isbn"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	Publisher       string    `json:"publisher"`
	CategoryID      *uint     `json:"category_id"`
	CategoryName    string    `json:"category_name,omitempty"`
	TotalCopies     int       `json:"total_copies"`
	AvailableCopies int       `json:"available_copies"`
	BorrowedCopies  int       `json:"borrowed_copies"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

func (b *Book) ToResponse() *BookResponse {
	resp := &BookResponse{
		ID:              b.ID,
		ISBN:            b.ISBN,
		Title:           b.Title,
		Author:          b.Author,
		Publisher:       b.Publisher,
		CategoryID:      b.CategoryID,
		TotalCopies:     b.TotalCopies,
		AvailableCopies: b.AvailableCopies,
		BorrowedCopies:  b.BorrowedCopies,
		Status:          b.Status,
		CreatedAt:       b.CreatedAt,
	}
	if b.Category != nil {
		resp.CategoryName = b.Category.Name
	}
	return resp
}

// ============================================================
// Circulation
// ============================================================

// Loan statuses
const (
	LoanStatusBorrowing = "BORROWING"
	LoanStatusReturned  = "RETURNED"
	LoanStatusOverdue   = "OVERDUE"
)

// LoanRecord represents loan_records table.
// At most one BORROWING/OVERDUE record may exist per (user, book) pair.
type LoanRecord struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	UserID     uint            `gorm:"not null;index:idx_loan_user_book" json:"user_id"`
	BookID     uint            `gorm:"not null;index:idx_loan_user_book" json:"book_id"`
	BorrowDate time.Time       `gorm:"not null" json:"borrow_date"`
	DueDate    time.Time       `gorm:"not null;index" json:"due_date"`
	ReturnDate *time.Time      `json:"return_date"`
	Status     string          `gorm:"size:20;not null;default:'BORROWING';index" json:"status"`
	RenewCount int             `gorm:"not null;default:0" json:"renew_count"`
	FineAmount decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"fine_amount"`
	// FineCarried is the portion locked in by a renewal that happened
	// while overdue. FineAmount is always FineCarried plus whatever has
	// accrued against the current due date.
	FineCarried decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"-"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Book *Book `gorm:"foreignKey:BookID" json:"book,omitempty"`
}

func (LoanRecord) TableName() string {
	return "loan_records"
}

// IsTerminal reports whether the loan reached its final state
func (l *LoanRecord) IsTerminal() bool {
	return l.Status == LoanStatusReturned
}

// IsActive reports whether the loan still holds a copy
func (l *LoanRecord) IsActive() bool {
	return l.Status == LoanStatusBorrowing || l.Status == LoanStatusOverdue
}

// LoanResponse DTO
type LoanResponse struct {
	ID         uint            `json:"id"`
	UserID     uint            `json:"user_id"`
	Username   string          `json:"username,omitempty"`
	BookID     uint            `json:"book_id"`
	BookTitle  string          `json:"book_title,omitempty"`
	BorrowDate time.Time       `json:"borrow_date"`
	DueDate    time.Time       `json:"due_date"`
	ReturnDate *time.Time      `json:"return_date"`
	Status     string          `json:"status"`
	RenewCount int             `json:"renew_count"`
	FineAmount decimal.Decimal `json:"fine_amount"`
}

func (l *LoanRecord) ToResponse() *LoanResponse {
	resp := &LoanResponse{
		ID:         l.ID,
		UserID:     l.UserID,
		BookID:     l.BookID,
		BorrowDate: l.BorrowDate,
		DueDate:    l.DueDate,
		ReturnDate: l.ReturnDate,
		Status:     l.Status,
		RenewCount: l.RenewCount,
		FineAmount: l.FineAmount,
	}
	if l.User != nil {
		resp.Username = l.User.Username
	}
	if l.Book != nil {
		resp.BookTitle = l.Book.Title
	}
	return resp
}

// Favorite represents favorites table
type Favorite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_fav_user_book" json:"user_id"`
	BookID    uint      `gorm:"not null;uniqueIndex:idx_fav_user_book" json:"book_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Book *Book `gorm:"foreignKey:BookID" json:"book,omitempty"`
}

func (Favorite) TableName() string {
	return "favorites"
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Category{},
		&Book{},
		&LoanRecord{},
		&Favorite{},
	)
}
