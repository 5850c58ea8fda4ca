package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"openshelf/internal/adapters/http/middleware"
	"openshelf/internal/adapters/persistence/models"
	"openshelf/internal/config"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, models.AutoMigrate(db))

	cfg := &config.Config{
		AppMode: "dev",
		JWT: config.JWTConfig{
			Secret:           "test-access-secret",
			RefreshSecret:    "test-refresh-secret",
			AccessTokenMins:  15,
			RefreshTokenDays: 7,
		},
		Cookie: config.CookieConfig{SameSite: "Lax"},
		Circulation: config.CirculationConfig{
			LoanPeriodDays:            30,
			MaxRenewals:               2,
			DailyFineRate:             decimal.RequireFromString("0.50"),
			RenewalBlockedWhenOverdue: true,
			DueSoonWindowDays:         3,
			SweepCronSpec:             "0 2 * * *",
		},
	}

	app := fiber.New(fiber.Config{ErrorHandler: middleware.CustomErrorHandler})
	Setup(app, db, cfg)
	return app, db
}

func doJSON(t *testing.T, app *fiber.App, method, target, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return resp.StatusCode, decoded
}

func registerAndLogin(t *testing.T, app *fiber.App, username string) string {
	t.Helper()

	status, body := doJSON(t, app, "POST", "/api/v1/auth/register", "", fiber.Map{
		"username": username,
		"email":    username + "@example.org",
		"password": "sup3r-secret",
	})
	require.Equal(t, http.StatusCreated, status, "register: %v", body)

	data := body["data"].(map[string]interface{})
	token, _ := data["access_token"].(string)
	require.NotEmpty(t, token)
	return token
}

func seedBook(t *testing.T, db *gorm.DB, isbn string, copies int) *models.Book {
	t.Helper()

	book := &models.Book{
		ISBN:            isbn,
		Title:           "Title " + isbn,
		Author:          "Author",
		TotalCopies:     copies,
		AvailableCopies: copies,
		Status:          models.BookStatusActive,
	}
	require.NoError(t, db.Create(book).Error)
	return book
}

func TestAuthFlow(t *testing.T) {
	app, _ := newTestApp(t)

	token := registerAndLogin(t, app, "alice")

	status, body := doJSON(t, app, "GET", "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)

	data := body["data"].(map[string]interface{})
	user := data["user"].(map[string]interface{})
	assert.Equal(t, "alice", user["username"])
	assert.Equal(t, "USER", user["role"])

	// Wrong password is rejected
	status, _ = doJSON(t, app, "POST", "/api/v1/auth/login", "", fiber.Map{
		"username": "alice",
		"password": "not-the-password",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestBorrowEndpointFlow(t *testing.T) {
	app, db := newTestApp(t)

	token := registerAndLogin(t, app, "alice")
	book := seedBook(t, db, "978-0-2000-0001-0", 1)

	status, body := doJSON(t, app, "POST", "/api/v1/loans/borrow", token, fiber.Map{
		"book_id": book.ID,
	})
	require.Equal(t, http.StatusCreated, status, "borrow: %v", body)

	loan := body["data"].(map[string]interface{})
	assert.Equal(t, models.LoanStatusBorrowing, loan["status"])
	loanID := uint(loan["id"].(float64))

	// Same title twice is rejected
	status, _ = doJSON(t, app, "POST", "/api/v1/loans/borrow", token, fiber.Map{
		"book_id": book.ID,
	})
	assert.Equal(t, http.StatusConflict, status)

	// The open loan shows up in the borrower's history
	status, body = doJSON(t, app, "GET", "/api/v1/loans/my", token, nil)
	require.Equal(t, http.StatusOK, status)
	page := body["data"].(map[string]interface{})
	require.Len(t, page["data"].([]interface{}), 1)

	// Return through the API releases the copy
	status, body = doJSON(t, app, "POST", "/api/v1/loans/"+itoa(loanID)+"/return", token, nil)
	require.Equal(t, http.StatusOK, status, "return: %v", body)

	var current models.Book
	require.NoError(t, db.First(&current, book.ID).Error)
	assert.Equal(t, 1, current.AvailableCopies)
	assert.Equal(t, 0, current.BorrowedCopies)
}

func TestLoanRoutesRequireAuth(t *testing.T) {
	app, _ := newTestApp(t)

	status, _ := doJSON(t, app, "POST", "/api/v1/loans/borrow", "", fiber.Map{"book_id": 1})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = doJSON(t, app, "GET", "/api/v1/loans/my", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestStaffRoutesRejectBorrowers(t *testing.T) {
	app, _ := newTestApp(t)

	token := registerAndLogin(t, app, "alice")

	status, _ := doJSON(t, app, "GET", "/api/v1/loans/overdue", token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = doJSON(t, app, "POST", "/api/v1/loans/sweep", token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = doJSON(t, app, "POST", "/api/v1/books", token, fiber.Map{
		"isbn": "978-0-2000-0002-0", "title": "X", "author": "Y",
	})
	assert.Equal(t, http.StatusForbidden, status)
}

func TestBorrowersSeeOnlyTheirOwnLoan(t *testing.T) {
	app, db := newTestApp(t)

	aliceToken := registerAndLogin(t, app, "alice")
	bobToken := registerAndLogin(t, app, "bob")
	book := seedBook(t, db, "978-0-2000-0003-0", 2)

	status, body := doJSON(t, app, "POST", "/api/v1/loans/borrow", aliceToken, fiber.Map{
		"book_id": book.ID,
	})
	require.Equal(t, http.StatusCreated, status)
	loanID := uint(body["data"].(map[string]interface{})["id"].(float64))

	status, _ = doJSON(t, app, "GET", "/api/v1/loans/"+itoa(loanID), bobToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = doJSON(t, app, "GET", "/api/v1/loans/"+itoa(loanID), aliceToken, nil)
	assert.Equal(t, http.StatusOK, status)
}

func itoa(n uint) string {
	return strconv.FormatUint(uint64(n), 10)
}
