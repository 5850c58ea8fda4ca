package routes

import (
	"openshelf/internal/adapters/http/handlers"
	"openshelf/internal/adapters/http/middleware"
	"openshelf/internal/adapters/persistence/repositories"
	"openshelf/internal/config"
	"openshelf/internal/core/services"

	"github.com/benbjohnson/clock"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	categoryRepo := repositories.NewCategoryRepository(db)
	bookRepo := repositories.NewBookRepository(db)
	loanRepo := repositories.NewLoanRepository(db)
	favoriteRepo := repositories.NewFavoriteRepository(db)

	// Initialize services
	clk := clock.New()
	authService := services.NewAuthService(userRepo, refreshTokenRepo, cfg)
	userService := services.NewUserService(userRepo)
	bookService := services.NewBookService(bookRepo, categoryRepo)
	categoryService := services.NewCategoryService(categoryRepo)
	favoriteService := services.NewFavoriteService(favoriteRepo, bookRepo)
	circulationService := services.NewCirculationService(db, bookRepo, loanRepo, userRepo, cfg.Circulation, clk)
	overdueScanner := services.NewOverdueScanner(loanRepo, cfg.Circulation, clk)
	dashboardService := services.NewDashboardService(userRepo, bookRepo, loanRepo)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, cfg)
	userHandler := handlers.NewUserHandler(userService)
	bookHandler := handlers.NewBookHandler(bookService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	favoriteHandler := handlers.NewFavoriteHandler(favoriteService)
	loanHandler := handlers.NewLoanHandler(circulationService, overdueScanner)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	setupAuthRoutes(apiV1.Group("/auth"), authHandler, cfg)
	setupUserRoutes(apiV1.Group("/users"), userHandler, cfg)
	setupBookRoutes(apiV1.Group("/books"), bookHandler, cfg)
	setupCategoryRoutes(apiV1.Group("/categories"), categoryHandler, cfg)
	setupLoanRoutes(apiV1.Group("/loans"), loanHandler, cfg)
	setupFavoriteRoutes(apiV1.Group("/favorites"), favoriteHandler, cfg)
	setupDashboardRoutes(apiV1.Group("/dashboard"), dashboardHandler, cfg)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Public routes with a tight rate limit
	router.Post("/register", middleware.AuthRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
	router.Post("/logout-all", middleware.AuthMiddleware(cfg), handler.LogoutAll)
}

// setupUserRoutes configures user management and profile routes
func setupUserRoutes(router fiber.Router, handler *handlers.UserHandler, cfg *config.Config) {
	router.Use(middleware.AuthMiddleware(cfg))

	// Self-service
	router.Get("/profile", handler.GetProfile)
	router.Put("/profile", handler.UpdateProfile)
	router.Post("/change-password", handler.ChangePassword)

	// Admin only
	router.Get("/", middleware.AdminOnly(), handler.List)
	router.Get("/:id", middleware.AdminOnly(), handler.GetByID)
	router.Put("/:id", middleware.AdminOnly(), handler.Update)
	router.Delete("/:id", middleware.AdminOnly(), handler.Delete)
}

// setupBookRoutes configures catalog routes
func setupBookRoutes(router fiber.Router, handler *handlers.BookHandler, cfg *config.Config) {
	// Public browsing
	router.Get("/", handler.List)
	router.Get("/:id", handler.GetByID)

	// Staff only
	router.Post("/", middleware.AuthMiddleware(cfg), middleware.LibrarianOrAdmin(), handler.Create)
	router.Put("/:id", middleware.AuthMiddleware(cfg), middleware.LibrarianOrAdmin(), handler.Update)
	router.Delete("/:id", middleware.AuthMiddleware(cfg), middleware.LibrarianOrAdmin(), handler.Delete)
	router.Post("/:id/copies/add", middleware.AuthMiddleware(cfg), middleware.LibrarianOrAdmin(), handler.AddCopies)
	router.Post("/:id/copies/retire", middleware.AuthMiddleware(cfg), middleware.LibrarianOrAdmin(), handler.RetireCopies)
}

// setupCategoryRoutes configures category master data routes
func setupCategoryRoutes(router fiber.Router, handler *handlers.CategoryHandler, cfg *config.Config) {
	// Public, cacheable
	router.Get("/", middleware.MasterDataCache(), handler.List)

	// Staff only
	router.Post("/", middleware.AuthMiddleware(cfg), middleware.LibrarianOrAdmin(), handler.Create)
	router.Put("/:id", middleware.AuthMiddleware(cfg), middleware.LibrarianOrAdmin(), handler.Update)
	router.Delete("/:id", middleware.AuthMiddleware(cfg), middleware.LibrarianOrAdmin(), handler.Delete)
}

// setupLoanRoutes configures circulation routes
func setupLoanRoutes(router fiber.Router, handler *handlers.LoanHandler, cfg *config.Config) {
	router.Use(middleware.AuthMiddleware(cfg))
	router.Use(middleware.NoCacheHeaders())

	// Borrower routes
	router.Post("/borrow", handler.Borrow)
	router.Get("/my", handler.MyLoans)
	router.Post("/:id/return", handler.Return)
	router.Post("/:id/renew", handler.Renew)

	// Staff routes. Registered before /:id so the literal paths win.
	router.Get("/overdue", middleware.LibrarianOrAdmin(), handler.ListOverdue)
	router.Get("/due-within", middleware.LibrarianOrAdmin(), handler.ListDueSoon)
	router.Post("/sweep", middleware.LibrarianOrAdmin(), handler.RunSweep)
	router.Get("/", middleware.LibrarianOrAdmin(), handler.List)

	router.Get("/:id", handler.GetByID)
}

// setupFavoriteRoutes configures bookmark routes
func setupFavoriteRoutes(router fiber.Router, handler *handlers.FavoriteHandler, cfg *config.Config) {
	router.Use(middleware.AuthMiddleware(cfg))

	router.Get("/", handler.List)
	router.Post("/:id", handler.Toggle)
}

// setupDashboardRoutes configures admin overview routes
func setupDashboardRoutes(router fiber.Router, handler *handlers.DashboardHandler, cfg *config.Config) {
	router.Use(middleware.AuthMiddleware(cfg))
	router.Use(middleware.LibrarianOrAdmin())

	router.Get("/stats", handler.Stats)
}
