// Package routes defines the API routing configuration. It wires
// repositories into services and services into handlers, then registers all
// HTTP routes with their middleware.
package routes

import (
	"log"

	"casino/internal/audit"
	"casino/internal/config"
	"casino/internal/handlers"
	"casino/internal/middleware"
	"casino/internal/repositories"
	"casino/internal/services/cooldown"
	"casino/internal/services/economy"
	"casino/internal/services/game"
	"casino/internal/services/investment"
	"casino/internal/services/loan"
	"casino/internal/services/market"
	"casino/internal/services/settlement"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Services bundles the wired service layer so cmd/server can hand pieces to
// the background jobs and close the audit sink on shutdown.
type Services struct {
	Settlement *settlement.Service
	Economy    *economy.Service
	Game       *game.Service
	Loan       *loan.Service
	Investment *investment.Service
	Market     *market.Service
	AuditSink  *audit.DBSink
}

// SetupRoutes wires the full dependency graph and registers all routes.
func SetupRoutes(app *fiber.App, db *gorm.DB) *Services {
	// Repositories
	accountRepo := repositories.NewAccountRepository(db)
	loanRepo := repositories.NewLoanRepository(db)
	investmentRepo := repositories.NewInvestmentRepository(db)
	marketRepo := repositories.NewMarketRepository(db)
	store := repositories.NewSettlementStore(db)

	// Settlement core
	sink := audit.NewDBSink(db, config.GetIntEnv("AUDIT_BUFFER", 1024))
	settler := settlement.NewService(store, sink, config.GetBoolEnv("SETTLEMENT_FORCE_FALLBACK", false))
	if settler.UsesFallback() {
		log.Println("settlement: grouping unavailable, using fallback path")
	}

	// Cooldown guard: redis when configured, in-process otherwise
	var guard cooldown.Guard
	if config.GetEnv("COOLDOWN_BACKEND", "memory") == "redis" {
		guard = cooldown.NewRedisGuard(repositories.CacheService)
	} else {
		guard = cooldown.NewMemoryGuard()
	}

	tenants := config.NewEnvTenantProvider()

	// Services
	economyService := economy.NewService(accountRepo, settler, guard, tenants, repositories.CacheService)
	gameService := game.NewService(accountRepo, settler, guard, tenants)
	loanService := loan.NewService(loanRepo, accountRepo, settler, tenants)
	investmentService := investment.NewService(investmentRepo, accountRepo, settler, tenants)
	marketService := market.NewService(marketRepo, accountRepo, settler, tenants)
	offerBook := market.NewOfferBook()

	// Handlers
	authHandler := handlers.NewAuthHandler()
	economyHandler := handlers.NewEconomyHandler(economyService)
	gameHandler := handlers.NewGameHandler(gameService)
	loanHandler := handlers.NewLoanHandler(loanService)
	investmentHandler := handlers.NewInvestmentHandler(investmentService)
	marketHandler := handlers.NewMarketHandler(marketService, offerBook)

	app.Get("/health", handlers.HealthCheck)

	api := app.Group("/api")
	api.Post("/auth/token", authHandler.IssueToken)

	protected := api.Use(middleware.Auth)

	wallet := protected.Group("/wallet")
	wallet.Get("/", economyHandler.GetBalance)
	wallet.Post("/deposit", economyHandler.Deposit)
	wallet.Post("/withdraw", economyHandler.Withdraw)
	wallet.Post("/transfer", economyHandler.Transfer)
	wallet.Get("/history", economyHandler.History)

	income := protected.Group("/income")
	income.Post("/daily", economyHandler.Daily)
	income.Post("/work", economyHandler.Work)
	income.Post("/rob", economyHandler.Rob)

	games := protected.Group("/games")
	games.Post("/coinflip", gameHandler.Coinflip)
	games.Post("/dice", gameHandler.Dice)
	games.Post("/slots", gameHandler.Slots)
	games.Post("/blackjack", gameHandler.BlackjackStart)
	games.Post("/blackjack/:id/hit", gameHandler.BlackjackHit)
	games.Post("/blackjack/:id/stand", gameHandler.BlackjackStand)
	games.Post("/blackjack/:id/double", gameHandler.BlackjackDouble)

	loans := protected.Group("/loans")
	loans.Post("/", loanHandler.Apply)
	loans.Post("/repay", loanHandler.Repay)
	loans.Get("/", loanHandler.Active)

	investments := protected.Group("/investments")
	investments.Post("/", investmentHandler.Create)
	investments.Get("/", investmentHandler.List)
	investments.Post("/collect", investmentHandler.Collect)

	marketGroup := protected.Group("/market")
	marketGroup.Get("/listings", marketHandler.Listings)
	marketGroup.Post("/listings", marketHandler.CreateListing)
	marketGroup.Post("/listings/:id/buy", marketHandler.Buy)
	marketGroup.Delete("/listings/:id", marketHandler.Cancel)
	marketGroup.Post("/offers", marketHandler.OpenOffer)
	marketGroup.Post("/offers/:id/accept", marketHandler.AcceptOffer)
	marketGroup.Delete("/offers/:id", marketHandler.DeclineOffer)

	return &Services{
		Settlement: settler,
		Economy:    economyService,
		Game:       gameService,
		Loan:       loanService,
		Investment: investmentService,
		Market:     marketService,
		AuditSink:  sink,
	}
}
