package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/gainvault/gainvault/internal/account"
	"github.com/gainvault/gainvault/internal/commission"
	"github.com/gainvault/gainvault/internal/config"
	"github.com/gainvault/gainvault/internal/deposit"
	"github.com/gainvault/gainvault/internal/interest"
	"github.com/gainvault/gainvault/internal/ledger"
	"github.com/gainvault/gainvault/internal/membership"
	"github.com/gainvault/gainvault/internal/middleware"
	"github.com/gainvault/gainvault/internal/notification"
	"github.com/gainvault/gainvault/internal/ratepolicy"
	"github.com/gainvault/gainvault/internal/referral"
	"github.com/gainvault/gainvault/internal/reward"
	"github.com/gainvault/gainvault/internal/withdrawal"
)

// Deps aggregates shared dependencies required to wire routes. Accrual is
// built by the caller so the cron scheduler and the manual trigger share one
// job instance.
type Deps struct {
	Cfg     config.Config
	DB      *pgxpool.Pool
	Cache   *redis.Client
	Logger  *slog.Logger
	Accrual *interest.Job
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if d.DB == nil {
		return fmt.Errorf("database is required")
	}
	if d.Cache == nil {
		return fmt.Errorf("redis is required")
	}
	if d.Accrual == nil {
		return fmt.Errorf("accrual job is required")
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))

	RegisterHealthRoutes(app, d)

	// Storage-backed collaborators.
	ledgerBackend := ledger.NewPostgresLedger(d.DB, d.Cfg.ApplyMaxRetries)
	accountRepo := account.NewPostgresRepository(d.DB)
	graph := referral.NewCachedProvider(referral.NewPostgresProvider(d.DB), d.Cache, 0, d.Logger)
	commissionRepo := commission.NewPostgresRepository(d.DB)
	depositRepo := deposit.NewPostgresRepository(d.DB)
	withdrawalRepo := withdrawal.NewPostgresRepository(d.DB)

	// Services.
	notifier := notification.NewLoggerNotifier(d.Logger)
	accountSvc := account.NewService(accountRepo, ledgerBackend, d.Cfg.RegistrationBonus, d.Cfg.DefaultCurrency)
	commissionSvc := commission.NewService(ledgerBackend, accountRepo, graph, commissionRepo, notifier, d.Logger)
	resolver := membership.NewResolver(accountRepo, graph, d.Cfg.TierDemotion, d.Logger)
	depositSvc := deposit.NewService(depositRepo, ledgerBackend, accountRepo, commissionSvc, resolver, graph, d.Logger)
	withdrawalSvc := withdrawal.NewService(ledgerBackend, withdrawalRepo, ratepolicy.DefaultFeePolicy(), d.Cfg.MinWithdrawal, notifier, d.Logger)
	rewardSvc := reward.NewService(ledgerBackend, commissionSvc, d.Logger)

	// Handlers.
	accountHandler := account.NewHandler(accountSvc, ledgerBackend)
	depositHandler := deposit.NewHandler(depositSvc)
	withdrawalHandler := withdrawal.NewHandler(withdrawalSvc)
	rewardHandler := reward.NewHandler(rewardSvc)
	commissionHandler := commission.NewHandler(commissionSvc)
	interestHandler := interest.NewHandler(d.Accrual)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterAccountRoutes(api, accountHandler, commissionHandler, interestHandler, withdrawalHandler)
	RegisterDepositRoutes(api, depositHandler)
	RegisterWithdrawalRoutes(api, withdrawalHandler)
	RegisterRewardRoutes(api, rewardHandler)
	RegisterAccrualRoutes(api, interestHandler)

	return nil
}
