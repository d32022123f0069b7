// Command server runs the citizen registry HTTP service.
//
// With DATABASE_URL set it persists to Postgres (applying embedded migrations
// on startup); without it, it runs on in-memory stores for local development.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	accounthandler "civreg/internal/account/handler"
	accountsvc "civreg/internal/account/service"
	accountstore "civreg/internal/account/store"
	"civreg/internal/audit"
	caseshandler "civreg/internal/cases/handler"
	casesvc "civreg/internal/cases/service"
	casestore "civreg/internal/cases/store"
	identityhandler "civreg/internal/identity/handler"
	identitysvc "civreg/internal/identity/service"
	identitystore "civreg/internal/identity/store"
	jwttoken "civreg/internal/jwt_token"
	"civreg/internal/platform/config"
	"civreg/internal/platform/httpserver"
	"civreg/internal/platform/logger"
	"civreg/internal/platform/metrics"
	"civreg/internal/platform/postgres"
	redisplatform "civreg/internal/platform/redis"
	registrationhandler "civreg/internal/registration/handler"
	registrationsvc "civreg/internal/registration/service"
	registrationstore "civreg/internal/registration/store"
	reportinghandler "civreg/internal/reporting/handler"
	reportingsvc "civreg/internal/reporting/service"
	reportingstore "civreg/internal/reporting/store"
	httptransport "civreg/internal/transport/http"
	"civreg/pkg/domain"
	txcontext "civreg/pkg/platform/tx"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	m := metrics.New()

	var (
		db          *sql.DB
		idStore     identitystore.Store
		caseStore   casestore.Store
		acctStore   accountstore.Store
		regStore    registrationstore.Store
		auditStore  audit.Store
		reportStore reportingstore.Store
		runner      txcontext.Runner
	)
	if cfg.DatabaseURL != "" {
		var err error
		db, err = postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		idStore = identitystore.NewPostgresStore(db)
		caseStore = casestore.NewPostgresStore(db)
		acctStore = accountstore.NewPostgresStore(db)
		regStore = registrationstore.NewPostgresStore(db)
		auditStore = audit.NewPostgresStore(db)
		reportStore = reportingstore.NewPostgresStore(db)
		runner = postgres.NewTxRunner(db)
		log.Info("using postgres storage")
	} else {
		memIdentities := identitystore.NewInMemoryStore()
		memCases := casestore.NewInMemoryStore()
		memAccounts := accountstore.NewInMemoryStore()

		idStore = memIdentities
		caseStore = memCases
		acctStore = memAccounts
		regStore = registrationstore.NewInMemoryStore()
		auditStore = audit.NewInMemoryStore()
		reportStore = reportingstore.NewInMemoryStore(memIdentities, memCases, memAccounts)
		runner = txcontext.Passthrough{}
		log.Warn("DATABASE_URL not set, using in-memory storage")
	}

	cache, err := redisplatform.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	if cache != nil {
		defer cache.Close()
		log.Info("counts cache enabled")
	}

	tokens := jwttoken.NewJWTService(cfg.JWTSigningKey, "civreg")

	auditSvc := audit.NewService(auditStore, m)
	accounts := accountsvc.NewService(acctStore, auditSvc, runner, tokens, cfg.TokenTTL, log)
	unlinker := &lateUnlinker{}
	identities := identitysvc.NewService(idStore, auditSvc, runner, unlinker, accounts, m, log)
	cases := casesvc.NewService(caseStore, auditSvc, runner, identities, log)
	unlinker.cases = cases
	registrations := registrationsvc.NewService(regStore, auditSvc, runner, identities, accounts, m, log)
	reports := reportingsvc.NewService(reportStore, regStore, cache, cfg.CountCacheTTL, log)

	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelSeed()
	if err := accounts.EnsureAdmin(seedCtx, cfg.AdminUsername, cfg.AdminPassword, cfg.AdminDisplayName); err != nil {
		return err
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:        log,
		Tokens:        tokens,
		Accounts:      accounthandler.New(accounts, log),
		Identities:    identityhandler.New(identities, log),
		Cases:         caseshandler.New(cases, log),
		Registrations: registrationhandler.New(registrations, log),
		Reports:       reportinghandler.New(reports, log),
		Audit:         audit.NewHandler(auditSvc, log),
		Health: func(ctx context.Context) error {
			if db != nil {
				if err := db.PingContext(ctx); err != nil {
					return err
				}
			}
			if cache != nil {
				return cache.Health(ctx)
			}
			return nil
		},
	})

	srv := httpserver.New(cfg.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting civreg server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// lateUnlinker breaks the construction cycle between the identity and case
// services: the identity service is built first, the case service is slotted
// in afterwards.
type lateUnlinker struct {
	cases *casesvc.Service
}

func (l *lateUnlinker) UnlinkIdentity(ctx context.Context, id domain.NationalID) (int, error) {
	return l.cases.UnlinkIdentity(ctx, id)
}
