package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
	_ "modernc.org/sqlite"

	"aurora/internal/adapters/auth"
	"aurora/internal/adapters/docstore"
	emailPkg "aurora/internal/adapters/email"
	web "aurora/internal/adapters/http"
	"aurora/internal/adapters/http/perf"
	"aurora/internal/adapters/storage"
	accountStore "aurora/internal/adapters/storage/account"
	pricingStore "aurora/internal/adapters/storage/pricing"
	"aurora/internal/application/orchestrators"
	"aurora/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_invalid", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(cfg.Handler(os.Stderr)))

	if err := run(cfg); err != nil {
		slog.Error("server_failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := perf.NewCollector(perf.DefaultRingSize)

	var (
		gateway  docstore.Gateway
		provider auth.Provider
	)
	switch cfg.DocStore {
	case config.DocStoreFirestore:
		app, err := firebaseApp(ctx, cfg)
		if err != nil {
			return err
		}
		fs, err := docstore.NewFirestoreGateway(ctx, app)
		if err != nil {
			return err
		}
		defer fs.Close()
		gateway = fs
		if provider, err = auth.NewFirebaseProvider(ctx, app, cfg.FirebaseWebAPIKey); err != nil {
			return err
		}

	default:
		db, err := storage.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		timedDB := storage.NewTimedDB(db, collector)
		if err := storage.InitDB(ctx, timedDB); err != nil {
			return fmt.Errorf("init database: %w", err)
		}
		gateway = docstore.NewSQLiteGateway(timedDB)

		accounts := accountStore.NewSQLiteStore(timedDB)
		if err := seedAdmin(ctx, cfg, accounts); err != nil {
			return err
		}
		provider = auth.NewLocalProvider(accounts)
	}
	slog.Info("docstore_ready", "backend", cfg.DocStore)

	pricing := pricingStore.NewDocumentStore(docstore.NewTimedGateway(gateway, collector, docstore.DefaultSlowCallMs))
	if cfg.SeedPricing {
		res := orchestrators.ExecuteSeedPricing(ctx, orchestrators.SeedPricingInput{OnlyIfEmpty: true}, orchestrators.SeedPricingDeps{Store: pricing})
		if !res.IsOk() {
			slog.Warn("seed_pricing_failed", "error", res.Error())
		}
	}

	mail := contactMail(cfg)
	handler := web.NewMux(&web.Deps{
		Pricing:             pricing,
		Auth:                provider,
		Sender:              emailSender(cfg, mail.NotifyFrom, collector),
		Mail:                mail,
		Collector:           collector,
		SessionCheckTimeout: cfg.SessionCheckTimeout,
		SlowRequestMs:       cfg.SlowRequestMs,
		CSRFKey:             cfg.CSRFKey,
		TrustedOrigins:      cfg.TrustedOrigins,
		Production:          cfg.Production(),
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_starting", "version", version, "addr", cfg.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	slog.Info("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func firebaseApp(ctx context.Context, cfg config.Config) (*firebase.App, error) {
	var opts []option.ClientOption
	if cfg.FirebaseCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.FirebaseCredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	return app, nil
}

// seedAdmin creates the local operator account on first start.
func seedAdmin(ctx context.Context, cfg config.Config, accounts *accountStore.SQLiteStore) error {
	if cfg.AdminPassword == "" {
		slog.Warn("admin_seed_skipped", "reason", "AURORA_ADMIN_PASSWORD not set")
		return nil
	}
	created, err := orchestrators.ExecuteSeedAdmin(ctx, orchestrators.SeedAdminInput{
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
	}, orchestrators.SeedAdminDeps{AccountStore: accounts, Now: time.Now})
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if created {
		slog.Info("admin_seeded", "email", cfg.AdminEmail)
	}
	return nil
}

// emailSender returns nil when Resend is selected without a key, so the
// contact endpoint reports the missing credential per request.
func emailSender(cfg config.Config, from string, collector *perf.Collector) emailPkg.Sender {
	var sender emailPkg.Sender
	switch cfg.EmailProvider {
	case config.EmailNoop:
		sender = emailPkg.NewNoopSender()
	case config.EmailSMTP:
		sender = emailPkg.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, from)
	default:
		if cfg.ResendAPIKey == "" {
			slog.Warn("email_not_configured", "provider", cfg.EmailProvider)
			return nil
		}
		sender = emailPkg.NewResendSender(cfg.ResendAPIKey, from)
	}
	slog.Info("email_configured", "provider", cfg.EmailProvider)
	return emailPkg.NewTimedSender(sender, collector)
}

func contactMail(cfg config.Config) orchestrators.ContactMail {
	mail := orchestrators.DefaultContactMail()
	if cfg.ContactInbox != "" {
		mail.Inbox = cfg.ContactInbox
	}
	if cfg.NotifyFrom != "" {
		mail.NotifyFrom = cfg.NotifyFrom
	}
	if cfg.ConfirmFrom != "" {
		mail.ConfirmFrom = cfg.ConfirmFrom
	}
	if cfg.SiteURL != "" {
		mail.SiteURL = cfg.SiteURL
	}
	return mail
}
