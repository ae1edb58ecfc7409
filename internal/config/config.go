// Package config reads the server's settings from the environment.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Document store backends.
const (
	DocStoreFirestore = "firestore"
	DocStoreSQLite    = "sqlite"
)

// Email providers.
const (
	EmailResend = "resend"
	EmailSMTP   = "smtp"
	EmailNoop   = "noop"
)

var (
	ErrInvalidCSRFKey    = errors.New("AURORA_CSRF_KEY must be 64 hex characters")
	ErrMissingCSRFKey    = errors.New("AURORA_CSRF_KEY is required in production")
	ErrMissingFirebase   = errors.New("FIREBASE_PROJECT_ID is required for the firestore document store")
	ErrMissingSMTPHost   = errors.New("SMTP_HOST is required for the smtp email provider")
	ErrUnknownDocStore   = errors.New("AURORA_DOCSTORE must be firestore or sqlite")
	ErrUnknownEmail      = errors.New("AURORA_EMAIL_PROVIDER must be resend, smtp or noop")
	ErrUnknownLogFormat  = errors.New("AURORA_LOG_FORMAT must be text or json")
	ErrUnknownLogLevel   = errors.New("AURORA_LOG_LEVEL must be debug, info, warn or error")
	ErrMissingAdminLogin = errors.New("AURORA_ADMIN_PASSWORD is required in production with the sqlite document store")
)

// Config is the typed view of the environment.
type Config struct {
	Env  string
	Addr string

	DocStore                string
	DBPath                  string
	FirebaseProjectID       string
	FirebaseCredentialsFile string
	FirebaseWebAPIKey       string

	EmailProvider string
	ResendAPIKey  string
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string

	// Empty values keep the built-in contact addresses.
	ContactInbox string
	NotifyFrom   string
	ConfirmFrom  string
	SiteURL      string

	CSRFKey        []byte
	TrustedOrigins []string

	AdminEmail    string
	AdminPassword string

	SessionCheckTimeout time.Duration
	SlowRequestMs       int
	SeedPricing         bool

	LogLevel  slog.Level
	LogFormat string
}

// Production reports whether the server runs with production hardening.
func (c Config) Production() bool { return c.Env == "production" }

// Load merges the given .env files (default ".env") into the process
// environment and parses the result. Variables already set win over file
// values, and a missing default file is not an error.
func Load(files ...string) (Config, error) {
	explicit := len(files) > 0
	if !explicit {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if !explicit && errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	c := Config{
		Env:                     get("AURORA_ENV", "development"),
		Addr:                    get("AURORA_ADDR", ":8080"),
		DBPath:                  get("AURORA_DB_PATH", "aurora.db"),
		FirebaseProjectID:       get("FIREBASE_PROJECT_ID", ""),
		FirebaseCredentialsFile: get("FIREBASE_CREDENTIALS_FILE", ""),
		FirebaseWebAPIKey:       get("FIREBASE_WEB_API_KEY", ""),
		EmailProvider:           get("AURORA_EMAIL_PROVIDER", EmailResend),
		ResendAPIKey:            get("RESEND_API_KEY", ""),
		SMTPHost:                get("SMTP_HOST", ""),
		SMTPUsername:            get("SMTP_USERNAME", ""),
		SMTPPassword:            getenv("SMTP_PASSWORD"),
		ContactInbox:            get("AURORA_CONTACT_INBOX", ""),
		NotifyFrom:              get("AURORA_NOTIFY_FROM", ""),
		ConfirmFrom:             get("AURORA_CONFIRM_FROM", ""),
		SiteURL:                 get("AURORA_SITE_URL", ""),
		AdminEmail:              get("AURORA_ADMIN_EMAIL", "n@aurorabusiness.ca"),
		AdminPassword:           getenv("AURORA_ADMIN_PASSWORD"),
		LogFormat:               get("AURORA_LOG_FORMAT", "text"),
	}

	// Firestore when a project is named, SQLite otherwise.
	defaultStore := DocStoreSQLite
	if c.FirebaseProjectID != "" {
		defaultStore = DocStoreFirestore
	}
	c.DocStore = get("AURORA_DOCSTORE", defaultStore)
	switch c.DocStore {
	case DocStoreSQLite:
	case DocStoreFirestore:
		if c.FirebaseProjectID == "" {
			return Config{}, ErrMissingFirebase
		}
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownDocStore, c.DocStore)
	}

	switch c.EmailProvider {
	case EmailResend, EmailNoop:
	case EmailSMTP:
		if c.SMTPHost == "" {
			return Config{}, ErrMissingSMTPHost
		}
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownEmail, c.EmailProvider)
	}

	var err error
	if c.SMTPPort, err = intVar(getenv, "SMTP_PORT", 587); err != nil {
		return Config{}, err
	}
	if c.SlowRequestMs, err = intVar(getenv, "AURORA_SLOW_REQUEST_MS", 200); err != nil {
		return Config{}, err
	}
	if c.SessionCheckTimeout, err = durationVar(getenv, "AURORA_SESSION_CHECK_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}
	if raw := get("AURORA_SEED_PRICING", "false"); raw != "" {
		if c.SeedPricing, err = strconv.ParseBool(raw); err != nil {
			return Config{}, fmt.Errorf("AURORA_SEED_PRICING: %w", err)
		}
	}

	if c.LogLevel, err = parseLevel(get("AURORA_LOG_LEVEL", "info")); err != nil {
		return Config{}, err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownLogFormat, c.LogFormat)
	}

	if c.CSRFKey, err = csrfKey(getenv("AURORA_CSRF_KEY"), c.Production()); err != nil {
		return Config{}, err
	}
	for _, o := range strings.Split(getenv("AURORA_TRUSTED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			c.TrustedOrigins = append(c.TrustedOrigins, o)
		}
	}

	if c.Production() && c.DocStore == DocStoreSQLite && c.AdminPassword == "" {
		return Config{}, ErrMissingAdminLogin
	}
	return c, nil
}

// csrfKey decodes a 32-byte hex key. Outside production a missing key is
// replaced with a random one, so forms break across restarts only in dev.
func csrfKey(raw string, production bool) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if production {
			return nil, ErrMissingCSRFKey
		}
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate csrf key: %w", err)
		}
		return key, nil
	}
	key, err := hex.DecodeString(raw)
	if err != nil || len(key) != 32 {
		return nil, ErrInvalidCSRFKey
	}
	return key, nil
}

func intVar(getenv func(string) string, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return n, nil
}

// durationVar accepts Go durations ("5s") or bare milliseconds ("5000").
func durationVar(getenv func(string) string, key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return fallback, nil
	}
	if ms, err := strconv.Atoi(raw); err == nil && ms > 0 {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, raw)
	}
	return d, nil
}

func parseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLogLevel, raw)
}

// Handler builds the process log handler for the configured level and format.
func (c Config) Handler(w io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}
