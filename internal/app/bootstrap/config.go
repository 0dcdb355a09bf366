// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/memberhub/internal/app/system/auditlog"
	"github.com/dalemusser/memberhub/internal/app/system/i18n"
	"github.com/dalemusser/memberhub/internal/app/system/spreadsheet"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

const minSecretLen = 32

// appConfigKeys defines the configuration keys for MemberHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: MEMBERHUB_MONGO_URI, MEMBERHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "memberhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 5, Desc: "MongoDB min connection pool size"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "memberhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "168h", Desc: "Session lifetime (e.g., 12h, 168h)"},
	{Name: "csrf_key", Default: "", Desc: "32-byte CSRF key (generated per process when blank outside production)"},

	{Name: "site_name", Default: "MemberHub", Desc: "Site name shown in pages and email"},
	{Name: "base_url", Default: "http://localhost:3000", Desc: "Public base URL for callbacks and email links"},

	// Mailgun
	{Name: "mailgun_domain", Default: "", Desc: "Mailgun sending domain (blank disables mailing lists)"},
	{Name: "mailgun_api_key", Default: "", Desc: "Mailgun API key"},
	{Name: "mailgun_api_base", Default: "", Desc: "Mailgun API base URL (blank for the US region)"},
	{Name: "mail_from", Default: "noreply@example.com", Desc: "From email address"},
	{Name: "mail_from_name", Default: "MemberHub", Desc: "From display name"},
	{Name: "mailsync_queue_size", Default: 256, Desc: "Capacity of the background mailing-list queue"},

	// Audit logging
	{Name: "audit_log_auth", Default: auditlog.All, Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: auditlog.All, Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Google OAuth
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},

	{Name: "admin_email", Default: "", Desc: "Email of a member promoted to administrator on startup"},
	{Name: "default_locale", Default: i18n.NL, Desc: "Fallback language: 'nl' or 'en'"},
	{Name: "export_format", Default: string(spreadsheet.XLSX), Desc: "Default member export format: 'xlsx' or 'csv'"},

	// Timeouts
	{Name: "timeout_short", Default: "5s", Desc: "Timeout for single-document database operations"},
	{Name: "timeout_medium", Default: "10s", Desc: "Timeout for list operations"},
	{Name: "timeout_long", Default: "30s", Desc: "Timeout for exports and audit queries"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig reads .env files, config files,
// environment variables (WAFFLE_* for core, MEMBERHUB_* for the app) and
// flags, merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "MEMBERHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 7*24*time.Hour),
		CSRFKey:       appValues.String("csrf_key"),

		SiteName: appValues.String("site_name"),
		BaseURL:  appValues.String("base_url"),

		MailgunDomain:     appValues.String("mailgun_domain"),
		MailgunAPIKey:     appValues.String("mailgun_api_key"),
		MailgunAPIBase:    appValues.String("mailgun_api_base"),
		MailFrom:          appValues.String("mail_from"),
		MailFromName:      appValues.String("mail_from_name"),
		MailSyncQueueSize: appValues.Int("mailsync_queue_size"),

		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),

		AdminEmail:    appValues.String("admin_email"),
		DefaultLocale: appValues.String("default_locale"),
		ExportFormat:  appValues.String("export_format"),

		TimeoutShort:  appValues.Duration("timeout_short", 5*time.Second),
		TimeoutMedium: appValues.Duration("timeout_medium", 10*time.Second),
		TimeoutLong:   appValues.Duration("timeout_long", 30*time.Second),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation. Every problem is
// reported, not only the first.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	var errs []error

	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		errs = append(errs, fmt.Errorf("invalid MongoDB URI: %w", err))
	}
	if appCfg.MongoDatabase == "" {
		errs = append(errs, errors.New("mongo_database is required"))
	}
	if _, err := spreadsheet.ParseFormat(appCfg.ExportFormat, spreadsheet.XLSX); err != nil {
		errs = append(errs, fmt.Errorf("export_format: %w", err))
	}
	if !auditlog.ValidSetting(appCfg.AuditLogAuth) {
		errs = append(errs, fmt.Errorf("audit_log_auth: unknown setting %q", appCfg.AuditLogAuth))
	}
	if !auditlog.ValidSetting(appCfg.AuditLogAdmin) {
		errs = append(errs, fmt.Errorf("audit_log_admin: unknown setting %q", appCfg.AuditLogAdmin))
	}
	if appCfg.DefaultLocale != i18n.NL && appCfg.DefaultLocale != i18n.EN {
		errs = append(errs, fmt.Errorf("default_locale: must be %q or %q", i18n.NL, i18n.EN))
	}
	if (appCfg.GoogleClientID == "") != (appCfg.GoogleClientSecret == "") {
		errs = append(errs, errors.New("google_client_id and google_client_secret must be set together"))
	}

	if coreCfg != nil && coreCfg.Env == "prod" {
		if len(appCfg.SessionKey) < minSecretLen {
			errs = append(errs, fmt.Errorf("session_key must be at least %d bytes in production", minSecretLen))
		}
		if len(appCfg.CSRFKey) != minSecretLen {
			errs = append(errs, fmt.Errorf("csrf_key must be exactly %d bytes in production", minSecretLen))
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		logger.Error("invalid configuration", zap.Error(err))
	}
	return err
}
