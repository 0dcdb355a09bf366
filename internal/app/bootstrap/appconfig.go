// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables (MEMBERHUB_*), configuration
// files, or command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig
// covers the framework-level settings: ports, TLS, logging level, CORS and
// request limits.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string        // signs session cookies; at least 32 bytes in production
	SessionName   string        // cookie name (default: memberhub-session)
	SessionDomain string        // blank means current host
	SessionMaxAge time.Duration // lifetime of a sign-in

	// CSRFKey authenticates CSRF tokens. Must be 32 bytes in production;
	// a random key is generated per process otherwise.
	CSRFKey string

	// SiteName appears in page titles and the welcome email.
	SiteName string

	// BaseURL is the public address, used for the Google callback and
	// links in email (e.g., "https://leden.example.nl").
	BaseURL string

	// Mailgun (mailing lists and welcome email). Blank domain or key
	// disables mailing-list synchronisation.
	MailgunDomain  string
	MailgunAPIKey  string
	MailgunAPIBase string
	MailFrom       string
	MailFromName   string

	// MailSyncQueueSize bounds the background mailing-list queue.
	MailSyncQueueSize int

	// Audit logging destinations: all | db | log | off
	AuditLogAuth  string
	AuditLogAdmin string

	// Google OAuth (optional)
	GoogleClientID     string
	GoogleClientSecret string

	// AdminEmail names an existing member promoted to administrator at startup.
	AdminEmail string

	// DefaultLocale is used when neither cookie nor Accept-Language decides (nl | en).
	DefaultLocale string

	// ExportFormat is the default member export format (xlsx | csv).
	ExportFormat string

	// Database operation timeouts
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}

// MailingListEnabled reports whether Mailgun credentials are configured.
func (c AppConfig) MailingListEnabled() bool {
	return c.MailgunDomain != "" && c.MailgunAPIKey != ""
}

// GoogleEnabled reports whether Google sign-in is configured.
func (c AppConfig) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}
