// internal/app/bootstrap/routes.go
package bootstrap

import (
	"fmt"
	"net/http"

	agendacategoriesfeature "github.com/dalemusser/memberhub/internal/app/features/agendacategories"
	auditlogfeature "github.com/dalemusser/memberhub/internal/app/features/auditlog"
	authgooglefeature "github.com/dalemusser/memberhub/internal/app/features/authgoogle"
	certificatesfeature "github.com/dalemusser/memberhub/internal/app/features/certificates"
	errorsfeature "github.com/dalemusser/memberhub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/memberhub/internal/app/features/health"
	homefeature "github.com/dalemusser/memberhub/internal/app/features/home"
	loginfeature "github.com/dalemusser/memberhub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/memberhub/internal/app/features/logout"
	rolesfeature "github.com/dalemusser/memberhub/internal/app/features/roles"
	usersfeature "github.com/dalemusser/memberhub/internal/app/features/users"
	"github.com/dalemusser/memberhub/internal/app/lifecycle"
	userstore "github.com/dalemusser/memberhub/internal/app/store/users"
	"github.com/dalemusser/memberhub/internal/app/system/auditlog"
	"github.com/dalemusser/memberhub/internal/app/system/auth"
	"github.com/dalemusser/memberhub/internal/app/system/i18n"
	"github.com/dalemusser/memberhub/internal/app/system/spreadsheet"
	"github.com/dalemusser/memberhub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"github.com/gorilla/securecookie"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. It boots the template engine, installs
// the session, CSRF, language and audit middleware, and mounts the feature
// routers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Fresh user data on each request, so role changes and deactivation
	// take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.MongoDatabase))

	viewdata.Init(appCfg.SiteName, sessionMgr.Flashes)

	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	csrfMW, err := csrfMiddleware(appCfg.CSRFKey, secure, logger)
	if err != nil {
		return nil, err
	}

	errLog := errorsfeature.NewErrorLogger(logger)
	audit := deps.Audit
	if audit == nil {
		audit = auditlog.New(nil, logger, auditlog.Config{Auth: auditlog.Log, Admin: auditlog.Log})
	}

	// A nil *MailSync must not reach the handlers as a non-nil interface.
	var mail lifecycle.MailingList
	var mailQueue healthfeature.MailQueue
	if deps.MailSync != nil {
		mail = deps.MailSync
		mailQueue = deps.MailSync
	}

	exportFormat, err := spreadsheet.ParseFormat(appCfg.ExportFormat, spreadsheet.XLSX)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	errorsHandler := errorsfeature.NewHandler()
	r.NotFound(errorsHandler.NotFound)

	// Health check endpoint for load balancers; outside CSRF and sessions.
	healthHandler := healthfeature.NewHandler(deps.MongoClient, mailQueue, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	r.Group(func(app chi.Router) {
		app.Use(csrfMW)
		app.Use(i18n.Middleware)
		app.Use(auditlog.Middleware)
		// Loads the SessionUser into context when signed in.
		app.Use(sessionMgr.LoadSessionUser)

		homeHandler := homefeature.NewHandler(logger)
		app.Mount("/", homefeature.Routes(homeHandler))

		// Authentication
		loginHandler := loginfeature.NewHandler(deps.MongoDatabase, sessionMgr, errLog, audit, appCfg.GoogleEnabled(), logger)
		app.Mount("/login", loginfeature.Routes(loginHandler))

		logoutHandler := logoutfeature.NewHandler(sessionMgr, audit, logger)
		app.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

		if appCfg.GoogleEnabled() {
			googleHandler := authgooglefeature.NewHandler(deps.MongoDatabase, sessionMgr, audit,
				appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)
			app.Mount("/auth/google", authgooglefeature.Routes(googleHandler))
		}

		// Error pages
		app.Get("/forbidden", errorsHandler.Forbidden)
		app.Get("/unauthorized", errorsHandler.Unauthorized)

		// Members, with their certificates nested below each member
		usersHandler := usersfeature.NewHandler(deps.MongoDatabase, sessionMgr, errLog, audit, mail, exportFormat, logger)
		usersRouter := usersfeature.Routes(usersHandler, sessionMgr)
		certHandler := certificatesfeature.NewHandler(deps.MongoDatabase, sessionMgr, errLog, logger)
		usersRouter.Mount("/{id}/certificates", certificatesfeature.Routes(certHandler, sessionMgr))
		app.Mount("/users", usersRouter)

		rolesHandler := rolesfeature.NewHandler(deps.MongoDatabase, sessionMgr, errLog, audit, logger)
		app.Mount("/roles", rolesfeature.Routes(rolesHandler, sessionMgr))

		categoriesHandler := agendacategoriesfeature.NewHandler(deps.MongoDatabase, sessionMgr, errLog, logger)
		app.Mount("/agenda-item-categories", agendacategoriesfeature.Routes(categoriesHandler, sessionMgr))

		auditHandler := auditlogfeature.NewHandler(deps.MongoDatabase, errLog, logger)
		app.Mount("/audit", auditlogfeature.Routes(auditHandler, sessionMgr))
	})

	return r, nil
}

// csrfMiddleware protects every form post. Outside production a blank key
// is replaced by a random one, so tokens do not survive a restart.
func csrfMiddleware(key string, secure bool, logger *zap.Logger) (func(http.Handler) http.Handler, error) {
	authKey := []byte(key)
	if len(authKey) == 0 && !secure {
		authKey = securecookie.GenerateRandomKey(minSecretLen)
		logger.Warn("csrf_key not set; using a random per-process key")
	}
	if len(authKey) != minSecretLen {
		return nil, fmt.Errorf("csrf key must be %d bytes, got %d", minSecretLen, len(authKey))
	}

	protect := csrf.Protect(authKey,
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Warn("csrf validation failed",
				zap.String("path", r.URL.Path),
				zap.Error(csrf.FailureReason(r)))
			errorsfeature.RenderForbidden(w, r, "Your form has expired. Please go back and try again.", "/")
		})),
	)
	if secure {
		return protect, nil
	}
	// Plain-HTTP development server: skip the TLS-only referer checks.
	return func(next http.Handler) http.Handler {
		h := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}, nil
}
