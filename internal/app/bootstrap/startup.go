// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/memberhub/internal/app/resources"
	rolestore "github.com/dalemusser/memberhub/internal/app/store/roles"
	userstore "github.com/dalemusser/memberhub/internal/app/store/users"
	"github.com/dalemusser/memberhub/internal/app/system/i18n"
	"github.com/dalemusser/memberhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Startup runs one-time initialization after the database is ready and
// before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	resources.LoadSharedTemplates()
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
	})
	i18n.SetDefault(appCfg.DefaultLocale)

	if err := ensureAdministrator(ctx, deps.MongoDatabase, appCfg.AdminEmail, logger); err != nil {
		return err
	}

	if deps.MailSync != nil {
		deps.MailSync.Start()
	}
	return nil
}

// ensureAdministrator makes sure the built-in administrator role exists and,
// when adminEmail is set, that the member with that email holds it. An
// unknown adminEmail is logged, not fatal: the member may not exist yet.
func ensureAdministrator(ctx context.Context, db *mongo.Database, adminEmail string, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	role, err := rolestore.New(db).EnsureAdministrator(ctx)
	if err != nil {
		return fmt.Errorf("ensure administrator role: %w", err)
	}
	if adminEmail == "" {
		return nil
	}

	users := userstore.New(db)
	u, err := users.GetByEmail(ctx, adminEmail)
	if errors.Is(err, mongo.ErrNoDocuments) {
		logger.Warn("admin_email does not match a member", zap.String("email", adminEmail))
		return nil
	}
	if err != nil {
		return fmt.Errorf("look up admin_email: %w", err)
	}
	if u.HasRole(role.ID) {
		return nil
	}
	if err := users.AddRole(ctx, u.ID, role.ID); err != nil {
		return fmt.Errorf("promote admin_email: %w", err)
	}
	logger.Info("promoted member to administrator", zap.String("user_id", u.ID.Hex()))
	return nil
}
