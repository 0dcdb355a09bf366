// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/memberhub/internal/app/store/audit"
	"github.com/dalemusser/memberhub/internal/app/system/auditlog"
	"github.com/dalemusser/memberhub/internal/app/system/indexes"
	"github.com/dalemusser/memberhub/internal/app/system/mailinglist"
	"github.com/dalemusser/memberhub/internal/app/system/timeouts"
	"github.com/dalemusser/memberhub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB connects to MongoDB and builds the back ends that depend on
// it: the audit logger and, when Mailgun is configured, the mailing-list
// worker. The worker is started in Startup.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetAppName("memberhub").
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("connect MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("ping MongoDB: %w", err)
	}
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	db := client.Database(appCfg.MongoDatabase)
	deps := DBDeps{
		MongoClient:   client,
		MongoDatabase: db,
		Audit: auditlog.New(audit.New(db), logger, auditlog.Config{
			Auth:  appCfg.AuditLogAuth,
			Admin: appCfg.AuditLogAdmin,
		}),
	}

	if appCfg.MailingListEnabled() {
		provider := mailinglist.NewMailgun(mailinglist.MailgunConfig{
			Domain:   appCfg.MailgunDomain,
			APIKey:   appCfg.MailgunAPIKey,
			APIBase:  appCfg.MailgunAPIBase,
			From:     appCfg.MailFrom,
			FromName: appCfg.MailFromName,
		})
		lists := mailinglist.New(provider, mailinglist.Config{
			SiteName: appCfg.SiteName,
			LoginURL: appCfg.BaseURL + "/login",
			Lang:     appCfg.DefaultLocale,
		}, logger)
		deps.MailSync = workers.NewMailSync(lists, deps.Audit, logger, workers.MailSyncConfig{
			QueueSize: appCfg.MailSyncQueueSize,
		})
	} else {
		logger.Warn("mailgun not configured; mailing lists will not be updated")
	}

	return deps, nil
}

// EnsureSchema creates the collection indexes.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	ictx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()
	if err := indexes.EnsureAll(ictx, deps.MongoDatabase); err != nil {
		logger.Error("ensure indexes failed", zap.Error(err))
		return err
	}
	return nil
}
