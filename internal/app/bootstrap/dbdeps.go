// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/memberhub/internal/app/system/auditlog"
	"github.com/dalemusser/memberhub/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database and back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Audit records auth and admin events.
	Audit *auditlog.Logger

	// MailSync is nil when no mailing-list provider is configured.
	MailSync *workers.MailSync
}
