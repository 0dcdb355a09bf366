// internal/app/features/roles/handler.go
package roles

import (
	"net/http"

	uierrors "github.com/dalemusser/memberhub/internal/app/features/errors"
	rolestore "github.com/dalemusser/memberhub/internal/app/store/roles"
	userstore "github.com/dalemusser/memberhub/internal/app/store/users"
	"github.com/dalemusser/memberhub/internal/app/system/auditlog"
	"github.com/dalemusser/memberhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Roles      *rolestore.Store
	Users      *userstore.Store
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	AuditLog   *auditlog.Logger
	Log        *zap.Logger
}

// NewHandler constructs the role maintenance handler.
func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Roles:      rolestore.New(db),
		Users:      userstore.New(db),
		SessionMgr: sessionMgr,
		ErrLog:     errLog,
		AuditLog:   audit,
		Log:        logger,
	}
}

func (h *Handler) roleID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Invalid role ID.", "/roles")
		return primitive.NilObjectID, false
	}
	return id, true
}

func (h *Handler) flash(w http.ResponseWriter, r *http.Request, key string) {
	if h.SessionMgr != nil {
		h.SessionMgr.AddFlash(w, r, key)
	}
}
