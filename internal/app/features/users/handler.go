// internal/app/features/users/handler.go
package users

import (
	"errors"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/memberhub/internal/app/features/errors"
	"github.com/dalemusser/memberhub/internal/app/lifecycle"
	"github.com/dalemusser/memberhub/internal/app/policy/userpolicy"
	certificatestore "github.com/dalemusser/memberhub/internal/app/store/certificates"
	rolestore "github.com/dalemusser/memberhub/internal/app/store/roles"
	userstore "github.com/dalemusser/memberhub/internal/app/store/users"
	"github.com/dalemusser/memberhub/internal/app/system/auditlog"
	"github.com/dalemusser/memberhub/internal/app/system/auth"
	"github.com/dalemusser/memberhub/internal/app/system/i18n"
	"github.com/dalemusser/memberhub/internal/app/system/spreadsheet"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Members    *lifecycle.Service
	Users      *userstore.Store
	Roles      *rolestore.Store
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	Log        *zap.Logger

	ExportFormat spreadsheet.Format
	Now          func() time.Time
}

// NewHandler wires the member pages. mail may be nil when no mailing-list
// provider is configured.
func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	errLog *uierrors.ErrorLogger,
	audit *auditlog.Logger,
	mail lifecycle.MailingList,
	exportFormat spreadsheet.Format,
	logger *zap.Logger,
) *Handler {
	users := userstore.New(db)
	roles := rolestore.New(db)
	if exportFormat == "" {
		exportFormat = spreadsheet.XLSX
	}
	return &Handler{
		Members: lifecycle.New(lifecycle.Deps{
			Users:        users,
			Roles:        roles,
			Certificates: certificatestore.New(db),
			MailingList:  mail,
			Auditor:      audit,
			Log:          logger,
		}),
		Users:        users,
		Roles:        roles,
		SessionMgr:   sessionMgr,
		ErrLog:       errLog,
		Log:          logger,
		ExportFormat: exportFormat,
		Now:          time.Now,
	}
}

// actor returns the signed-in user, rendering 401 when there is none.
func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (userpolicy.Actor, bool) {
	a, ok := userpolicy.ActorFromRequest(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
	}
	return a, ok
}

// userID parses the {id} URL parameter, rendering 400 when it is malformed.
func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Invalid member ID.", "/")
		return primitive.NilObjectID, false
	}
	return id, true
}

// fail maps a lifecycle error that is not a validation error to a page.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error, back string) {
	switch {
	case errors.Is(err, lifecycle.ErrUnauthorized):
		uierrors.RenderForbidden(w, r, "", back)
	case errors.Is(err, lifecycle.ErrNotFound):
		uierrors.RenderNotFound(w, r, "Member not found.", back)
	default:
		h.ErrLog.LogServerError(w, r, op+" failed", err, "A database error occurred.", back)
	}
}

// flash queues key plus the mailing-list notice when any call was not accepted.
func (h *Handler) flash(w http.ResponseWriter, r *http.Request, key string, warnings []*lifecycle.ExternalServiceWarning) {
	if h.SessionMgr == nil {
		return
	}
	keys := []string{key}
	if len(warnings) > 0 {
		keys = append(keys, i18n.MailingListPending)
	}
	h.SessionMgr.AddFlash(w, r, keys...)
}

// submittedRoleIDs returns the checked role IDs, or nil when the form did not
// carry a role list. Malformed IDs are skipped.
func submittedRoleIDs(r *http.Request) []primitive.ObjectID {
	if r.PostForm.Get("roles_present") == "" {
		return nil
	}
	out := make([]primitive.ObjectID, 0, len(r.PostForm["role_ids"]))
	for _, s := range r.PostForm["role_ids"] {
		if id, err := primitive.ObjectIDFromHex(s); err == nil {
			out = append(out, id)
		}
	}
	return out
}
