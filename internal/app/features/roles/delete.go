// internal/app/features/roles/delete.go
package roles

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/memberhub/internal/app/features/errors"
	rolestore "github.com/dalemusser/memberhub/internal/app/store/roles"
	"github.com/dalemusser/memberhub/internal/app/system/authz"
	"github.com/dalemusser/memberhub/internal/app/system/i18n"
	"github.com/dalemusser/memberhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// HandleDelete removes a role and detaches it from every user holding it.
// Deleting a role that no longer exists redirects as if it succeeded.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	_, actorID, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	id, ok := h.roleID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	role, err := h.Roles.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		http.Redirect(w, r, "/roles", http.StatusSeeOther)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load role failed", err, "A database error occurred.", "/roles")
		return
	}

	deleted, err := h.Roles.Delete(ctx, id)
	if errors.Is(err, rolestore.ErrBuiltIn) {
		uierrors.RenderForbidden(w, r, err.Error(), "/roles")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "delete role failed", err, "A database error occurred.", "/roles")
		return
	}

	if deleted > 0 {
		detached, err := h.Users.RemoveRoleFromAll(ctx, id)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "detach role failed", err, "The role was deleted but could not be removed from every member.", "/roles")
			return
		}
		h.AuditLog.RoleDeleted(ctx, actorID, id, role.Name)
		h.Log.Info("role deleted", zap.String("role_id", id.Hex()), zap.Int64("users_detached", detached))
	}
	h.flash(w, r, i18n.RoleDeleted)
	http.Redirect(w, r, "/roles", http.StatusSeeOther)
}
