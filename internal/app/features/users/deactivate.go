// internal/app/features/users/deactivate.go
package users

import (
	"context"
	"net/http"

	"github.com/dalemusser/memberhub/internal/app/system/i18n"
	"github.com/dalemusser/memberhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleDeactivate moves a member to the old members.
func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	res, err := h.Members.Deactivate(ctx, actor, id)
	if err != nil {
		h.fail(w, r, "deactivate member", err, "/users/"+id.Hex())
		return
	}

	key := i18n.UserDeactivated
	if !res.Changed {
		key = i18n.UserAlreadyOld
	} else {
		h.Log.Info("member deactivated", zap.String("user_id", id.Hex()), zap.String("actor_id", actor.ID.Hex()))
	}
	h.flash(w, r, key, res.Warnings)
	http.Redirect(w, r, "/users/"+id.Hex(), http.StatusSeeOther)
}
