// internal/app/features/users/password.go
package users

import (
	"context"
	"errors"
	"net/http"
	"unicode/utf8"

	"github.com/dalemusser/memberhub/internal/app/lifecycle"
	"github.com/dalemusser/memberhub/internal/app/policy/userpolicy"
	"github.com/dalemusser/memberhub/internal/app/system/i18n"
	"github.com/dalemusser/memberhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

// HandleSetPassword sets the password a member signs in with. Members set
// their own; administrators may set anyone's.
func (h *Handler) HandleSetPassword(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	back := "/users/" + id.Hex()
	if !userpolicy.CanEdit(actor, userpolicy.Target{ID: id}) {
		h.fail(w, r, "set password", lifecycle.ErrUnauthorized, back)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", back)
		return
	}

	password := r.PostForm.Get("password")
	switch {
	case utf8.RuneCountInString(password) < minPasswordLen:
		h.flash(w, r, i18n.PasswordTooShort, nil)
		http.Redirect(w, r, back+"/edit", http.StatusSeeOther)
		return
	case password != r.PostForm.Get("password_confirm"):
		h.flash(w, r, i18n.PasswordMismatch, nil)
		http.Redirect(w, r, back+"/edit", http.StatusSeeOther)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "hash password failed", err, "Could not set the password.", back)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Users.SetPassword(ctx, id, string(hash)); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			err = lifecycle.ErrNotFound
		}
		h.fail(w, r, "set password", err, back)
		return
	}

	h.Log.Info("password set", zap.String("user_id", id.Hex()), zap.String("actor_id", actor.ID.Hex()))
	h.flash(w, r, i18n.PasswordChanged, nil)
	http.Redirect(w, r, back, http.StatusSeeOther)
}
