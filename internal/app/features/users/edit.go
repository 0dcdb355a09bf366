// internal/app/features/users/edit.go
package users

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/memberhub/internal/app/lifecycle"
	"github.com/dalemusser/memberhub/internal/app/policy/userpolicy"
	"github.com/dalemusser/memberhub/internal/app/system/i18n"
	"github.com/dalemusser/memberhub/internal/app/system/memberrules"
	"github.com/dalemusser/memberhub/internal/app/system/timeouts"
	"github.com/dalemusser/memberhub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeEdit renders the edit form. Administrators see the kind of member
// and role fields; members editing themselves see the profile only.
func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	if !userpolicy.CanEdit(actor, userpolicy.Target{ID: id}) {
		h.fail(w, r, "edit member", lifecycle.ErrUnauthorized, "/")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	d, err := h.Members.Show(ctx, actor, id)
	if err != nil {
		h.fail(w, r, "edit member", err, "/")
		return
	}

	data := formData{
		BaseVM:       viewdata.NewBaseVM(w, r, "Edit member", "/users/"+id.Hex()),
		IsEdit:       true,
		ID:           id.Hex(),
		Action:       "/users/" + id.Hex(),
		Sections:     formSections(memberrules.FromUser(d.User), nil),
		KindOfMember: d.User.KindOfMember,
	}
	if actor.IsAdmin() {
		data.ShowAdminFields = true
		if data.Roles, err = h.roleOptions(ctx, d.User.RoleIDs); err != nil {
			h.ErrLog.LogServerError(w, r, "load roles failed", err, "A database error occurred.", "/users/"+id.Hex())
			return
		}
	}
	templates.Render(w, r, "user_edit", data)
}

// HandleUpdate processes the edit form. A member who edited their own record
// lands on their profile without a back link; any other edit returns to the
// member list with a confirmation.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/users/"+id.Hex())
		return
	}

	in := memberrules.FromForm(r.PostForm)
	roleIDs := submittedRoleIDs(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	res, err := h.Members.Update(ctx, actor, id, in, roleIDs)
	var verr *lifecycle.ValidationError
	if errors.As(err, &verr) {
		h.renderEditErrors(w, r, actor, id, in, roleIDs, verr)
		return
	}
	if err != nil {
		h.fail(w, r, "update member", err, "/users/"+id.Hex())
		return
	}

	h.Log.Info("member updated", zap.String("user_id", id.Hex()), zap.String("actor_id", actor.ID.Hex()))

	if res.SelfEdit {
		if len(res.Warnings) > 0 && h.SessionMgr != nil {
			h.SessionMgr.AddFlash(w, r, i18n.MailingListPending)
		}
		http.Redirect(w, r, "/users/"+id.Hex()+"?back=false", http.StatusSeeOther)
		return
	}
	h.flash(w, r, i18n.UserEdited, res.Warnings)
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

func (h *Handler) renderEditErrors(w http.ResponseWriter, r *http.Request, actor userpolicy.Actor, id primitive.ObjectID, in memberrules.Input, roleIDs []primitive.ObjectID, verr *lifecycle.ValidationError) {
	errs := verr.Fields()
	data := formData{
		BaseVM:       viewdata.NewBaseVM(w, r, "Edit member", "/users/"+id.Hex()),
		IsEdit:       true,
		ID:           id.Hex(),
		Action:       "/users/" + id.Hex(),
		Sections:     formSections(in, errs),
		KindOfMember: in.KindOfMemberValue(),
		KindError:    errs[memberrules.FieldKindOfMember],
	}
	if actor.IsAdmin() {
		data.ShowAdminFields = true
		opts, err := h.roleOptions(r.Context(), roleIDs)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "load roles failed", err, "A database error occurred.", "/users/"+id.Hex())
			return
		}
		data.Roles = opts
	}
	w.WriteHeader(http.StatusUnprocessableEntity)
	templates.Render(w, r, "user_edit", data)
}
