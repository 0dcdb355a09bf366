// internal/app/features/users/new.go
package users

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/memberhub/internal/app/features/errors"
	"github.com/dalemusser/memberhub/internal/app/lifecycle"
	"github.com/dalemusser/memberhub/internal/app/system/i18n"
	"github.com/dalemusser/memberhub/internal/app/system/memberrules"
	"github.com/dalemusser/memberhub/internal/app/system/timeouts"
	"github.com/dalemusser/memberhub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeNew renders the "Add member" form.
func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	if !actor.IsAdmin() {
		uierrors.RenderForbidden(w, r, "", "/")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	opts, err := h.roleOptions(ctx, nil)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load roles failed", err, "A database error occurred.", "/users")
		return
	}
	templates.Render(w, r, "user_new", formData{
		BaseVM:          viewdata.NewBaseVM(w, r, "Add member", "/users"),
		Action:          "/users",
		Sections:        formSections(memberrules.Input{}, nil),
		ShowAdminFields: true,
		Roles:           opts,
	})
}

// HandleCreate processes the "Add member" form.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/users")
		return
	}

	in := memberrules.FromForm(r.PostForm)
	roleIDs := submittedRoleIDs(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	res, err := h.Members.Create(ctx, actor, in, roleIDs)
	var verr *lifecycle.ValidationError
	if errors.As(err, &verr) {
		errs := verr.Fields()
		opts, oerr := h.roleOptions(ctx, roleIDs)
		if oerr != nil {
			h.ErrLog.LogServerError(w, r, "load roles failed", oerr, "A database error occurred.", "/users")
			return
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		templates.Render(w, r, "user_new", formData{
			BaseVM:          viewdata.NewBaseVM(w, r, "Add member", "/users"),
			Action:          "/users",
			Sections:        formSections(in, errs),
			KindOfMember:    in.KindOfMemberValue(),
			KindError:       errs[memberrules.FieldKindOfMember],
			ShowAdminFields: true,
			Roles:           opts,
		})
		return
	}
	if err != nil {
		h.fail(w, r, "create member", err, "/users")
		return
	}

	h.Log.Info("member created", zap.String("user_id", res.User.ID.Hex()), zap.String("actor_id", actor.ID.Hex()))
	h.flash(w, r, i18n.UserAdded, res.Warnings)
	http.Redirect(w, r, "/users/"+res.User.ID.Hex(), http.StatusSeeOther)
}

// roleOptions lists every role, marking those in checked.
func (h *Handler) roleOptions(ctx context.Context, checked []primitive.ObjectID) ([]roleOption, error) {
	roles, err := h.Roles.List(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[primitive.ObjectID]bool, len(checked))
	for _, id := range checked {
		set[id] = true
	}
	out := make([]roleOption, 0, len(roles))
	for _, role := range roles {
		out = append(out, roleOption{ID: role.ID.Hex(), Name: role.Name, Checked: set[role.ID]})
	}
	return out, nil
}
