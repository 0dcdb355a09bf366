// internal/app/features/roles/edit.go
package roles

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/memberhub/internal/app/features/errors"
	rolestore "github.com/dalemusser/memberhub/internal/app/store/roles"
	"github.com/dalemusser/memberhub/internal/app/system/authz"
	"github.com/dalemusser/memberhub/internal/app/system/i18n"
	"github.com/dalemusser/memberhub/internal/app/system/inputval"
	"github.com/dalemusser/memberhub/internal/app/system/timeouts"
	"github.com/dalemusser/memberhub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ServeEdit renders the edit form for one role.
func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.roleID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	role, err := h.Roles.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.RenderNotFound(w, r, "Role not found.", "/roles")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load role failed", err, "A database error occurred.", "/roles")
		return
	}

	templates.Render(w, r, "role_edit", formData{
		BaseVM:      viewdata.NewBaseVM(w, r, "Edit role", "/roles"),
		IsEdit:      true,
		ID:          id.Hex(),
		Action:      "/roles/" + id.Hex(),
		BuiltIn:     role.IsBuiltIn(),
		Name:        role.Name,
		Description: role.Description,
	})
}

// HandleEdit processes the edit form. Built-in roles keep their name.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	_, actorID, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	id, ok := h.roleID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/roles")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	cur, err := h.Roles.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.RenderNotFound(w, r, "Role not found.", "/roles")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load role failed", err, "A database error occurred.", "/roles")
		return
	}

	in := readInput(r)
	reRender := func(data formData) {
		data.BaseVM = viewdata.NewBaseVM(w, r, "Edit role", "/roles")
		data.IsEdit = true
		data.ID = id.Hex()
		data.Action = "/roles/" + id.Hex()
		data.BuiltIn = cur.IsBuiltIn()
		data.Name = in.Name
		data.Description = in.Description
		w.WriteHeader(http.StatusUnprocessableEntity)
		templates.Render(w, r, "role_edit", data)
	}

	if res := inputval.Validate(in); res.HasErrors() {
		errs := res.ByField()
		reRender(formData{NameError: errs["name"], DescriptionError: errs["description"]})
		return
	}
	if cur.IsBuiltIn() && in.Name != cur.Name {
		reRender(formData{NameError: rolestore.ErrBuiltIn.Error()})
		return
	}

	taken, err := h.Roles.NameExistsForOther(ctx, in.Name, id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "check role name failed", err, "A database error occurred.", "/roles")
		return
	}
	if taken {
		reRender(formData{NameError: errDuplicateName})
		return
	}

	err = h.Roles.Update(ctx, id, in.Name, in.Description)
	switch {
	case errors.Is(err, rolestore.ErrDuplicateRole):
		reRender(formData{NameError: errDuplicateName})
		return
	case errors.Is(err, rolestore.ErrBuiltIn):
		reRender(formData{NameError: err.Error()})
		return
	case errors.Is(err, mongo.ErrNoDocuments):
		uierrors.RenderNotFound(w, r, "Role not found.", "/roles")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "update role failed", err, "A database error occurred.", "/roles")
		return
	}

	h.AuditLog.RoleUpdated(ctx, actorID, id, in.Name)
	h.Log.Info("role updated", zap.String("role_id", id.Hex()))
	h.flash(w, r, i18n.RoleEdited)
	http.Redirect(w, r, "/roles", http.StatusSeeOther)
}
