// internal/app/features/roles/new.go
package roles

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/memberhub/internal/app/features/errors"
	rolestore "github.com/dalemusser/memberhub/internal/app/store/roles"
	"github.com/dalemusser/memberhub/internal/app/system/authz"
	"github.com/dalemusser/memberhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/memberhub/internal/app/system/i18n"
	"github.com/dalemusser/memberhub/internal/app/system/inputval"
	"github.com/dalemusser/memberhub/internal/app/system/normalize"
	"github.com/dalemusser/memberhub/internal/app/system/timeouts"
	"github.com/dalemusser/memberhub/internal/app/system/viewdata"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const errDuplicateName = "A role with this name already exists."

// ServeNew renders the "Add role" form.
func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "role_new", formData{
		BaseVM: viewdata.NewBaseVM(w, r, "Add role", "/roles"),
		Action: "/roles",
	})
}

// HandleCreate processes the "Add role" form.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	_, actorID, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/roles")
		return
	}

	in := readInput(r)
	reRender := func(data formData) {
		data.BaseVM = viewdata.NewBaseVM(w, r, "Add role", "/roles")
		data.Action = "/roles"
		data.Name = in.Name
		data.Description = in.Description
		w.WriteHeader(http.StatusUnprocessableEntity)
		templates.Render(w, r, "role_new", data)
	}

	if res := inputval.Validate(in); res.HasErrors() {
		errs := res.ByField()
		reRender(formData{NameError: errs["name"], DescriptionError: errs["description"]})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	taken, err := h.Roles.NameExistsForOther(ctx, in.Name, primitive.NilObjectID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "check role name failed", err, "A database error occurred.", "/roles")
		return
	}
	if taken {
		reRender(formData{NameError: errDuplicateName})
		return
	}

	role, err := h.Roles.Create(ctx, models.Role{Name: in.Name, Description: in.Description})
	if errors.Is(err, rolestore.ErrDuplicateRole) {
		reRender(formData{NameError: errDuplicateName})
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create role failed", err, "A database error occurred.", "/roles")
		return
	}

	h.AuditLog.RoleCreated(ctx, actorID, role.ID, role.Name)
	h.Log.Info("role created", zap.String("role_id", role.ID.Hex()), zap.String("name", role.Name))
	h.flash(w, r, i18n.RoleAdded)
	http.Redirect(w, r, "/roles", http.StatusSeeOther)
}

// readInput reads the role form. The description is sanitized here so the
// stored value is always safe to render.
func readInput(r *http.Request) roleInput {
	return roleInput{
		Name:        normalize.Name(r.PostForm.Get("name")),
		Description: strings.TrimSpace(htmlsanitize.Sanitize(r.PostForm.Get("description"))),
	}
}
