// internal/app/features/users/view.go
package users

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/memberhub/internal/app/policy/userpolicy"
	"github.com/dalemusser/memberhub/internal/app/system/inputval"
	"github.com/dalemusser/memberhub/internal/app/system/navigation"
	"github.com/dalemusser/memberhub/internal/app/system/timeouts"
	"github.com/dalemusser/memberhub/internal/app/system/viewdata"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
)

// ServeShow renders a member's profile. Members may only see themselves.
func (h *Handler) ServeShow(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	d, err := h.Members.Show(ctx, actor, id)
	if err != nil {
		h.fail(w, r, "show member", err, "/")
		return
	}

	certs := make([]certificateRow, 0, len(d.Certificates))
	for _, c := range d.Certificates {
		certs = append(certs, certificateRow{
			ID:           c.ID.Hex(),
			Name:         c.Name,
			Abbreviation: c.Abbreviation,
			ObtainedOn:   formatDate(c.ObtainedOn),
			ExpiresOn:    formatDate(c.ExpiresOn),
		})
	}

	back := navigation.SafeBackURL(r, navigation.UsersBackURL)
	if d.User.Status == models.StatusInactive {
		back = "/users/old"
	}
	data := showData{
		BaseVM:         viewdata.NewBaseVM(w, r, d.User.FullName(), back),
		User:           d.User,
		Roles:          d.Roles,
		Certificates:   certs,
		ShowBack:       actor.IsAdmin() && query.Get(r, "back") != "false",
		CanEdit:        userpolicy.CanEdit(actor, userpolicy.Target{ID: id}),
		CanDeactivate:  userpolicy.CanDeactivate(actor) && d.User.IsActive(),
		CanManageCerts: actor.IsAdmin(),
		IsOld:          !d.User.IsActive(),
	}
	if !d.User.BirthDay.IsZero() {
		data.BirthDay = d.User.BirthDay.Format(inputval.DateLayout)
	}
	templates.Render(w, r, "user_show", data)
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(inputval.DateLayout)
}
