// internal/app/features/users/list.go
package users

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/memberhub/internal/app/features/errors"
	"github.com/dalemusser/memberhub/internal/app/policy/userpolicy"
	"github.com/dalemusser/memberhub/internal/app/system/inputval"
	"github.com/dalemusser/memberhub/internal/app/system/timeouts"
	"github.com/dalemusser/memberhub/internal/app/system/viewdata"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
)

// listFields are the attributes the member lists show.
var listFields = []string{
	"first_name", "preposition", "last_name", "email", "city",
	"kind_of_member", "status", "created_at", "deactivated_at",
}

// ServeCurrent renders the current members.
func (h *Handler) ServeCurrent(w http.ResponseWriter, r *http.Request) {
	h.serveList(w, r, false)
}

// ServeOld renders the old (deactivated) members.
func (h *Handler) ServeOld(w http.ResponseWriter, r *http.Request) {
	h.serveList(w, r, true)
}

func (h *Handler) serveList(w http.ResponseWriter, r *http.Request, old bool) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	if !userpolicy.CanListMembers(actor) {
		uierrors.RenderForbidden(w, r, "", "/")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list := h.Members.ListCurrent
	title := "Members"
	if old {
		list = h.Members.ListOld
		title = "Old members"
	}
	users, err := list(ctx, listFields)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list members failed", err, "A database error occurred.", "/")
		return
	}

	rows := make([]userRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, toRow(u, old))
	}

	templates.Render(w, r, "user_list", listData{
		BaseVM: viewdata.NewBaseVM(w, r, title, "/"),
		Old:    old,
		Rows:   rows,
	})
}

func toRow(u models.User, old bool) userRow {
	row := userRow{
		ID:           u.ID.Hex(),
		FullName:     u.FullName(),
		Email:        u.Email,
		City:         u.City,
		KindOfMember: u.KindOfMember,
	}
	switch {
	case old && u.DeactivatedAt != nil:
		row.Date = u.DeactivatedAt.Format(inputval.DateLayout)
	case !old && !u.CreatedAt.IsZero():
		row.Date = u.CreatedAt.Format(inputval.DateLayout)
	}
	return row
}
