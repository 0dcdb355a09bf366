// internal/app/features/roles/list.go
package roles

import (
	"context"
	"net/http"

	"github.com/dalemusser/memberhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/memberhub/internal/app/system/timeouts"
	"github.com/dalemusser/memberhub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
)

// ServeList renders all roles.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	roles, err := h.Roles.List(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list roles failed", err, "A database error occurred.", "/")
		return
	}

	rows := make([]roleRow, 0, len(roles))
	for _, role := range roles {
		rows = append(rows, roleRow{
			ID:          role.ID.Hex(),
			Name:        role.Name,
			Description: htmlsanitize.PrepareForDisplay(role.Description),
			BuiltIn:     role.IsBuiltIn(),
		})
	}
	templates.Render(w, r, "role_list", listData{
		BaseVM: viewdata.NewBaseVM(w, r, "Roles", "/"),
		Rows:   rows,
	})
}
