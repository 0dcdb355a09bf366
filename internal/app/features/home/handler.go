package home

import (
	"net/http"

	"github.com/dalemusser/memberhub/internal/app/system/authz"
	"go.uber.org/zap"
)

// Handler serves the site root.
type Handler struct {
	Log *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{Log: logger}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET / – landing                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeRoot sends administrators to the member list, members to their own
// profile and everyone else to the sign-in page.
func (h *Handler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	_, id, ok := authz.UserCtx(r)
	switch {
	case !ok:
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	case authz.IsAdmin(r):
		http.Redirect(w, r, "/users", http.StatusSeeOther)
	default:
		http.Redirect(w, r, "/users/"+id.Hex(), http.StatusSeeOther)
	}
}
