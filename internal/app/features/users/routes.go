// internal/app/features/users/routes.go
package users

import (
	"github.com/dalemusser/memberhub/internal/app/system/auth"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the member pages (typically at "/users").
//
// Lists, creation, deactivation and export are administrator-only. Show,
// edit and password are open to any signed-in user; the handlers let
// members act on their own record only.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Group(func(ar chi.Router) {
			ar.Use(sm.RequireRole(models.RoleKeyAdministrator))

			ar.Get("/", h.ServeCurrent)
			ar.Get("/old", h.ServeOld)
			ar.Get("/export", h.ServeExport)
			ar.Get("/new", h.ServeNew)
			ar.Post("/", h.HandleCreate)
			ar.Post("/{id}/deactivate", h.HandleDeactivate)
		})

		pr.Get("/{id}", h.ServeShow)
		pr.Get("/{id}/edit", h.ServeEdit)
		pr.Post("/{id}", h.HandleUpdate)
		pr.Post("/{id}/password", h.HandleSetPassword)
	})

	return r
}
