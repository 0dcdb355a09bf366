// internal/app/features/certificates/routes.go
package certificates

import (
	"github.com/dalemusser/memberhub/internal/app/system/auth"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts certificate maintenance below a member, e.g.
//
//	usersRouter.Mount("/{id}/certificates", certificates.Routes(h, sm))
//
// Administrators only.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(models.RoleKeyAdministrator))

		pr.Get("/new", h.ServeNew)
		pr.Post("/", h.HandleCreate)
		pr.Get("/{certID}/edit", h.ServeEdit)
		pr.Post("/{certID}", h.HandleEdit)
		pr.Post("/{certID}/delete", h.HandleDelete)
	})

	return r
}
