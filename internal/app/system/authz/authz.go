// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/memberhub/internal/app/system/auth"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the user's display name, Mongo ObjectID and a found flag.
// A missing user or a malformed session ID yields "", NilObjectID, false, so
// ok=true always means an authenticated user with a valid ObjectID.
func UserCtx(r *http.Request) (name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// corrupted session; fail closed
		return "", primitive.NilObjectID, false
	}
	return user.Name, userID, true
}

// Roles returns the signed-in user's role keys, lowercased.
func Roles(r *http.Request) []string {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(user.Roles))
	for _, role := range user.Roles {
		out = append(out, strings.ToLower(strings.TrimSpace(role)))
	}
	return out
}

// HasAnyRole reports whether the signed-in user holds any of roles.
func HasAnyRole(r *http.Request, roles ...string) bool {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return false
	}
	for _, want := range roles {
		if user.HasRole(strings.TrimSpace(want)) {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the signed-in user holds the administrator role.
func IsAdmin(r *http.Request) bool {
	return HasAnyRole(r, models.RoleKeyAdministrator)
}

// IsSelf reports whether id is the signed-in user's own ID.
func IsSelf(r *http.Request, id primitive.ObjectID) bool {
	_, uid, ok := UserCtx(r)
	return ok && !id.IsZero() && uid == id
}
