// Package userpolicy decides who may view, edit and administer member records.
//
// Authorization rules:
//   - Administrators can view and edit every member, change membership kinds,
//     assign roles and deactivate members
//   - Any other signed-in user can only view and edit their own record
//
// The functions are pure and never fail; callers load the actor's roles first.
package userpolicy

import (
	"net/http"
	"strings"

	"github.com/dalemusser/memberhub/internal/app/system/authz"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the authorization level a stored role grants.
type Role uint8

const (
	RoleMember Role = iota
	RoleAdministrator
)

func (r Role) String() string {
	switch r {
	case RoleAdministrator:
		return models.RoleKeyAdministrator
	default:
		return "member"
	}
}

// ParseRole maps a stored role key to a Role. Unknown keys grant nothing
// beyond RoleMember.
func ParseRole(key string) Role {
	if strings.EqualFold(strings.TrimSpace(key), models.RoleKeyAdministrator) {
		return RoleAdministrator
	}
	return RoleMember
}

// Actor is the signed-in user an operation is performed for.
type Actor struct {
	ID    primitive.ObjectID
	Roles []Role
}

// NewActor builds an Actor from role keys as stored on roles.key.
func NewActor(id primitive.ObjectID, roleKeys []string) Actor {
	a := Actor{ID: id, Roles: make([]Role, 0, len(roleKeys))}
	for _, k := range roleKeys {
		a.Roles = append(a.Roles, ParseRole(k))
	}
	return a
}

// Has reports whether the actor holds role.
func (a Actor) Has(role Role) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the actor holds RoleAdministrator.
func (a Actor) IsAdmin() bool { return a.Has(RoleAdministrator) }

// Target is the member record an operation acts on.
type Target struct {
	ID primitive.ObjectID
}

func isSelf(actor Actor, target Target) bool {
	return !actor.ID.IsZero() && actor.ID == target.ID
}

// CanView reports whether actor may see target's record.
func CanView(actor Actor, target Target) bool {
	return isSelf(actor, target) || actor.IsAdmin()
}

// CanEdit reports whether actor may change target's record.
func CanEdit(actor Actor, target Target) bool {
	return isSelf(actor, target) || actor.IsAdmin()
}

// CanChangeMembershipKind reports whether actor may set kind_of_member.
func CanChangeMembershipKind(actor Actor) bool { return actor.IsAdmin() }

// CanManageRoles reports whether actor may assign roles or edit role definitions.
func CanManageRoles(actor Actor) bool { return actor.IsAdmin() }

// CanDeactivate reports whether actor may move a member to the old-members list.
func CanDeactivate(actor Actor) bool { return actor.IsAdmin() }

// CanListMembers reports whether actor may see the member lists and export.
func CanListMembers(actor Actor) bool { return actor.IsAdmin() }

// ActorFromRequest returns the Actor for the signed-in user on r.
// ok is false when nobody is signed in or the session holds a malformed ID.
func ActorFromRequest(r *http.Request) (Actor, bool) {
	_, id, ok := authz.UserCtx(r)
	if !ok {
		return Actor{}, false
	}
	return NewActor(id, authz.Roles(r)), true
}
