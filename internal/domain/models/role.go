// internal/domain/models/role.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RoleKeyAdministrator is the stable key of the built-in administrator role.
// Other roles are created by administrators and carry no key.
const RoleKeyAdministrator = "administrator"

// Role is a named permission group. Users reference roles through User.RoleIDs.
type Role struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Key         string             `bson:"key,omitempty" json:"key,omitempty"` // set only for built-in roles
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"-"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsBuiltIn reports whether the role is managed by the application and
// therefore cannot be renamed or deleted.
func (r Role) IsBuiltIn() bool {
	return r.Key != ""
}
