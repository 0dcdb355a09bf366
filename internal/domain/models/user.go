// internal/domain/models/user.go
package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User status values. A user is always exactly one of these: current
// members are active, old members are inactive.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Profile is the part of a member record the member can edit themselves.
type Profile struct {
	FirstName   string `bson:"first_name" json:"first_name"`
	Preposition string `bson:"preposition,omitempty" json:"preposition,omitempty"` // e.g. "van", "de"
	LastName    string `bson:"last_name" json:"last_name"`
	Email       string `bson:"email" json:"email"`

	// Postal address
	Street      string `bson:"street" json:"street"`
	HouseNumber string `bson:"house_number" json:"house_number"`
	City        string `bson:"city" json:"city"`
	ZipCode     string `bson:"zip_code" json:"zip_code"`
	Country     string `bson:"country" json:"country"`
	PhoneNumber string `bson:"phone_number" json:"phone_number"`

	// Emergency contact
	EmergencyStreet      string `bson:"emergency_street" json:"emergency_street"`
	EmergencyHouseNumber string `bson:"emergency_house_number" json:"emergency_house_number"`
	EmergencyCity        string `bson:"emergency_city" json:"emergency_city"`
	EmergencyZipCode     string `bson:"emergency_zip_code" json:"emergency_zip_code"`
	EmergencyCountry     string `bson:"emergency_country" json:"emergency_country"`
	EmergencyNumber      string `bson:"emergency_number" json:"emergency_number"`

	BirthDay time.Time `bson:"birth_day" json:"birth_day"`
	Gender   string    `bson:"gender" json:"gender"`
	IBAN     string    `bson:"iban" json:"iban"`
}

// User is a member of the association. Administrators are ordinary users
// holding the administrator role.
//
// NOTE:
//   - Certificates are not embedded; they live in the certificates collection
//     keyed by user_id.
//   - Role membership is the role_ids array; see Role.
type User struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	Profile    `bson:",inline"`
	FullNameCI string `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped

	KindOfMember string               `bson:"kind_of_member,omitempty" json:"kind_of_member,omitempty"`
	Status       string               `bson:"status" json:"status"` // active | inactive
	RoleIDs      []primitive.ObjectID `bson:"role_ids,omitempty" json:"role_ids,omitempty"`

	PasswordHash string `bson:"password_hash,omitempty" json:"-"`

	CreatedAt     time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `bson:"updated_at" json:"updated_at"`
	DeactivatedAt *time.Time `bson:"deactivated_at,omitempty" json:"deactivated_at,omitempty"`
}

// FullName joins first name, preposition and last name, skipping blanks.
func (p Profile) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{p.FirstName, p.Preposition, p.LastName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// IsActive reports whether the user is a current member.
func (u User) IsActive() bool {
	return u.Status != StatusInactive
}

// HasRole reports whether roleID is among the user's roles.
func (u User) HasRole(roleID primitive.ObjectID) bool {
	for _, id := range u.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}
