// internal/domain/models/certificate.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Certificate is a qualification held by a single user (first aid, CPR, ...).
// The abbreviation is what appears in member exports.
type Certificate struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID `bson:"user_id" json:"user_id"`
	Name         string             `bson:"name" json:"name"`
	Abbreviation string             `bson:"abbreviation" json:"abbreviation"`
	ObtainedOn   *time.Time         `bson:"obtained_on,omitempty" json:"obtained_on,omitempty"`
	ExpiresOn    *time.Time         `bson:"expires_on,omitempty" json:"expires_on,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
