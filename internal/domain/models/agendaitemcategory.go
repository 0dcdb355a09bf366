// internal/domain/models/agendaitemcategory.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AgendaItemCategory groups agenda items. Every category carries a Dutch
// and an English name.
type AgendaItemCategory struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	NameNL   string             `bson:"name_nl" json:"name_nl"`
	NameNLCI string             `bson:"name_nl_ci" json:"-"`
	NameEN   string             `bson:"name_en" json:"name_en"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Name returns the category name for the given language ("nl" or "en"),
// falling back to Dutch.
func (c AgendaItemCategory) Name(lang string) string {
	if lang == "en" && c.NameEN != "" {
		return c.NameEN
	}
	return c.NameNL
}
