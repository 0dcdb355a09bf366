// internal/app/store/agendacategories/categorystore.go
package categorystore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/memberhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrDuplicateCategory = errors.New("a category with this Dutch name already exists")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("agenda_item_categories")}
}

// List returns all categories sorted by Dutch name.
func (s *Store) List(ctx context.Context) ([]models.AgendaItemCategory, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_nl_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.AgendaItemCategory
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID loads a category. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.AgendaItemCategory, error) {
	var c models.AgendaItemCategory
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return models.AgendaItemCategory{}, err
	}
	return c, nil
}

func (s *Store) Create(ctx context.Context, c models.AgendaItemCategory) (models.AgendaItemCategory, error) {
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.NameNL = strings.TrimSpace(c.NameNL)
	c.NameNLCI = text.Fold(c.NameNL)
	c.NameEN = strings.TrimSpace(c.NameEN)
	c.CreatedAt = now
	c.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.AgendaItemCategory{}, ErrDuplicateCategory
		}
		return models.AgendaItemCategory{}, err
	}
	return c, nil
}

// Update renames a category. Returns mongo.ErrNoDocuments if not found.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, nameNL, nameEN string) error {
	nameNL = strings.TrimSpace(nameNL)
	set := bson.M{
		"name_nl":    nameNL,
		"name_nl_ci": text.Fold(nameNL),
		"name_en":    strings.TrimSpace(nameEN),
		"updated_at": time.Now().UTC(),
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateCategory
		}
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes a category. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
