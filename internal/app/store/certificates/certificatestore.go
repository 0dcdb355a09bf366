// internal/app/store/certificates/certificatestore.go
package certificatestore

import (
	"context"
	"strings"
	"time"

	"github.com/dalemusser/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("certificates")}
}

// ListByUser returns the certificates of one user sorted by name.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Certificate, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Certificate
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AbbreviationsByUser returns, per user, the abbreviations of their
// certificates in insertion order. Users without certificates are absent.
func (s *Store) AbbreviationsByUser(ctx context.Context, userIDs []primitive.ObjectID) (map[primitive.ObjectID][]string, error) {
	out := make(map[primitive.ObjectID][]string)
	if len(userIDs) == 0 {
		return out, nil
	}
	opts := options.Find().
		SetProjection(bson.M{"user_id": 1, "abbreviation": 1}).
		SetSort(bson.D{{Key: "user_id", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"user_id": bson.M{"$in": userIDs}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var row struct {
			UserID       primitive.ObjectID `bson:"user_id"`
			Abbreviation string             `bson:"abbreviation"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.UserID] = append(out[row.UserID], row.Abbreviation)
	}
	return out, cur.Err()
}

// GetByID loads a certificate. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Certificate, error) {
	var c models.Certificate
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return models.Certificate{}, err
	}
	return c, nil
}

func (s *Store) Create(ctx context.Context, c models.Certificate) (models.Certificate, error) {
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.Name = strings.TrimSpace(c.Name)
	c.Abbreviation = strings.TrimSpace(c.Abbreviation)
	c.CreatedAt = now
	c.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Certificate{}, err
	}
	return c, nil
}

// Update replaces the mutable fields of a certificate. A nil date clears it.
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, c models.Certificate) error {
	set := bson.M{
		"name":         strings.TrimSpace(c.Name),
		"abbreviation": strings.TrimSpace(c.Abbreviation),
		"updated_at":   time.Now().UTC(),
	}
	unset := bson.M{}
	if c.ObtainedOn != nil {
		set["obtained_on"] = *c.ObtainedOn
	} else {
		unset["obtained_on"] = ""
	}
	if c.ExpiresOn != nil {
		set["expires_on"] = *c.ExpiresOn
	} else {
		unset["expires_on"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	res, err := s.c.UpdateByID(ctx, id, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes a certificate. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
