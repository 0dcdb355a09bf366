// internal/app/store/roles/rolestore.go
package rolestore

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

var (
	ErrDuplicateRole = errors.New("a role with this name already exists")
	// ErrBuiltIn is returned when deleting or renaming a role the application manages.
	ErrBuiltIn = errors.New("built-in roles cannot be renamed or deleted")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("roles")}
}

// List returns all roles sorted by name.
func (s *Store) List(ctx context.Context) ([]models.Role, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Role
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID loads a role. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Role, error) {
	var r models.Role
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return models.Role{}, err
	}
	return r, nil
}

// GetByIDs loads the roles named by ids. Unknown IDs are skipped.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Role, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Role
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByKey loads a built-in role. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByKey(ctx context.Context, key string) (models.Role, error) {
	var r models.Role
	if err := s.c.FindOne(ctx, bson.M{"key": strings.ToLower(strings.TrimSpace(key))}).Decode(&r); err != nil {
		return models.Role{}, err
	}
	return r, nil
}

// Create inserts an administrator-defined role. Any Key on r is ignored.
func (s *Store) Create(ctx context.Context, r models.Role) (models.Role, error) {
	now := time.Now().UTC()
	r.ID = primitive.NewObjectID()
	r.Key = ""
	r.Name = strings.TrimSpace(r.Name)
	r.NameCI = text.Fold(r.Name)
	r.Description = strings.TrimSpace(r.Description)
	r.CreatedAt = now
	r.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, r); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Role{}, ErrDuplicateRole
		}
		return models.Role{}, err
	}
	return r, nil
}

// Update changes a role's name and description. Built-in roles keep their
// name; only the description may change.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, name, description string) error {
	cur, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if cur.IsBuiltIn() && name != cur.Name {
		return ErrBuiltIn
	}

	set := bson.M{
		"name":        name,
		"name_ci":     text.Fold(name),
		"description": strings.TrimSpace(description),
		"updated_at":  time.Now().UTC(),
	}
	if _, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set}); err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateRole
		}
		return err
	}
	return nil
}

// Delete removes an administrator-defined role. Returns the number of
// documents deleted (0 or 1). Callers also detach the role from users.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	cur, err := s.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if cur.IsBuiltIn() {
		return 0, ErrBuiltIn
	}
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "key": bson.M{"$exists": false}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// NameExistsForOther reports whether another role already uses name.
// A zero excludeID checks every role.
func (s *Store) NameExistsForOther(ctx context.Context, name string, excludeID primitive.ObjectID) (bool, error) {
	filter := bson.M{"name_ci": text.Fold(strings.TrimSpace(name))}
	if !excludeID.IsZero() {
		filter["_id"] = bson.M{"$ne": excludeID}
	}
	err := s.c.FindOne(ctx, filter).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// EnsureAdministrator creates the built-in administrator role if it is
// missing and returns it.
func (s *Store) EnsureAdministrator(ctx context.Context) (models.Role, error) {
	now := time.Now().UTC()
	name := "Administrator"
	filter := bson.M{"key": models.RoleKeyAdministrator}
	update := bson.M{"$setOnInsert": bson.M{
		"_id":        primitive.NewObjectID(),
		"key":        models.RoleKeyAdministrator,
		"name":       name,
		"name_ci":    text.Fold(name),
		"created_at": now,
		"updated_at": now,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var r models.Role
	if err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&r); err != nil {
		return models.Role{}, err
	}
	return r, nil
}
