package userstore

import (
	"context"
	"errors"

	"github.com/dalemusser/memberhub/internal/app/system/auth"
	"github.com/dalemusser/memberhub/internal/app/system/timeouts"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Fetcher implements auth.UserFetcher to load fresh user data on each request.
// Role keys come from the roles collection; roles without a key contribute
// their folded name so RequireRole can match administrator-defined roles.
type Fetcher struct {
	users *mongo.Collection
	roles *mongo.Collection
}

// NewFetcher creates a UserFetcher that queries the given database.
func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{
		users: db.Collection("users"),
		roles: db.Collection("roles"),
	}
}

// FetchUser returns nil, nil when the user does not exist, is inactive or
// the ID is malformed.
func (f *Fetcher) FetchUser(ctx context.Context, userID string) (*auth.SessionUser, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	var u models.User
	proj := options.FindOne().SetProjection(bson.M{
		"_id":         1,
		"first_name":  1,
		"preposition": 1,
		"last_name":   1,
		"email":       1,
		"status":      1,
		"role_ids":    1,
	})
	if err := f.users.FindOne(ctx, bson.M{"_id": oid}, proj).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	if !u.IsActive() {
		return nil, nil
	}

	su := &auth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.FullName(),
		Email: u.Email,
	}
	if len(u.RoleIDs) == 0 {
		return su, nil
	}

	cur, err := f.roles.Find(ctx, bson.M{"_id": bson.M{"$in": u.RoleIDs}},
		options.Find().SetProjection(bson.M{"key": 1, "name_ci": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var r models.Role
		if cur.Decode(&r) != nil {
			continue
		}
		if r.Key != "" {
			su.Roles = append(su.Roles, r.Key)
		} else {
			su.Roles = append(su.Roles, r.NameCI)
		}
	}
	return su, cur.Err()
}
