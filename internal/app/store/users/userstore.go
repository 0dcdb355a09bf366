package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/memberhub/internal/app/system/normalize"
	"github.com/dalemusser/memberhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicateEmail is returned when attempting to store an email that another user already has.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errBadStatus      = errors.New(`status must be "active"|"inactive"`)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// GetByID loads a user by ObjectID. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByID is GetByID returning (nil, nil) when no user has id.
func (s *Store) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, err := s.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	return u, err
}

// GetByIDs loads the name fields of the given users. Unknown IDs are skipped.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	opts := options.Find().SetProjection(bson.M{"first_name": 1, "preposition": 1, "last_name": 1})
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ListCurrent returns active members sorted by name. fields limits the
// loaded attributes; nil loads whole documents.
func (s *Store) ListCurrent(ctx context.Context, fields []string) ([]models.User, error) {
	return s.list(ctx, bson.M{"status": bson.M{"$ne": models.StatusInactive}}, fields)
}

// ListOld returns inactive members sorted by name.
func (s *Store) ListOld(ctx context.Context, fields []string) ([]models.User, error) {
	return s.list(ctx, bson.M{"status": models.StatusInactive}, fields)
}

func (s *Store) list(ctx context.Context, filter bson.M, fields []string) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}})
	if len(fields) > 0 {
		proj := bson.M{"_id": 1}
		for _, f := range fields {
			proj[f] = 1
		}
		opts.SetProjection(proj)
	}

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.User{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a new user after normalizing fields.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Email = normalize.Email(u.Email)
	u.FullNameCI = text.Fold(u.FullName())
	if u.Status == "" {
		u.Status = models.StatusActive
	}
	u.Status = normalize.Status(u.Status)
	if u.Status != models.StatusActive && u.Status != models.StatusInactive {
		return models.User{}, errBadStatus
	}

	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// UpdateProfile replaces the editable profile fields. kindOfMember is left
// untouched when nil.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, p models.Profile, kindOfMember *string) error {
	p.Email = normalize.Email(p.Email)
	set := bson.M{
		"first_name":             p.FirstName,
		"preposition":            p.Preposition,
		"last_name":              p.LastName,
		"full_name_ci":           text.Fold(p.FullName()),
		"email":                  p.Email,
		"street":                 p.Street,
		"house_number":           p.HouseNumber,
		"city":                   p.City,
		"zip_code":               p.ZipCode,
		"country":                p.Country,
		"phone_number":           p.PhoneNumber,
		"emergency_street":       p.EmergencyStreet,
		"emergency_house_number": p.EmergencyHouseNumber,
		"emergency_city":         p.EmergencyCity,
		"emergency_zip_code":     p.EmergencyZipCode,
		"emergency_country":      p.EmergencyCountry,
		"emergency_number":       p.EmergencyNumber,
		"birth_day":              p.BirthDay,
		"gender":                 p.Gender,
		"iban":                   p.IBAN,
		"updated_at":             time.Now(),
	}
	if kindOfMember != nil {
		set["kind_of_member"] = *kindOfMember
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetRoles replaces the user's role set. nil clears it.
func (s *Store) SetRoles(ctx context.Context, id primitive.ObjectID, roleIDs []primitive.ObjectID) error {
	if roleIDs == nil {
		roleIDs = []primitive.ObjectID{}
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"role_ids":   roleIDs,
		"updated_at": time.Now(),
	}})
	return err
}

// AddRole adds roleID to the user's roles if missing.
func (s *Store) AddRole(ctx context.Context, id, roleID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{
		"$addToSet": bson.M{"role_ids": roleID},
		"$set":      bson.M{"updated_at": time.Now()},
	})
	return err
}

// RemoveRoleFromAll pulls roleID from every user. Used when a role is deleted.
func (s *Store) RemoveRoleFromAll(ctx context.Context, roleID primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx, bson.M{"role_ids": roleID}, bson.M{"$pull": bson.M{"role_ids": roleID}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// Deactivate marks an active user inactive. It reports false, without
// error, when the user was already inactive.
func (s *Store) Deactivate(ctx context.Context, id primitive.ObjectID, at time.Time) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": bson.M{"$ne": models.StatusInactive}},
		bson.M{"$set": bson.M{
			"status":         models.StatusInactive,
			"deactivated_at": at,
			"updated_at":     at,
		}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// SetPassword stores a bcrypt hash for the user. Returns
// mongo.ErrNoDocuments if no user has id.
func (s *Store) SetPassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"password_hash": hash,
		"updated_at":    time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// EmailExistsForOther checks if an email already exists for a user other than the given ID.
// A zero excludeID checks against every user.
func (s *Store) EmailExistsForOther(ctx context.Context, email string, excludeID primitive.ObjectID) (bool, error) {
	filter := bson.M{"email": normalize.Email(email)}
	if !excludeID.IsZero() {
		filter["_id"] = bson.M{"$ne": excludeID}
	}
	err := s.c.FindOne(ctx, filter).Err()
	if err == nil {
		return true, nil
	}
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	return false, err
}
