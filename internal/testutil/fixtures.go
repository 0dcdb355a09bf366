package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// NewMember returns a fully populated active member that passes the member
// rules. It is not stored.
func NewMember(firstName, email string) models.User {
	return models.User{
		ID: primitive.NewObjectID(),
		Profile: models.Profile{
			FirstName:            firstName,
			LastName:             "Jansen",
			Email:                email,
			Street:               "Kerkstraat",
			HouseNumber:          "1",
			City:                 "Utrecht",
			ZipCode:              "3511 AB",
			Country:              "Netherlands",
			PhoneNumber:          "0612345678",
			EmergencyStreet:      "Dorpsweg",
			EmergencyHouseNumber: "2",
			EmergencyCity:        "Zeist",
			EmergencyZipCode:     "3701 AA",
			EmergencyCountry:     "Netherlands",
			EmergencyNumber:      "0687654321",
			BirthDay:             time.Date(1990, 4, 17, 0, 0, 0, 0, time.UTC),
			Gender:               "female",
			IBAN:                 "NL91ABNA0417164300",
		},
		KindOfMember: "regular",
		Status:       models.StatusActive,
	}
}

// CreateUser inserts u, filling ID, FullNameCI and timestamps when unset.
func (f *Fixtures) CreateUser(ctx context.Context, u models.User) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.Status == "" {
		u.Status = models.StatusActive
	}
	u.FullNameCI = text.Fold(u.FullName())
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateMember inserts an active member built by NewMember.
func (f *Fixtures) CreateMember(ctx context.Context, firstName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, NewMember(firstName, email))
}

// CreateRole inserts a role. key is empty for administrator-defined roles.
func (f *Fixtures) CreateRole(ctx context.Context, key, name string) models.Role {
	f.t.Helper()

	now := time.Now().UTC()
	r := models.Role{
		ID:        primitive.NewObjectID(),
		Key:       key,
		Name:      name,
		NameCI:    text.Fold(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("roles").InsertOne(ctx, r); err != nil {
		f.t.Fatalf("failed to create test role: %v", err)
	}
	return r
}

// CreateCertificate inserts a certificate for userID.
func (f *Fixtures) CreateCertificate(ctx context.Context, userID primitive.ObjectID, name, abbreviation string) models.Certificate {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Certificate{
		ID:           primitive.NewObjectID(),
		UserID:       userID,
		Name:         name,
		Abbreviation: abbreviation,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("certificates").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test certificate: %v", err)
	}
	return c
}

// CreateAgendaItemCategory inserts a category with Dutch and English names.
func (f *Fixtures) CreateAgendaItemCategory(ctx context.Context, nl, en string) models.AgendaItemCategory {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.AgendaItemCategory{
		ID:        primitive.NewObjectID(),
		NameNL:    nl,
		NameNLCI:  text.Fold(nl),
		NameEN:    en,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("agenda_item_categories").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test agenda item category: %v", err)
	}
	return c
}
