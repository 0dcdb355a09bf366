package certificatestore_test

import (
	"errors"
	"testing"
	"time"

	certificatestore "github.com/dalemusser/memberhub/internal/app/store/certificates"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/dalemusser/memberhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_CreateAndListByUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := certificatestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	obtained := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if _, err := store.Create(ctx, models.Certificate{UserID: userID, Name: " First Aid ", Abbreviation: " FA ", ObtainedOn: &obtained}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.Create(ctx, models.Certificate{UserID: userID, Name: "CPR", Abbreviation: "CPR"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.Create(ctx, models.Certificate{UserID: primitive.NewObjectID(), Name: "Other", Abbreviation: "O"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := store.ListByUser(ctx, userID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 certificates, got %d", len(got))
	}
	if got[0].Name != "CPR" || got[1].Name != "First Aid" {
		t.Errorf("unexpected order/names: %q, %q", got[0].Name, got[1].Name)
	}
	if got[1].Abbreviation != "FA" {
		t.Errorf("expected trimmed abbreviation, got %q", got[1].Abbreviation)
	}
	if got[1].ObtainedOn == nil || !got[1].ObtainedOn.Equal(obtained) {
		t.Errorf("expected obtained date %v, got %v", obtained, got[1].ObtainedOn)
	}
}

func TestStore_AbbreviationsByUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := certificatestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	none := primitive.NewObjectID()
	fixtures.CreateCertificate(ctx, a, "CPR", "CPR")
	fixtures.CreateCertificate(ctx, a, "First Aid", "FA")
	fixtures.CreateCertificate(ctx, b, "Lifeguard", "LG")

	got, err := store.AbbreviationsByUser(ctx, []primitive.ObjectID{a, b, none})
	if err != nil {
		t.Fatalf("AbbreviationsByUser: %v", err)
	}
	if len(got[a]) != 2 || got[a][0] != "CPR" || got[a][1] != "FA" {
		t.Errorf("user a: got %v, want [CPR FA]", got[a])
	}
	if len(got[b]) != 1 || got[b][0] != "LG" {
		t.Errorf("user b: got %v, want [LG]", got[b])
	}
	if _, ok := got[none]; ok {
		t.Error("user without certificates should be absent")
	}

	empty, err := store.AbbreviationsByUser(ctx, nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("expected empty map, got %v, %v", empty, err)
	}
}

func TestStore_UpdateAndDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := certificatestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	expires := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c, err := store.Create(ctx, models.Certificate{UserID: primitive.NewObjectID(), Name: "CPR", Abbreviation: "CPR", ExpiresOn: &expires})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := store.Update(ctx, c.ID, models.Certificate{Name: "CPR/AED", Abbreviation: "CPR"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := store.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "CPR/AED" {
		t.Errorf("expected name updated, got %q", got.Name)
	}
	if got.ExpiresOn != nil {
		t.Errorf("expected expiry cleared, got %v", got.ExpiresOn)
	}

	if err := store.Update(ctx, primitive.NewObjectID(), models.Certificate{Name: "x"}); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("Update missing: expected ErrNoDocuments, got %v", err)
	}

	n, err := store.Delete(ctx, c.ID)
	if err != nil || n != 1 {
		t.Errorf("Delete: expected 1, nil; got %d, %v", n, err)
	}
}
