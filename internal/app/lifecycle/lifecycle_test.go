package lifecycle_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/memberhub/internal/app/lifecycle"
	"github.com/dalemusser/memberhub/internal/app/policy/userpolicy"
	"github.com/dalemusser/memberhub/internal/app/system/memberrules"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fixture struct {
	svc   *lifecycle.Service
	repo  *memRepo
	mail  *recMailingList
	audit *recAuditor
	certs *memCerts
	roles *memRoles

	adminRole primitive.ObjectID
	boardRole primitive.ObjectID
}

func newFixture(users ...models.User) *fixture {
	f := &fixture{
		repo:      newMemRepo(users...),
		mail:      &recMailingList{},
		audit:     &recAuditor{},
		certs:     &memCerts{byUser: map[primitive.ObjectID][]models.Certificate{}},
		adminRole: primitive.NewObjectID(),
		boardRole: primitive.NewObjectID(),
	}
	f.roles = &memRoles{roles: map[primitive.ObjectID]models.Role{
		f.adminRole: {ID: f.adminRole, Key: models.RoleKeyAdministrator, Name: "Administrator"},
		f.boardRole: {ID: f.boardRole, Name: "Board"},
	}}
	f.svc = lifecycle.New(lifecycle.Deps{
		Users:        f.repo,
		Roles:        f.roles,
		Certificates: f.certs,
		MailingList:  f.mail,
		Auditor:      f.audit,
		Now:          func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) },
	})
	return f
}

func member(email string) models.User {
	return models.User{
		ID: primitive.NewObjectID(),
		Profile: models.Profile{
			FirstName: "Piet", LastName: "Bakker", Email: email,
			Street: "Laan", HouseNumber: "1", City: "Delft", ZipCode: "2611 AA", Country: "NL",
			PhoneNumber: "0611111111", EmergencyStreet: "Laan", EmergencyHouseNumber: "2",
			EmergencyCity: "Delft", EmergencyZipCode: "2611 AB", EmergencyCountry: "NL",
			EmergencyNumber: "0622222222", BirthDay: time.Date(1985, 6, 1, 0, 0, 0, 0, time.UTC),
			Gender: "male", IBAN: "NL02RABO0123456789",
		},
		KindOfMember: "regular",
		Status:       models.StatusActive,
	}
}

// selfInput is what a member submits when editing their own record:
// no kind_of_member field.
func selfInput(u models.User) memberrules.Input {
	in := memberrules.FromUser(u)
	in.KindOfMember = nil
	return in
}

func adminActor() userpolicy.Actor {
	return userpolicy.NewActor(primitive.NewObjectID(), []string{models.RoleKeyAdministrator})
}

func plainActor(id primitive.ObjectID) userpolicy.Actor {
	return userpolicy.NewActor(id, nil)
}

func TestCreate_MissingKindOfMember(t *testing.T) {
	f := newFixture()
	in := memberrules.FromUser(member("a@example.com"))
	in.KindOfMember = nil

	_, err := f.svc.Create(context.Background(), adminActor(), in, nil)

	var verr *lifecycle.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := verr.Fields()[memberrules.FieldKindOfMember]; !ok {
		t.Errorf("expected error naming kind_of_member, got %v", verr.Fields())
	}
	if f.repo.writes != 0 {
		t.Errorf("expected no writes, got %d", f.repo.writes)
	}
}

func TestCreate_AttachesKnownRolesAndWelcomes(t *testing.T) {
	f := newFixture()
	in := memberrules.FromUser(member("new@example.com"))
	unknown := primitive.NewObjectID()

	res, err := f.svc.Create(context.Background(), adminActor(), in, []primitive.ObjectID{f.boardRole, unknown})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	stored := f.repo.users[res.User.ID]
	if stored == nil || stored.Status != models.StatusActive || stored.KindOfMember != "regular" {
		t.Fatalf("stored user = %+v", stored)
	}
	if len(stored.RoleIDs) != 1 || stored.RoleIDs[0] != f.boardRole {
		t.Errorf("RoleIDs = %v, want only the known board role", stored.RoleIDs)
	}
	if len(f.mail.welcomed) != 1 {
		t.Errorf("expected one welcome, got %d", len(f.mail.welcomed))
	}
	if f.repo.writes != 1 {
		t.Errorf("writes = %d, want the user and its roles stored together", f.repo.writes)
	}
}

func TestCreate_RoleLookupFailureWritesNothing(t *testing.T) {
	f := newFixture()
	f.roles.err = errors.New("roles unavailable")

	_, err := f.svc.Create(context.Background(), adminActor(), memberrules.FromUser(member("new@example.com")), []primitive.ObjectID{f.boardRole})
	if err == nil {
		t.Fatal("expected error when roles cannot be loaded")
	}
	if f.repo.writes != 0 || len(f.audit.events) != 0 || len(f.mail.welcomed) != 0 {
		t.Errorf("writes = %d, audit = %v, welcomed = %v; want nothing", f.repo.writes, f.audit.events, f.mail.welcomed)
	}
}

func TestCreate_EmailStoredConcurrently(t *testing.T) {
	f := newFixture()
	f.repo.dupEmail = true

	_, err := f.svc.Create(context.Background(), adminActor(), memberrules.FromUser(member("race@example.com")), nil)

	var verr *lifecycle.ValidationError
	if !errors.As(err, &verr) || verr.Fields()[memberrules.FieldEmail] != memberrules.MsgEmailTaken {
		t.Fatalf("expected email ValidationError, got %v", err)
	}
	if len(f.audit.events) != 0 || len(f.mail.welcomed) != 0 {
		t.Errorf("audit = %v, welcomed = %v; want nothing", f.audit.events, f.mail.welcomed)
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	existing := member("taken@example.com")
	f := newFixture(existing)

	_, err := f.svc.Create(context.Background(), adminActor(), memberrules.FromUser(member("taken@example.com")), nil)

	var verr *lifecycle.ValidationError
	if !errors.As(err, &verr) || verr.Fields()["email"] == "" {
		t.Fatalf("expected email ValidationError, got %v", err)
	}
}

func TestCreate_NonAdminRejected(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Create(context.Background(), plainActor(primitive.NewObjectID()), memberrules.FromUser(member("x@example.com")), nil)
	if !errors.Is(err, lifecycle.ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
}

func TestCreate_WelcomeFailureIsWarning(t *testing.T) {
	f := newFixture()
	f.mail.fail = true

	res, err := f.svc.Create(context.Background(), adminActor(), memberrules.FromUser(member("w@example.com")), nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Op != lifecycle.OpWelcome {
		t.Errorf("Warnings = %v", res.Warnings)
	}
	if _, ok := f.repo.users[res.User.ID]; !ok {
		t.Error("user must stay persisted when the mailing list fails")
	}
}

func TestUpdate_NonAdminOnOtherUser(t *testing.T) {
	five := member("five@example.com")
	seven := member("seven@example.com")
	f := newFixture(five, seven)

	in := selfInput(seven)
	in.FirstName = "Hacked"
	_, err := f.svc.Update(context.Background(), plainActor(five.ID), seven.ID, in, nil)

	if !errors.Is(err, lifecycle.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if f.repo.writes != 0 || f.repo.users[seven.ID].FirstName != "Piet" {
		t.Error("no field may change on a rejected update")
	}
}

func TestUpdate_NonAdminSettingKindOfMember(t *testing.T) {
	u := member("self@example.com")
	f := newFixture(u)

	in := memberrules.FromUser(u) // carries kind_of_member
	_, err := f.svc.Update(context.Background(), plainActor(u.ID), u.ID, in, nil)

	if !errors.Is(err, lifecycle.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if f.repo.writes != 0 {
		t.Errorf("writes = %d, want 0", f.repo.writes)
	}
}

func TestUpdate_NonAdminSubmittingRoles(t *testing.T) {
	u := member("self@example.com")
	f := newFixture(u)

	_, err := f.svc.Update(context.Background(), plainActor(u.ID), u.ID, selfInput(u), []primitive.ObjectID{f.adminRole})
	if !errors.Is(err, lifecycle.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if len(f.repo.users[u.ID].RoleIDs) != 0 {
		t.Error("roles must not change")
	}
}

func TestUpdate_SelfEmailChange(t *testing.T) {
	u := member("old@x.com")
	f := newFixture(u)

	in := selfInput(u)
	in.Email = "new@x.com"
	res, err := f.svc.Update(context.Background(), plainActor(u.ID), u.ID, in, nil)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if !res.SelfEdit {
		t.Error("expected SelfEdit")
	}
	if f.repo.users[u.ID].Email != "new@x.com" {
		t.Errorf("stored email = %q", f.repo.users[u.ID].Email)
	}
	if len(f.mail.emailChanges) != 1 {
		t.Fatalf("expected one email change, got %d", len(f.mail.emailChanges))
	}
	got := f.mail.emailChanges[0]
	if got.UserID != u.ID || got.Old != "old@x.com" || got.New != "new@x.com" {
		t.Errorf("email change = %+v", got)
	}
}

func TestUpdate_UnchangedEmailSkipsUniquenessAndMailingList(t *testing.T) {
	u := member("same@example.com")
	f := newFixture(u)

	in := selfInput(u)
	in.City = "Leiden"
	if _, err := f.svc.Update(context.Background(), plainActor(u.ID), u.ID, in, nil); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(f.mail.emailChanges) != 0 {
		t.Error("no mailing-list call expected for an unchanged email")
	}
	if f.repo.users[u.ID].City != "Leiden" {
		t.Error("city not updated")
	}
}

func TestUpdate_EmailTakenByOther(t *testing.T) {
	u := member("me@example.com")
	other := member("other@example.com")
	f := newFixture(u, other)

	in := selfInput(u)
	in.Email = "other@example.com"
	_, err := f.svc.Update(context.Background(), plainActor(u.ID), u.ID, in, nil)

	var verr *lifecycle.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if f.repo.writes != 0 || len(f.mail.emailChanges) != 0 {
		t.Error("nothing may be written or sent on validation failure")
	}
}

func TestUpdate_AdminRoleListReplacesExactly(t *testing.T) {
	u := member("r@example.com")
	f := newFixture(u)
	admin := adminActor()
	f.repo.users[u.ID].RoleIDs = []primitive.ObjectID{f.adminRole}

	tests := []struct {
		name  string
		roles []primitive.ObjectID
		want  []primitive.ObjectID
	}{
		{"replace", []primitive.ObjectID{f.boardRole}, []primitive.ObjectID{f.boardRole}},
		{"both", []primitive.ObjectID{f.adminRole, f.boardRole}, []primitive.ObjectID{f.adminRole, f.boardRole}},
		{"empty clears", []primitive.ObjectID{}, []primitive.ObjectID{}},
		{"nil clears", nil, []primitive.ObjectID{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.svc.Update(context.Background(), admin, u.ID, memberrules.FromUser(*f.repo.users[u.ID]), tt.roles)
			if err != nil {
				t.Fatalf("Update: %v", err)
			}
			got := f.repo.users[u.ID].RoleIDs
			if len(got) != len(tt.want) {
				t.Fatalf("RoleIDs = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("RoleIDs = %v, want %v", got, tt.want)
				}
			}
			if res.SelfEdit {
				t.Error("admin editing someone else is not a self edit")
			}
		})
	}
}

func TestUpdate_AdminChangesKindOfMember(t *testing.T) {
	u := member("k@example.com")
	f := newFixture(u)

	in := memberrules.FromUser(u)
	kind := "honorary"
	in.KindOfMember = &kind
	if _, err := f.svc.Update(context.Background(), adminActor(), u.ID, in, nil); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if f.repo.users[u.ID].KindOfMember != "honorary" {
		t.Errorf("KindOfMember = %q", f.repo.users[u.ID].KindOfMember)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Update(context.Background(), adminActor(), primitive.NewObjectID(), memberrules.FromUser(member("n@example.com")), nil)
	if !errors.Is(err, lifecycle.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdate_MailingListFailureIsWarning(t *testing.T) {
	u := member("old@example.com")
	f := newFixture(u)
	f.mail.fail = true

	in := selfInput(u)
	in.Email = "new@example.com"
	res, err := f.svc.Update(context.Background(), plainActor(u.ID), u.ID, in, nil)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(res.Warnings) != 1 || !errors.Is(res.Warnings[0], errQueueFull) {
		t.Errorf("Warnings = %v", res.Warnings)
	}
	if f.repo.users[u.ID].Email != "new@example.com" {
		t.Error("persisted change must not be rolled back")
	}
}

func TestShow(t *testing.T) {
	u := member("s@example.com")
	other := member("o@example.com")
	f := newFixture(u, other)
	f.certs.byUser[u.ID] = []models.Certificate{{Abbreviation: "FA"}}

	d, err := f.svc.Show(context.Background(), plainActor(u.ID), u.ID)
	if err != nil {
		t.Fatalf("Show self: %v", err)
	}
	if d.User.ID != u.ID || len(d.Certificates) != 1 {
		t.Errorf("Details = %+v", d)
	}

	if _, err := f.svc.Show(context.Background(), plainActor(u.ID), other.ID); !errors.Is(err, lifecycle.ErrUnauthorized) {
		t.Errorf("Show other: err = %v, want ErrUnauthorized", err)
	}
	if _, err := f.svc.Show(context.Background(), adminActor(), other.ID); err != nil {
		t.Errorf("admin Show: %v", err)
	}
	if _, err := f.svc.Show(context.Background(), adminActor(), primitive.NewObjectID()); !errors.Is(err, lifecycle.ErrNotFound) {
		t.Errorf("missing user: err = %v, want ErrNotFound", err)
	}
}

func TestDeactivate_Idempotent(t *testing.T) {
	u := member("d@example.com")
	f := newFixture(u)
	admin := adminActor()

	first, err := f.svc.Deactivate(context.Background(), admin, u.ID)
	if err != nil {
		t.Fatalf("first Deactivate: %v", err)
	}
	if !first.Changed || first.User.IsActive() {
		t.Errorf("first = %+v", first)
	}

	second, err := f.svc.Deactivate(context.Background(), admin, u.ID)
	if err != nil {
		t.Fatalf("second Deactivate: %v", err)
	}
	if second.Changed || second.User.IsActive() {
		t.Errorf("second = %+v", second)
	}
	if f.repo.users[u.ID].IsActive() {
		t.Error("user should be inactive")
	}
	if len(f.mail.removed) != 1 {
		t.Errorf("mailing-list removals = %d, want 1", len(f.mail.removed))
	}

	current, _ := f.svc.ListCurrent(context.Background(), nil)
	old, _ := f.svc.ListOld(context.Background(), nil)
	if len(current) != 0 || len(old) != 1 {
		t.Errorf("current=%d old=%d; a user is either current or old", len(current), len(old))
	}
}

func TestDeactivate_NonAdminRejected(t *testing.T) {
	u := member("d@example.com")
	f := newFixture(u)

	_, err := f.svc.Deactivate(context.Background(), plainActor(u.ID), u.ID)
	if !errors.Is(err, lifecycle.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if !f.repo.users[u.ID].IsActive() {
		t.Error("user must remain active")
	}
}

func TestExportCurrent(t *testing.T) {
	withCerts := member("one@example.com")
	without := member("two@example.com")
	gone := member("gone@example.com")
	gone.Status = models.StatusInactive
	f := newFixture(withCerts, without, gone)
	f.certs.byUser[withCerts.ID] = []models.Certificate{{Abbreviation: "CPR"}, {Abbreviation: "FA"}}

	rows, err := f.svc.ExportCurrent(context.Background())
	if err != nil {
		t.Fatalf("ExportCurrent: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}

	first := rows[0].Values()
	second := rows[1].Values()
	last := len(lifecycle.ExportColumns) - 1
	if len(first) != len(lifecycle.ExportColumns) {
		t.Fatalf("row width = %d, want %d", len(first), len(lifecycle.ExportColumns))
	}
	if first[last] != "CPR, FA" {
		t.Errorf("first certificates = %q", first[last])
	}
	if second[last] != "" {
		t.Errorf("second certificates = %q, want empty", second[last])
	}
	if first[4] != "one@example.com" || first[17] != "1985-06-01" {
		t.Errorf("first row = %v", first)
	}
}

func TestUpdate_RoleLookupFailureWritesNothing(t *testing.T) {
	u := member("r@example.com")
	f := newFixture(u)
	f.roles.err = errors.New("roles unavailable")

	in := memberrules.FromUser(u)
	in.City = "Leiden"
	_, err := f.svc.Update(context.Background(), adminActor(), u.ID, in, []primitive.ObjectID{f.boardRole})
	if err == nil {
		t.Fatal("expected error when roles cannot be loaded")
	}
	if f.repo.writes != 0 || f.repo.users[u.ID].City != "Delft" {
		t.Errorf("writes = %d, city = %q; profile must stay untouched", f.repo.writes, f.repo.users[u.ID].City)
	}
	if len(f.audit.events) != 0 {
		t.Errorf("audit = %v, want none", f.audit.events)
	}
}

func TestUpdate_EmailStoredConcurrently(t *testing.T) {
	u := member("me@example.com")
	f := newFixture(u)
	f.repo.dupEmail = true

	in := selfInput(u)
	in.Email = "race@example.com"
	_, err := f.svc.Update(context.Background(), plainActor(u.ID), u.ID, in, nil)

	var verr *lifecycle.ValidationError
	if !errors.As(err, &verr) || verr.Fields()[memberrules.FieldEmail] != memberrules.MsgEmailTaken {
		t.Fatalf("expected email ValidationError, got %v", err)
	}
	if len(f.mail.emailChanges) != 0 || len(f.audit.events) != 0 {
		t.Errorf("emailChanges = %v, audit = %v; want nothing", f.mail.emailChanges, f.audit.events)
	}
}
