package roles_test

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	uierrors "github.com/dalemusser/memberhub/internal/app/features/errors"
	"github.com/dalemusser/memberhub/internal/app/features/roles"
	rolestore "github.com/dalemusser/memberhub/internal/app/store/roles"
	userstore "github.com/dalemusser/memberhub/internal/app/store/users"
	"github.com/dalemusser/memberhub/internal/app/system/auditlog"
	"github.com/dalemusser/memberhub/internal/app/system/auth"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/dalemusser/memberhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestHandler(t *testing.T) (*roles.Handler, *testutil.Fixtures, *observer.ObservedLogs) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	sessionMgr, err := auth.NewSessionManager("test-session-key-for-testing-only-32", "test-session", "", 24*time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}

	core, logs := observer.New(zapcore.InfoLevel)
	audit := auditlog.New(nil, zap.New(core), auditlog.Config{Auth: auditlog.Off, Admin: auditlog.Log})

	h := roles.NewHandler(db, sessionMgr, uierrors.NewErrorLogger(logger), audit, logger)
	return h, testutil.NewFixtures(t, db), logs
}

func serve(fn http.HandlerFunc, r *http.Request, params ...string) *testutil.ResponseRecorder {
	for i := 0; i+1 < len(params); i += 2 {
		r = testutil.WithChiURLParam(r, params[i], params[i+1])
	}
	rec := testutil.NewRecorder()
	func() {
		// form pages render templates that are not booted in these tests
		defer func() { _ = recover() }()
		fn(rec, r)
	}()
	return rec
}

func auditTypes(logs *observer.ObservedLogs) []string {
	var out []string
	for _, e := range logs.FilterMessage("audit event").All() {
		out = append(out, e.ContextMap()["event_type"].(string))
	}
	return out
}

func TestHandleCreate(t *testing.T) {
	h, fixtures, logs := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	form := url.Values{
		"name":        {"  Board  "},
		"description": {`<p>Runs the club</p><script>alert(1)</script>`},
	}
	rec := serve(h.HandleCreate, testutil.NewFormRequest("/roles", form, testutil.AdminUser()))

	rec.AssertRedirect(t, "/roles")

	all, err := rolestore.New(fixtures.DB()).List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 role, got %d", len(all))
	}
	if all[0].Name != "Board" {
		t.Errorf("name: got %q, want Board", all[0].Name)
	}
	if all[0].Description != "<p>Runs the club</p>" {
		t.Errorf("description not sanitized: %q", all[0].Description)
	}
	if got := auditTypes(logs); len(got) != 1 || got[0] != "role_created" {
		t.Errorf("audit events = %v", got)
	}
}

func TestHandleCreate_Invalid(t *testing.T) {
	h, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fixtures.CreateRole(ctx, "", "Board")

	tests := []struct {
		name string
		form url.Values
	}{
		{"missing name", url.Values{"name": {"  "}}},
		{"duplicate name", url.Values{"name": {"board"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h.HandleCreate, testutil.NewFormRequest("/roles", tt.form, testutil.AdminUser()))
			rec.AssertStatus(t, http.StatusUnprocessableEntity)
		})
	}
}

func TestHandleEdit(t *testing.T) {
	h, fixtures, logs := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	role := fixtures.CreateRole(ctx, "", "Board")

	form := url.Values{"name": {"Committee"}, "description": {"Plans events"}}
	rec := serve(h.HandleEdit, testutil.NewFormRequest("/roles/"+role.ID.Hex(), form, testutil.AdminUser()), "id", role.ID.Hex())

	rec.AssertRedirect(t, "/roles")
	got, err := rolestore.New(fixtures.DB()).GetByID(ctx, role.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Committee" || got.Description != "Plans events" {
		t.Errorf("got %q / %q", got.Name, got.Description)
	}
	if types := auditTypes(logs); len(types) != 1 || types[0] != "role_updated" {
		t.Errorf("audit events = %v", types)
	}
}

func TestHandleEdit_BuiltInKeepsName(t *testing.T) {
	h, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	admin := fixtures.CreateRole(ctx, models.RoleKeyAdministrator, "Administrator")
	path := "/roles/" + admin.ID.Hex()

	rec := serve(h.HandleEdit, testutil.NewFormRequest(path, url.Values{"name": {"Boss"}}, testutil.AdminUser()), "id", admin.ID.Hex())
	rec.AssertStatus(t, http.StatusUnprocessableEntity)

	form := url.Values{"name": {"Administrator"}, "description": {"Full access"}}
	rec = serve(h.HandleEdit, testutil.NewFormRequest(path, form, testutil.AdminUser()), "id", admin.ID.Hex())
	rec.AssertRedirect(t, "/roles")
}

func TestHandleEdit_NotFound(t *testing.T) {
	h, _, _ := newTestHandler(t)
	id := primitive.NewObjectID().Hex()

	rec := serve(h.HandleEdit, testutil.NewFormRequest("/roles/"+id, url.Values{"name": {"X"}}, testutil.AdminUser()), "id", id)

	rec.AssertStatus(t, http.StatusNotFound)
}

func TestHandleDelete_DetachesFromUsers(t *testing.T) {
	h, fixtures, logs := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	role := fixtures.CreateRole(ctx, "", "Board")
	u := testutil.NewMember("Anna", "anna@example.com")
	u.RoleIDs = []primitive.ObjectID{role.ID}
	u = fixtures.CreateUser(ctx, u)

	rec := serve(h.HandleDelete, testutil.NewFormRequest("/roles/"+role.ID.Hex()+"/delete", url.Values{}, testutil.AdminUser()), "id", role.ID.Hex())

	rec.AssertRedirect(t, "/roles")
	got, err := userstore.New(fixtures.DB()).GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if len(got.RoleIDs) != 0 {
		t.Errorf("role still attached: %v", got.RoleIDs)
	}
	if types := auditTypes(logs); len(types) != 1 || types[0] != "role_deleted" {
		t.Errorf("audit events = %v", types)
	}
}

func TestHandleDelete_BuiltInForbidden(t *testing.T) {
	h, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	admin := fixtures.CreateRole(ctx, models.RoleKeyAdministrator, "Administrator")

	rec := serve(h.HandleDelete, testutil.NewFormRequest("/roles/"+admin.ID.Hex()+"/delete", url.Values{}, testutil.AdminUser()), "id", admin.ID.Hex())

	rec.AssertStatus(t, http.StatusForbidden)
	if _, err := rolestore.New(fixtures.DB()).GetByID(ctx, admin.ID); err != nil {
		t.Errorf("built-in role was deleted: %v", err)
	}
}

func TestHandleDelete_Missing(t *testing.T) {
	h, _, logs := newTestHandler(t)
	id := primitive.NewObjectID().Hex()

	rec := serve(h.HandleDelete, testutil.NewFormRequest("/roles/"+id+"/delete", url.Values{}, testutil.AdminUser()), "id", id)

	rec.AssertRedirect(t, "/roles")
	if types := auditTypes(logs); len(types) != 0 {
		t.Errorf("unexpected audit events %v", types)
	}
}
