package viewdata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/memberhub/internal/app/system/i18n"
	"github.com/dalemusser/memberhub/internal/testutil"
)

func TestNewBaseVM_Anonymous(t *testing.T) {
	Init("", nil)
	req := httptest.NewRequest("GET", "/login", nil)

	vm := NewBaseVM(httptest.NewRecorder(), req, "Sign in", "/")

	if vm.IsLoggedIn || vm.IsAdmin {
		t.Errorf("anonymous request should not be signed in: %+v", vm)
	}
	if vm.SiteName == "" {
		t.Error("SiteName should fall back to the default")
	}
	if vm.Title != "Sign in" {
		t.Errorf("Title: got %q", vm.Title)
	}
	if vm.Lang != i18n.Default() {
		t.Errorf("Lang: got %q, want %q", vm.Lang, i18n.Default())
	}
}

func TestNewBaseVM_Admin(t *testing.T) {
	Init("Scouting Ons Dorp", nil)
	defer Init("", nil)

	admin := testutil.AdminUser()
	req := testutil.NewAuthenticatedRequest("GET", "/users", admin)

	vm := NewBaseVM(httptest.NewRecorder(), req, "Members", "/users")

	if !vm.IsLoggedIn || !vm.IsAdmin {
		t.Errorf("expected signed-in admin, got %+v", vm)
	}
	if vm.UserID != admin.ID || vm.UserName != admin.Name {
		t.Errorf("user fields: got %q/%q", vm.UserID, vm.UserName)
	}
	if vm.SiteName != "Scouting Ons Dorp" {
		t.Errorf("SiteName: got %q", vm.SiteName)
	}
}

func TestNewBaseVM_MemberIsNotAdmin(t *testing.T) {
	req := testutil.NewAuthenticatedRequest("GET", "/users/x", testutil.MemberUser())

	vm := NewBaseVM(httptest.NewRecorder(), req, "Profile", "/")

	if !vm.IsLoggedIn {
		t.Error("expected signed in")
	}
	if vm.IsAdmin {
		t.Error("member should not be admin")
	}
}

func TestNewBaseVM_TranslatesFlashes(t *testing.T) {
	Init("", func(http.ResponseWriter, *http.Request) []string {
		return []string{i18n.UserEdited, i18n.UserAdded}
	})
	defer Init("", nil)

	var vm BaseVM
	h := i18n.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		vm = NewBaseVM(w, r, "", "/")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/users?lang=en", nil))

	want := []string{"Member has been updated.", "Member has been added."}
	if len(vm.Flashes) != len(want) {
		t.Fatalf("Flashes: got %v, want %v", vm.Flashes, want)
	}
	for i := range want {
		if vm.Flashes[i] != want[i] {
			t.Errorf("Flashes[%d]: got %q, want %q", i, vm.Flashes[i], want[i])
		}
	}
	if got := vm.T(i18n.UserDeactivated); got != "Member has been moved to old members." {
		t.Errorf("T: got %q", got)
	}
}
