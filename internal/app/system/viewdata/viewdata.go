// internal/app/system/viewdata/viewdata.go
package viewdata

import (
	"net/http"
	"sync"

	"github.com/dalemusser/memberhub/internal/app/system/authz"
	"github.com/dalemusser/memberhub/internal/app/system/i18n"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/gorilla/csrf"
)

// BaseVM contains common fields for all view models.
// Embed this struct in your feature-specific view models.
//
// Usage:
//
//	type myPageData struct {
//	    viewdata.BaseVM
//	    // page-specific fields...
//	}
//
//	data := myPageData{
//	    BaseVM: viewdata.NewBaseVM(w, r, "Page Title", "/default-back"),
//	    // page-specific fields...
//	}
type BaseVM struct {
	SiteName string

	// User context (from auth middleware)
	IsLoggedIn bool
	IsAdmin    bool
	UserName   string
	UserID     string

	// Page context
	Lang        string
	Title       string
	BackURL     string
	CurrentPath string

	// CSRF protection
	CSRFToken string

	// Flashes are the translated one-shot messages queued by the previous request.
	Flashes []string
}

// FlashSource pops the message keys queued for the current session.
type FlashSource func(w http.ResponseWriter, r *http.Request) []string

var (
	mu       sync.RWMutex
	siteName = models.DefaultSiteName
	flashes  FlashSource
)

// Init sets the site name and the flash source. Call this once at startup
// from bootstrap; an empty name keeps the default.
func Init(name string, src FlashSource) {
	mu.Lock()
	defer mu.Unlock()
	if name != "" {
		siteName = name
	}
	flashes = src
}

// SiteName returns the configured site name.
func SiteName() string {
	mu.RLock()
	defer mu.RUnlock()
	return siteName
}

// NewBaseVM creates a fully populated BaseVM for a page.
//
// Parameters:
//   - w, r: the response (needed to clear popped flashes) and request
//   - title: the page title
//   - backDefault: default URL for the back button if none in request
func NewBaseVM(w http.ResponseWriter, r *http.Request, title, backDefault string) BaseVM {
	name, id, signedIn := authz.UserCtx(r)

	mu.RLock()
	src := flashes
	vm := BaseVM{SiteName: siteName}
	mu.RUnlock()

	vm.IsLoggedIn = signedIn
	vm.IsAdmin = signedIn && authz.IsAdmin(r)
	vm.UserName = name
	if signedIn {
		vm.UserID = id.Hex()
	}
	vm.Lang = i18n.FromRequest(r)
	vm.Title = title
	vm.BackURL = httpnav.ResolveBackURL(r, backDefault)
	vm.CurrentPath = httpnav.CurrentPath(r)
	vm.CSRFToken = csrf.Token(r)

	if src != nil && w != nil {
		for _, key := range src(w, r) {
			vm.Flashes = append(vm.Flashes, i18n.T(vm.Lang, key))
		}
	}
	return vm
}

// T translates key into the page language.
func (vm BaseVM) T(key string, args ...any) string {
	return i18n.T(vm.Lang, key, args...)
}
