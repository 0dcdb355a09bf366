package home_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/memberhub/internal/app/features/home"
	"github.com/dalemusser/memberhub/internal/testutil"
	"go.uber.org/zap"
)

func TestServeRoot(t *testing.T) {
	handler := home.NewHandler(zap.NewNop())
	member := testutil.MemberUser()

	tests := []struct {
		name string
		user *testutil.TestUser
		want string
	}{
		{"anonymous", nil, "/login"},
		{"admin", func() *testutil.TestUser { u := testutil.AdminUser(); return &u }(), "/users"},
		{"member", &member, "/users/" + member.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.user != nil {
				req = testutil.WithUser(req, *tt.user)
			}
			rec := testutil.NewRecorder()
			handler.ServeRoot(rec, req)
			rec.AssertRedirect(t, tt.want)
		})
	}
}
