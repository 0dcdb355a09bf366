package mailer

import (
	"strings"
	"testing"
)

func TestBuildWelcomeEmail(t *testing.T) {
	tests := []struct {
		name        string
		lang        string
		wantSubject string
		wantGreet   string
	}{
		{"dutch", "nl", "Welkom bij MemberHub", "Hallo Anna,"},
		{"english", "en", "Welcome to MemberHub", "Hello Anna,"},
		{"unknown falls back to dutch", "de", "Welkom bij MemberHub", "Hallo Anna,"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := BuildWelcomeEmail("anna@example.com", WelcomeEmailData{
				SiteName:  "MemberHub",
				FirstName: "Anna",
				LoginURL:  "https://members.example.com/login",
				Lang:      tt.lang,
			})
			if e.To != "anna@example.com" {
				t.Errorf("To = %q", e.To)
			}
			if e.Subject != tt.wantSubject {
				t.Errorf("Subject = %q, want %q", e.Subject, tt.wantSubject)
			}
			if !strings.HasPrefix(e.TextBody, tt.wantGreet) {
				t.Errorf("TextBody should start with %q, got %q", tt.wantGreet, e.TextBody)
			}
			if !strings.Contains(e.TextBody, "https://members.example.com/login") {
				t.Error("TextBody should contain the login URL")
			}
			if !strings.Contains(e.HTMLBody, `href="https://members.example.com/login"`) {
				t.Error("HTMLBody should link to the login URL")
			}
		})
	}
}

func TestBuildWelcomeEmail_EscapesHTML(t *testing.T) {
	e := BuildWelcomeEmail("x@example.com", WelcomeEmailData{
		SiteName:  "MemberHub",
		FirstName: "<script>alert(1)</script>",
		Lang:      "en",
	})
	if strings.Contains(e.HTMLBody, "<script>") {
		t.Error("first name must be escaped in the HTML body")
	}
	if strings.Contains(e.HTMLBody, "<a href") {
		t.Error("no button without a login URL")
	}
}
