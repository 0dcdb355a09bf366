package inputval

import "testing"

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  bool
	}{
		{"plain", "secretaris@ehbo-vereniging.nl", true},
		{"dotted local part", "jan.de.vries@example.nl", true},
		{"plus tag", "penningmeester+leden@example.nl", true},
		{"single label domain", "beheer@localhost", true},

		{"empty", "", false},
		{"blank", "  ", false},
		{"no at", "jan.example.nl", false},
		{"nothing after at", "jan@", false},
		{"nothing before at", "@example.nl", false},
		{"leading dot", ".jan@example.nl", false},
		{"double dot", "jan..devries@example.nl", false},
		{"dot before domain", "jan@.example.nl", false},
		{"trailing dot in domain", "jan@example.nl.", false},
		{"display name", "Jan de Vries <jan@example.nl>", false},
		{"inner space", "jan de vries@example.nl", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidEmail(tt.email); got != tt.want {
				t.Errorf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}

func TestValidate_EmailAndDateTags(t *testing.T) {
	type memberInput struct {
		Email    string `validate:"required,emailaddr" label:"Email"`
		BirthDay string `validate:"required,isodate" label:"Birthday"`
	}

	if r := Validate(memberInput{Email: "anna@example.nl", BirthDay: "1990-04-17"}); r.HasErrors() {
		t.Fatalf("unexpected errors: %s", r.All())
	}

	r := Validate(memberInput{Email: "anna@", BirthDay: "17-04-1990"})
	if !r.Has("Email") || !r.Has("BirthDay") {
		t.Errorf("expected errors on both fields, got %v", r.ByField())
	}
}
