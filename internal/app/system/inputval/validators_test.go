package inputval

import "testing"

func TestIsValidDate(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"1990-04-17", true},
		{"2000-02-29", true},  // leap day
		{"1900-02-29", false}, // not a leap year
		{"2023-13-01", false},
		{"2023-04-31", false},
		{"17-04-1990", false},
		{"1990-4-17", false},
		{"", false},
		{"1990-04-17T00:00:00Z", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := IsValidDate(tt.in); got != tt.want {
				t.Errorf("IsValidDate(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsValidObjectID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		// Valid ObjectIDs (24 hex characters)
		{"507f1f77bcf86cd799439011", true},
		{"000000000000000000000000", true},
		{"ffffffffffffffffffffffff", true},
		{"FFFFFFFFFFFFFFFFFFFFFFFF", true}, // uppercase hex is valid

		// Valid with whitespace (trimmed)
		{"  507f1f77bcf86cd799439011  ", true},

		// Invalid ObjectIDs
		{"", false},
		{"   ", false},
		{"507f1f77bcf86cd79943901", false},   // too short (23 chars)
		{"507f1f77bcf86cd7994390111", false}, // too long (25 chars)
		{"507f1f77bcf86cd79943901g", false},  // invalid hex char
		{"not-a-valid-id", false},
		{"12345", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got := IsValidObjectID(tt.id)
			if got != tt.want {
				t.Errorf("IsValidObjectID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	type TestInput struct {
		Name  string `validate:"required,max=10" label:"Full name"`
		Email string `validate:"required,emailaddr" label:"Email address"`
	}

	tests := []struct {
		name       string
		input      TestInput
		wantErrors bool
		wantFirst  string
	}{
		{
			name:       "valid input",
			input:      TestInput{Name: "John", Email: "john@example.com"},
			wantErrors: false,
		},
		{
			name:       "missing name",
			input:      TestInput{Name: "", Email: "john@example.com"},
			wantErrors: true,
			wantFirst:  "Full name is required.",
		},
		{
			name:       "name too long",
			input:      TestInput{Name: "VeryLongNameThatExceedsLimit", Email: "john@example.com"},
			wantErrors: true,
			wantFirst:  "Full name must be at most 10 characters.",
		},
		{
			name:       "invalid email",
			input:      TestInput{Name: "John", Email: "not-an-email"},
			wantErrors: true,
			wantFirst:  "A valid email address is required.",
		},
		{
			name:       "missing both",
			input:      TestInput{Name: "", Email: ""},
			wantErrors: true,
			wantFirst:  "Full name is required.", // First error
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.input)

			if result.HasErrors() != tt.wantErrors {
				t.Errorf("Validate() HasErrors = %v, want %v", result.HasErrors(), tt.wantErrors)
			}

			if tt.wantErrors && result.First() != tt.wantFirst {
				t.Errorf("Validate() First() = %q, want %q", result.First(), tt.wantFirst)
			}
		})
	}
}

func TestResult_All(t *testing.T) {
	t.Run("no errors", func(t *testing.T) {
		r := &Result{}
		if r.All() != "" {
			t.Errorf("All() = %q, want empty", r.All())
		}
	})

	t.Run("one error", func(t *testing.T) {
		r := &Result{
			Errors: []FieldError{{Message: "Error 1"}},
		}
		if r.All() != "Error 1" {
			t.Errorf("All() = %q, want %q", r.All(), "Error 1")
		}
	})

	t.Run("multiple errors", func(t *testing.T) {
		r := &Result{
			Errors: []FieldError{
				{Message: "Error 1"},
				{Message: "Error 2"},
			},
		}
		want := "Error 1; Error 2"
		if r.All() != want {
			t.Errorf("All() = %q, want %q", r.All(), want)
		}
	})
}

func TestResult_First(t *testing.T) {
	t.Run("no errors", func(t *testing.T) {
		r := &Result{}
		if r.First() != "" {
			t.Errorf("First() = %q, want empty", r.First())
		}
	})

	t.Run("with errors", func(t *testing.T) {
		r := &Result{
			Errors: []FieldError{
				{Message: "First error"},
				{Message: "Second error"},
			},
		}
		if r.First() != "First error" {
			t.Errorf("First() = %q, want %q", r.First(), "First error")
		}
	})
}

func TestResult_ByField(t *testing.T) {
	type Input struct {
		Email     string `form:"email" validate:"required,emailaddr" label:"Email"`
		BirthDay  string `form:"birth_day" validate:"required,isodate" label:"Date of birth"`
		FirstName string `validate:"required" label:"First name"`
	}

	r := Validate(Input{Email: "x", BirthDay: "1990-02-30"})
	got := r.ByField()

	if got["email"] != "A valid email address is required." {
		t.Errorf("email = %q", got["email"])
	}
	if got["birth_day"] != "Date of birth must be a valid date (YYYY-MM-DD)." {
		t.Errorf("birth_day = %q", got["birth_day"])
	}
	// no form tag falls back to the Go field name
	if got["FirstName"] != "First name is required." {
		t.Errorf("FirstName = %q", got["FirstName"])
	}
	if !r.Has("email") || r.Has("zipcode") {
		t.Errorf("Has() mismatch: %+v", r.Errors)
	}
}

func TestResult_Add(t *testing.T) {
	r := &Result{}
	r.Add("email", "That email address is already in use.")
	if !r.HasErrors() || r.ByField()["email"] != "That email address is already in use." {
		t.Errorf("Add() not reflected: %+v", r.Errors)
	}
}

func TestValidate_Pointer(t *testing.T) {
	type Input struct {
		ID string `form:"id" validate:"required,objectid" label:"Role"`
	}

	r := Validate(&Input{ID: "nope"})
	if r.ByField()["id"] != "Role is not a valid identifier." {
		t.Errorf("ByField = %v", r.ByField())
	}
	if Validate(&Input{ID: "507f1f77bcf86cd799439011"}).HasErrors() {
		t.Error("valid ObjectID rejected")
	}
}
