package lifecycle

import (
	"errors"
	"fmt"

	"github.com/dalemusser/memberhub/internal/app/system/inputval"
	"github.com/dalemusser/memberhub/internal/app/system/memberrules"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrUnauthorized is returned when the actor may not perform an
	// operation. The message deliberately does not say which rule failed.
	ErrUnauthorized = errors.New("you are not authorized to perform this action")

	// ErrNotFound is returned when the target user does not exist.
	ErrNotFound = errors.New("user not found")
)

// ValidationError carries the per-field messages of a rejected submission.
// Nothing has been written when it is returned.
type ValidationError struct {
	Result *inputval.Result
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Result.All()
}

// Fields returns the first message per form field.
func (e *ValidationError) Fields() map[string]string {
	return e.Result.ByField()
}

// emailTaken reports a duplicate email caught by the unique index after the
// uniqueness check passed, as happens when two submissions race.
func emailTaken() *ValidationError {
	res := &inputval.Result{}
	res.Add(memberrules.FieldEmail, memberrules.MsgEmailTaken)
	return &ValidationError{Result: res}
}

// ExternalServiceWarning records a mailing-list call that did not go through.
// It is reported alongside a successful result and never returned as the error.
type ExternalServiceWarning struct {
	Op     string
	UserID primitive.ObjectID
	Err    error
}

func (w *ExternalServiceWarning) Error() string {
	return fmt.Sprintf("mailing list %s for user %s: %v", w.Op, w.UserID.Hex(), w.Err)
}

func (w *ExternalServiceWarning) Unwrap() error { return w.Err }

// Mailing-list operations named in warnings.
const (
	OpUpdateEmail = "update_email"
	OpRemoveUser  = "remove_user"
	OpWelcome     = "welcome"
)
