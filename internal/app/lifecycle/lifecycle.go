// Package lifecycle implements the member operations: list, create, show,
// update, deactivate and export. Each operation checks userpolicy and
// memberrules before it writes anything, then delegates to its collaborators.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/memberhub/internal/app/policy/userpolicy"
	userstore "github.com/dalemusser/memberhub/internal/app/store/users"
	"github.com/dalemusser/memberhub/internal/app/system/memberrules"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Repository persists member records.
type Repository interface {
	memberrules.EmailChecker

	// ListCurrent and ListOld return active and inactive users. fields
	// limits the loaded attributes (bson names); nil loads everything.
	ListCurrent(ctx context.Context, fields []string) ([]models.User, error)
	ListOld(ctx context.Context, fields []string) ([]models.User, error)

	// FindByID returns (nil, nil) when no user has id.
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)

	// Create stores u including its role IDs. Create and UpdateProfile
	// return userstore.ErrDuplicateEmail when another user owns the email.
	Create(ctx context.Context, u models.User) (models.User, error)

	// UpdateProfile stores p. kindOfMember is left untouched when nil.
	UpdateProfile(ctx context.Context, id primitive.ObjectID, p models.Profile, kindOfMember *string) error

	// SetRoles replaces the user's role set with roleIDs.
	SetRoles(ctx context.Context, id primitive.ObjectID, roleIDs []primitive.ObjectID) error

	// Deactivate marks the user inactive and reports whether it was active.
	Deactivate(ctx context.Context, id primitive.ObjectID, at time.Time) (bool, error)
}

// RoleRepository resolves role IDs.
type RoleRepository interface {
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Role, error)
}

// CertificateRepository reads the certificates users hold.
type CertificateRepository interface {
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Certificate, error)
	AbbreviationsByUser(ctx context.Context, userIDs []primitive.ObjectID) (map[primitive.ObjectID][]string, error)
}

// MailingList keeps the external mailing lists in step with the members.
// Implementations may deliver asynchronously; an error means the request
// could not be accepted.
type MailingList interface {
	UpdateUserEmail(ctx context.Context, user models.User, oldEmail, newEmail string) error
	RemoveUser(ctx context.Context, user models.User) error
	Welcome(ctx context.Context, user models.User) error
}

// Auditor records administrative changes.
type Auditor interface {
	UserCreated(ctx context.Context, actorID, userID primitive.ObjectID)
	UserUpdated(ctx context.Context, actorID, userID primitive.ObjectID, fields []string)
	UserDeactivated(ctx context.Context, actorID, userID primitive.ObjectID)
	RolesChanged(ctx context.Context, actorID, userID primitive.ObjectID, roleIDs []primitive.ObjectID)
}

// Deps wires a Service. MailingList and Auditor are optional.
type Deps struct {
	Users        Repository
	Roles        RoleRepository
	Certificates CertificateRepository
	MailingList  MailingList
	Auditor      Auditor
	Log          *zap.Logger
	Now          func() time.Time
}

// Service runs the member operations.
type Service struct {
	users Repository
	roles RoleRepository
	certs CertificateRepository
	mail  MailingList
	audit Auditor
	log   *zap.Logger
	now   func() time.Time
}

// New builds a Service from d.
func New(d Deps) *Service {
	s := &Service{
		users: d.Users,
		roles: d.Roles,
		certs: d.Certificates,
		mail:  d.MailingList,
		audit: d.Auditor,
		log:   d.Log,
		now:   d.Now,
	}
	if s.mail == nil {
		s.mail = nopMailingList{}
	}
	if s.audit == nil {
		s.audit = nopAuditor{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Details is a user as shown on the profile page.
type Details struct {
	User         models.User
	Roles        []models.Role
	Certificates []models.Certificate
}

// CreateResult is a created user plus any mailing-list warnings.
type CreateResult struct {
	User     models.User
	Warnings []*ExternalServiceWarning
}

// UpdateResult reports an update. SelfEdit tells the caller whether the
// actor edited their own record, which decides where the response goes.
type UpdateResult struct {
	User     models.User
	SelfEdit bool
	Warnings []*ExternalServiceWarning
}

// DeactivateResult reports a deactivation. Changed is false when the user
// was already inactive.
type DeactivateResult struct {
	User     models.User
	Changed  bool
	Warnings []*ExternalServiceWarning
}

// ListCurrent returns the active members.
func (s *Service) ListCurrent(ctx context.Context, fields []string) ([]models.User, error) {
	return s.users.ListCurrent(ctx, fields)
}

// ListOld returns the inactive members.
func (s *Service) ListOld(ctx context.Context, fields []string) ([]models.User, error) {
	return s.users.ListOld(ctx, fields)
}

// Create validates in as an administrator submission and stores the user
// with the known roles among roleIDs in a single write.
func (s *Service) Create(ctx context.Context, actor userpolicy.Actor, in memberrules.Input, roleIDs []primitive.ObjectID) (CreateResult, error) {
	if !actor.IsAdmin() {
		return CreateResult{}, ErrUnauthorized
	}

	res, err := memberrules.Validate(ctx, in, memberrules.Options{ActorIsAdmin: true, CheckEmail: true}, s.users)
	if err != nil {
		return CreateResult{}, err
	}
	if res.HasErrors() {
		return CreateResult{}, &ValidationError{Result: res}
	}

	ids, err := s.knownRoleIDs(ctx, roleIDs)
	if err != nil {
		return CreateResult{}, err
	}
	nu := models.User{
		Profile:      in.Profile(),
		KindOfMember: in.KindOfMemberValue(),
		Status:       models.StatusActive,
	}
	if len(ids) > 0 {
		nu.RoleIDs = ids
	}

	u, err := s.users.Create(ctx, nu)
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		return CreateResult{}, emailTaken()
	}
	if err != nil {
		return CreateResult{}, fmt.Errorf("create user: %w", err)
	}
	s.audit.UserCreated(ctx, actor.ID, u.ID)
	if len(ids) > 0 {
		s.audit.RolesChanged(ctx, actor.ID, u.ID, ids)
	}

	out := CreateResult{User: u}
	if err := s.mail.Welcome(ctx, u); err != nil {
		out.Warnings = append(out.Warnings, s.warn(OpWelcome, u.ID, err))
	}
	return out, nil
}

// Show returns target's record with roles and certificates.
func (s *Service) Show(ctx context.Context, actor userpolicy.Actor, id primitive.ObjectID) (Details, error) {
	if !userpolicy.CanView(actor, userpolicy.Target{ID: id}) {
		return Details{}, ErrUnauthorized
	}
	u, err := s.load(ctx, id)
	if err != nil {
		return Details{}, err
	}

	d := Details{User: *u}
	if len(u.RoleIDs) > 0 {
		if d.Roles, err = s.roles.GetByIDs(ctx, u.RoleIDs); err != nil {
			return Details{}, fmt.Errorf("load roles: %w", err)
		}
	}
	if d.Certificates, err = s.certs.ListByUser(ctx, id); err != nil {
		return Details{}, fmt.Errorf("load certificates: %w", err)
	}
	return d, nil
}

// Update applies in to the user with id.
//
// Non-administrators may only edit themselves and may submit neither a
// kind_of_member value nor a role list. roleIDs is nil when the form carried
// no role list; for administrators nil and empty both clear the roles.
func (s *Service) Update(ctx context.Context, actor userpolicy.Actor, id primitive.ObjectID, in memberrules.Input, roleIDs []primitive.ObjectID) (UpdateResult, error) {
	isAdmin := actor.IsAdmin()
	if !userpolicy.CanEdit(actor, userpolicy.Target{ID: id}) {
		return UpdateResult{}, ErrUnauthorized
	}
	if in.HasKindOfMember() && !userpolicy.CanChangeMembershipKind(actor) {
		return UpdateResult{}, ErrUnauthorized
	}
	if roleIDs != nil && !userpolicy.CanManageRoles(actor) {
		return UpdateResult{}, ErrUnauthorized
	}

	cur, err := s.load(ctx, id)
	if err != nil {
		return UpdateResult{}, err
	}

	emailChanged := cur.Email != in.Email
	res, err := memberrules.Validate(ctx, in, memberrules.Options{
		ActorIsAdmin: isAdmin,
		CheckEmail:   emailChanged,
		ExcludeID:    id,
	}, s.users)
	if err != nil {
		return UpdateResult{}, err
	}
	if res.HasErrors() {
		return UpdateResult{}, &ValidationError{Result: res}
	}

	var ids []primitive.ObjectID
	if isAdmin {
		if ids, err = s.knownRoleIDs(ctx, roleIDs); err != nil {
			return UpdateResult{}, err
		}
	}

	profile := in.Profile()
	var kind *string
	if isAdmin {
		kind = in.KindOfMember
	}
	err = s.users.UpdateProfile(ctx, id, profile, kind)
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		return UpdateResult{}, emailTaken()
	}
	if err != nil {
		return UpdateResult{}, fmt.Errorf("update user: %w", err)
	}

	updated := *cur
	changed := changedFields(cur.Profile, profile)
	updated.Profile = profile
	if kind != nil {
		if *kind != cur.KindOfMember {
			changed = append(changed, memberrules.FieldKindOfMember)
		}
		updated.KindOfMember = *kind
	}
	s.audit.UserUpdated(ctx, actor.ID, id, changed)

	out := UpdateResult{User: updated, SelfEdit: actor.ID == id}

	if emailChanged {
		if err := s.mail.UpdateUserEmail(ctx, updated, cur.Email, in.Email); err != nil {
			out.Warnings = append(out.Warnings, s.warn(OpUpdateEmail, id, err))
		}
	}

	if isAdmin {
		if err := s.users.SetRoles(ctx, id, ids); err != nil {
			return out, fmt.Errorf("set roles: %w", err)
		}
		out.User.RoleIDs = ids
		s.audit.RolesChanged(ctx, actor.ID, id, ids)
	}
	return out, nil
}

// Deactivate moves the user to the old members and removes them from the
// mailing lists. Deactivating an inactive user succeeds without side effects.
func (s *Service) Deactivate(ctx context.Context, actor userpolicy.Actor, id primitive.ObjectID) (DeactivateResult, error) {
	if !userpolicy.CanDeactivate(actor) {
		return DeactivateResult{}, ErrUnauthorized
	}
	u, err := s.load(ctx, id)
	if err != nil {
		return DeactivateResult{}, err
	}

	at := s.now()
	changed, err := s.users.Deactivate(ctx, id, at)
	if err != nil {
		return DeactivateResult{}, fmt.Errorf("deactivate user: %w", err)
	}

	u.Status = models.StatusInactive
	out := DeactivateResult{Changed: changed}
	if !changed {
		out.User = *u
		return out, nil
	}
	u.DeactivatedAt = &at
	out.User = *u

	s.audit.UserDeactivated(ctx, actor.ID, id)
	if err := s.mail.RemoveUser(ctx, *u); err != nil {
		out.Warnings = append(out.Warnings, s.warn(OpRemoveUser, id, err))
	}
	return out, nil
}

func (s *Service) load(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}

// knownRoleIDs drops IDs that do not name an existing role and returns the
// rest in submitted order, without duplicates. The result is never nil.
func (s *Service) knownRoleIDs(ctx context.Context, ids []primitive.ObjectID) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	roles, err := s.roles.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}
	known := make(map[primitive.ObjectID]bool, len(roles))
	for _, r := range roles {
		known[r.ID] = true
	}
	for _, id := range ids {
		if known[id] {
			out = append(out, id)
			delete(known, id)
		}
	}
	return out, nil
}

func (s *Service) warn(op string, userID primitive.ObjectID, err error) *ExternalServiceWarning {
	w := &ExternalServiceWarning{Op: op, UserID: userID, Err: err}
	s.log.Warn("mailing list request not accepted",
		zap.String("op", op),
		zap.String("user_id", userID.Hex()),
		zap.Error(err))
	return w
}

func changedFields(before, after models.Profile) []string {
	var out []string
	add := func(name string, differ bool) {
		if differ {
			out = append(out, name)
		}
	}
	add("email", before.Email != after.Email)
	add("firstname", before.FirstName != after.FirstName)
	add("preposition", before.Preposition != after.Preposition)
	add("lastname", before.LastName != after.LastName)
	add("street", before.Street != after.Street)
	add("house_number", before.HouseNumber != after.HouseNumber)
	add("city", before.City != after.City)
	add("zipcode", before.ZipCode != after.ZipCode)
	add("country", before.Country != after.Country)
	add("phone_number", before.PhoneNumber != after.PhoneNumber)
	add("emergency_street", before.EmergencyStreet != after.EmergencyStreet)
	add("emergency_house_number", before.EmergencyHouseNumber != after.EmergencyHouseNumber)
	add("emergency_city", before.EmergencyCity != after.EmergencyCity)
	add("emergency_zipcode", before.EmergencyZipCode != after.EmergencyZipCode)
	add("emergency_country", before.EmergencyCountry != after.EmergencyCountry)
	add("emergency_number", before.EmergencyNumber != after.EmergencyNumber)
	add("birth_day", !before.BirthDay.Equal(after.BirthDay))
	add("gender", before.Gender != after.Gender)
	add("iban", before.IBAN != after.IBAN)
	return out
}

type nopMailingList struct{}

func (nopMailingList) UpdateUserEmail(context.Context, models.User, string, string) error {
	return nil
}
func (nopMailingList) RemoveUser(context.Context, models.User) error { return nil }
func (nopMailingList) Welcome(context.Context, models.User) error    { return nil }

type nopAuditor struct{}

func (nopAuditor) UserCreated(context.Context, primitive.ObjectID, primitive.ObjectID)     {}
func (nopAuditor) UserDeactivated(context.Context, primitive.ObjectID, primitive.ObjectID) {}
func (nopAuditor) UserUpdated(context.Context, primitive.ObjectID, primitive.ObjectID, []string) {
}
func (nopAuditor) RolesChanged(context.Context, primitive.ObjectID, primitive.ObjectID, []primitive.ObjectID) {
}
