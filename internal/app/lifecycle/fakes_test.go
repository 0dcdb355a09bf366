package lifecycle_test

import (
	"context"
	"errors"
	"sort"
	"time"

	userstore "github.com/dalemusser/memberhub/internal/app/store/users"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memRepo struct {
	users  map[primitive.ObjectID]*models.User
	order  []primitive.ObjectID
	writes int

	// dupEmail makes Create and UpdateProfile fail the way the unique
	// email index does when another request stored the address first.
	dupEmail bool
}

func newMemRepo(users ...models.User) *memRepo {
	r := &memRepo{users: map[primitive.ObjectID]*models.User{}}
	for i := range users {
		u := users[i]
		r.users[u.ID] = &u
		r.order = append(r.order, u.ID)
	}
	return r
}

func (r *memRepo) list(active bool) []models.User {
	var out []models.User
	for _, id := range r.order {
		if u := r.users[id]; u.IsActive() == active {
			out = append(out, *u)
		}
	}
	return out
}

func (r *memRepo) ListCurrent(context.Context, []string) ([]models.User, error) {
	return r.list(true), nil
}

func (r *memRepo) ListOld(context.Context, []string) ([]models.User, error) {
	return r.list(false), nil
}

func (r *memRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *memRepo) Create(_ context.Context, u models.User) (models.User, error) {
	if r.dupEmail {
		return models.User{}, userstore.ErrDuplicateEmail
	}
	r.writes++
	u.ID = primitive.NewObjectID()
	u.CreatedAt = time.Now()
	r.users[u.ID] = &u
	r.order = append(r.order, u.ID)
	return u, nil
}

func (r *memRepo) UpdateProfile(_ context.Context, id primitive.ObjectID, p models.Profile, kind *string) error {
	if r.dupEmail {
		return userstore.ErrDuplicateEmail
	}
	r.writes++
	u := r.users[id]
	u.Profile = p
	if kind != nil {
		u.KindOfMember = *kind
	}
	return nil
}

func (r *memRepo) SetRoles(_ context.Context, id primitive.ObjectID, roleIDs []primitive.ObjectID) error {
	r.writes++
	r.users[id].RoleIDs = append([]primitive.ObjectID{}, roleIDs...)
	return nil
}

func (r *memRepo) Deactivate(_ context.Context, id primitive.ObjectID, at time.Time) (bool, error) {
	u := r.users[id]
	if !u.IsActive() {
		return false, nil
	}
	r.writes++
	u.Status = models.StatusInactive
	u.DeactivatedAt = &at
	return true, nil
}

func (r *memRepo) EmailExistsForOther(_ context.Context, email string, exclude primitive.ObjectID) (bool, error) {
	for id, u := range r.users {
		if u.Email == email && id != exclude {
			return true, nil
		}
	}
	return false, nil
}

type memRoles struct {
	roles map[primitive.ObjectID]models.Role
	err   error
}

func (m *memRoles) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Role, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []models.Role
	for _, id := range ids {
		if r, ok := m.roles[id]; ok {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type memCerts struct {
	byUser map[primitive.ObjectID][]models.Certificate
}

func (m *memCerts) ListByUser(_ context.Context, id primitive.ObjectID) ([]models.Certificate, error) {
	return m.byUser[id], nil
}

func (m *memCerts) AbbreviationsByUser(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID][]string, error) {
	out := map[primitive.ObjectID][]string{}
	for _, id := range ids {
		for _, c := range m.byUser[id] {
			out[id] = append(out[id], c.Abbreviation)
		}
	}
	return out, nil
}

type emailChange struct {
	UserID   primitive.ObjectID
	Old, New string
}

type recMailingList struct {
	emailChanges []emailChange
	removed      []primitive.ObjectID
	welcomed     []primitive.ObjectID
	fail         bool
}

var errQueueFull = errors.New("mail queue full")

func (m *recMailingList) UpdateUserEmail(_ context.Context, u models.User, oldEmail, newEmail string) error {
	if m.fail {
		return errQueueFull
	}
	m.emailChanges = append(m.emailChanges, emailChange{u.ID, oldEmail, newEmail})
	return nil
}

func (m *recMailingList) RemoveUser(_ context.Context, u models.User) error {
	if m.fail {
		return errQueueFull
	}
	m.removed = append(m.removed, u.ID)
	return nil
}

func (m *recMailingList) Welcome(_ context.Context, u models.User) error {
	if m.fail {
		return errQueueFull
	}
	m.welcomed = append(m.welcomed, u.ID)
	return nil
}

type recAuditor struct {
	events []string
}

func (a *recAuditor) UserCreated(context.Context, primitive.ObjectID, primitive.ObjectID) {
	a.events = append(a.events, "user_created")
}

func (a *recAuditor) UserUpdated(context.Context, primitive.ObjectID, primitive.ObjectID, []string) {
	a.events = append(a.events, "user_updated")
}

func (a *recAuditor) UserDeactivated(context.Context, primitive.ObjectID, primitive.ObjectID) {
	a.events = append(a.events, "user_deactivated")
}

func (a *recAuditor) RolesChanged(context.Context, primitive.ObjectID, primitive.ObjectID, []primitive.ObjectID) {
	a.events = append(a.events, "roles_changed")
}
