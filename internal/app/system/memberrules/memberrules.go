// Package memberrules holds the field rules a member record must satisfy
// before it is created or updated.
package memberrules

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/memberhub/internal/app/system/inputval"
	"github.com/dalemusser/memberhub/internal/app/system/normalize"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Form field names used outside the struct tags.
const (
	FieldEmail        = "email"
	FieldKindOfMember = "kind_of_member"
)

// MsgEmailTaken is the email error when another user owns the address.
const MsgEmailTaken = "That email address is already in use."

// Input is a submitted member form. KindOfMember is nil when the form did
// not carry the field at all, which is different from submitting it empty.
type Input struct {
	Email       string `form:"email" validate:"required,emailaddr,max=255" label:"Email"`
	FirstName   string `form:"firstname" validate:"required,max=100" label:"First name"`
	Preposition string `form:"preposition" validate:"max=50" label:"Preposition"`
	LastName    string `form:"lastname" validate:"required,max=100" label:"Last name"`

	Street      string `form:"street" validate:"required,max=255" label:"Street"`
	HouseNumber string `form:"house_number" validate:"required,max=20" label:"House number"`
	City        string `form:"city" validate:"required,max=100" label:"City"`
	ZipCode     string `form:"zipcode" validate:"required,max=20" label:"Zip code"`
	Country     string `form:"country" validate:"required,max=100" label:"Country"`
	PhoneNumber string `form:"phone_number" validate:"required,max=30" label:"Phone number"`

	EmergencyStreet      string `form:"emergency_street" validate:"required,max=255" label:"Emergency contact street"`
	EmergencyHouseNumber string `form:"emergency_house_number" validate:"required,max=20" label:"Emergency contact house number"`
	EmergencyCity        string `form:"emergency_city" validate:"required,max=100" label:"Emergency contact city"`
	EmergencyZipCode     string `form:"emergency_zipcode" validate:"required,max=20" label:"Emergency contact zip code"`
	EmergencyCountry     string `form:"emergency_country" validate:"required,max=100" label:"Emergency contact country"`
	EmergencyNumber      string `form:"emergency_number" validate:"required,max=30" label:"Emergency phone number"`

	BirthDay string `form:"birth_day" validate:"required,isodate" label:"Date of birth"`
	Gender   string `form:"gender" validate:"required,max=50" label:"Gender"`
	IBAN     string `form:"iban" validate:"required,max=34" label:"IBAN"`

	KindOfMember *string `form:"kind_of_member"`
}

// FromForm reads an Input from a parsed form. Values are normalized.
func FromForm(form url.Values) Input {
	in := Input{
		Email:                form.Get("email"),
		FirstName:            form.Get("firstname"),
		Preposition:          form.Get("preposition"),
		LastName:             form.Get("lastname"),
		Street:               form.Get("street"),
		HouseNumber:          form.Get("house_number"),
		City:                 form.Get("city"),
		ZipCode:              form.Get("zipcode"),
		Country:              form.Get("country"),
		PhoneNumber:          form.Get("phone_number"),
		EmergencyStreet:      form.Get("emergency_street"),
		EmergencyHouseNumber: form.Get("emergency_house_number"),
		EmergencyCity:        form.Get("emergency_city"),
		EmergencyZipCode:     form.Get("emergency_zipcode"),
		EmergencyCountry:     form.Get("emergency_country"),
		EmergencyNumber:      form.Get("emergency_number"),
		BirthDay:             form.Get("birth_day"),
		Gender:               form.Get("gender"),
		IBAN:                 form.Get("iban"),
	}
	if _, ok := form[FieldKindOfMember]; ok {
		k := form.Get(FieldKindOfMember)
		in.KindOfMember = &k
	}
	return in.Normalized()
}

// Normalized returns a copy with every field canonicalised for storage.
func (in Input) Normalized() Input {
	out := in
	out.Email = normalize.Email(in.Email)
	out.FirstName = normalize.Name(in.FirstName)
	out.Preposition = normalize.Name(in.Preposition)
	out.LastName = normalize.Name(in.LastName)
	out.Street = normalize.Name(in.Street)
	out.HouseNumber = normalize.Name(in.HouseNumber)
	out.City = normalize.Name(in.City)
	out.ZipCode = normalize.ZipCode(in.ZipCode)
	out.Country = normalize.Name(in.Country)
	out.PhoneNumber = normalize.Phone(in.PhoneNumber)
	out.EmergencyStreet = normalize.Name(in.EmergencyStreet)
	out.EmergencyHouseNumber = normalize.Name(in.EmergencyHouseNumber)
	out.EmergencyCity = normalize.Name(in.EmergencyCity)
	out.EmergencyZipCode = normalize.ZipCode(in.EmergencyZipCode)
	out.EmergencyCountry = normalize.Name(in.EmergencyCountry)
	out.EmergencyNumber = normalize.Phone(in.EmergencyNumber)
	out.BirthDay = strings.TrimSpace(in.BirthDay)
	out.Gender = normalize.Gender(in.Gender)
	out.IBAN = normalize.IBAN(in.IBAN)
	if in.KindOfMember != nil {
		k := normalize.KindOfMember(*in.KindOfMember)
		out.KindOfMember = &k
	}
	return out
}

// HasKindOfMember reports whether the form carried kind_of_member.
func (in Input) HasKindOfMember() bool { return in.KindOfMember != nil }

// Options selects the conditional rules.
type Options struct {
	// ActorIsAdmin makes kind_of_member required.
	ActorIsAdmin bool
	// CheckEmail runs the uniqueness lookup. Callers skip it when an
	// update leaves the stored email unchanged.
	CheckEmail bool
	// ExcludeID is the record being updated; zero on create.
	ExcludeID primitive.ObjectID
}

// EmailChecker answers whether another user already owns an email.
type EmailChecker interface {
	EmailExistsForOther(ctx context.Context, email string, excludeID primitive.ObjectID) (bool, error)
}

// Validate checks in against the member rules. A non-nil error means the
// uniqueness lookup failed; the rules themselves never error.
func Validate(ctx context.Context, in Input, opts Options, emails EmailChecker) (*inputval.Result, error) {
	res := inputval.Validate(in)

	if opts.ActorIsAdmin && (in.KindOfMember == nil || strings.TrimSpace(*in.KindOfMember) == "") {
		res.Add(FieldKindOfMember, "Kind of member is required.")
	}

	if opts.CheckEmail && emails != nil && !res.Has(FieldEmail) {
		taken, err := emails.EmailExistsForOther(ctx, in.Email, opts.ExcludeID)
		if err != nil {
			return res, fmt.Errorf("check email uniqueness: %w", err)
		}
		if taken {
			res.Add(FieldEmail, MsgEmailTaken)
		}
	}
	return res, nil
}

// Profile converts a validated Input into the stored profile. BirthDay must
// already have passed the isodate rule; an unparsable value yields the zero time.
func (in Input) Profile() models.Profile {
	bd, _ := time.Parse(inputval.DateLayout, in.BirthDay)
	return models.Profile{
		FirstName:            in.FirstName,
		Preposition:          in.Preposition,
		LastName:             in.LastName,
		Email:                in.Email,
		Street:               in.Street,
		HouseNumber:          in.HouseNumber,
		City:                 in.City,
		ZipCode:              in.ZipCode,
		Country:              in.Country,
		PhoneNumber:          in.PhoneNumber,
		EmergencyStreet:      in.EmergencyStreet,
		EmergencyHouseNumber: in.EmergencyHouseNumber,
		EmergencyCity:        in.EmergencyCity,
		EmergencyZipCode:     in.EmergencyZipCode,
		EmergencyCountry:     in.EmergencyCountry,
		EmergencyNumber:      in.EmergencyNumber,
		BirthDay:             bd,
		Gender:               in.Gender,
		IBAN:                 in.IBAN,
	}
}

// FromUser fills an Input from a stored user, for prefilling the edit form.
func FromUser(u models.User) Input {
	in := Input{
		Email:                u.Email,
		FirstName:            u.FirstName,
		Preposition:          u.Preposition,
		LastName:             u.LastName,
		Street:               u.Street,
		HouseNumber:          u.HouseNumber,
		City:                 u.City,
		ZipCode:              u.ZipCode,
		Country:              u.Country,
		PhoneNumber:          u.PhoneNumber,
		EmergencyStreet:      u.EmergencyStreet,
		EmergencyHouseNumber: u.EmergencyHouseNumber,
		EmergencyCity:        u.EmergencyCity,
		EmergencyZipCode:     u.EmergencyZipCode,
		EmergencyCountry:     u.EmergencyCountry,
		EmergencyNumber:      u.EmergencyNumber,
		Gender:               u.Gender,
		IBAN:                 u.IBAN,
	}
	if !u.BirthDay.IsZero() {
		in.BirthDay = u.BirthDay.Format(inputval.DateLayout)
	}
	kind := u.KindOfMember
	in.KindOfMember = &kind
	return in
}

// KindOfMemberValue returns the submitted kind_of_member, or "".
func (in Input) KindOfMemberValue() string {
	if in.KindOfMember == nil {
		return ""
	}
	return *in.KindOfMember
}
