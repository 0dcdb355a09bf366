package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"github.com/dalemusser/memberhub/internal/app/system/inputval"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExportColumns are the headers of the member export, in row order.
var ExportColumns = []string{
	"id", "firstname", "preposition", "lastname", "email",
	"street", "house_number", "zipcode", "city", "country", "phone_number",
	"emergency_street", "emergency_house_number", "emergency_zipcode",
	"emergency_city", "emergency_country", "emergency_number",
	"birth_day", "gender", "iban", "kind_of_member", "created_at", "certificates",
}

// ExportRow is one current member flattened for a spreadsheet.
type ExportRow struct {
	User         models.User
	Certificates []string // abbreviations
}

// Values returns the row's cells in ExportColumns order. A member without
// certificates gets an empty last cell.
func (r ExportRow) Values() []string {
	u := r.User
	birthDay := ""
	if !u.BirthDay.IsZero() {
		birthDay = u.BirthDay.Format(inputval.DateLayout)
	}
	createdAt := ""
	if !u.CreatedAt.IsZero() {
		createdAt = u.CreatedAt.UTC().Format("2006-01-02 15:04:05")
	}
	return []string{
		u.ID.Hex(), u.FirstName, u.Preposition, u.LastName, u.Email,
		u.Street, u.HouseNumber, u.ZipCode, u.City, u.Country, u.PhoneNumber,
		u.EmergencyStreet, u.EmergencyHouseNumber, u.EmergencyZipCode,
		u.EmergencyCity, u.EmergencyCountry, u.EmergencyNumber,
		birthDay, u.Gender, u.IBAN, u.KindOfMember, createdAt,
		strings.Join(r.Certificates, ", "),
	}
}

// ExportCurrent builds one row per current member, in list order.
func (s *Service) ExportCurrent(ctx context.Context) ([]ExportRow, error) {
	users, err := s.users.ListCurrent(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list current users: %w", err)
	}
	if len(users) == 0 {
		return []ExportRow{}, nil
	}

	ids := make([]primitive.ObjectID, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	abbrevs, err := s.certs.AbbreviationsByUser(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load certificate abbreviations: %w", err)
	}

	rows := make([]ExportRow, len(users))
	for i, u := range users {
		rows[i] = ExportRow{User: u, Certificates: abbrevs[u.ID]}
	}
	return rows, nil
}
