// internal/app/features/users/helpers.go
package users

import "github.com/dalemusser/memberhub/internal/app/system/memberrules"

// formSections lays out in as the member form, attaching errs by field name.
func formSections(in memberrules.Input, errs map[string]string) []formSection {
	f := func(name, label, typ, value string, required bool) formField {
		return formField{Name: name, Label: label, Type: typ, Value: value, Error: errs[name], Required: required}
	}
	return []formSection{
		{Heading: "Personal details", Fields: []formField{
			f("firstname", "First name", "text", in.FirstName, true),
			f("preposition", "Preposition", "text", in.Preposition, false),
			f("lastname", "Last name", "text", in.LastName, true),
			f(memberrules.FieldEmail, "Email", "email", in.Email, true),
			f("phone_number", "Phone number", "tel", in.PhoneNumber, true),
			f("birth_day", "Date of birth", "date", in.BirthDay, true),
			f("gender", "Gender", "text", in.Gender, true),
			f("iban", "IBAN", "text", in.IBAN, true),
		}},
		{Heading: "Address", Fields: []formField{
			f("street", "Street", "text", in.Street, true),
			f("house_number", "House number", "text", in.HouseNumber, true),
			f("zipcode", "Zip code", "text", in.ZipCode, true),
			f("city", "City", "text", in.City, true),
			f("country", "Country", "text", in.Country, true),
		}},
		{Heading: "Emergency contact", Fields: []formField{
			f("emergency_street", "Street", "text", in.EmergencyStreet, true),
			f("emergency_house_number", "House number", "text", in.EmergencyHouseNumber, true),
			f("emergency_zipcode", "Zip code", "text", in.EmergencyZipCode, true),
			f("emergency_city", "City", "text", in.EmergencyCity, true),
			f("emergency_country", "Country", "text", in.EmergencyCountry, true),
			f("emergency_number", "Phone number", "tel", in.EmergencyNumber, true),
		}},
	}
}
