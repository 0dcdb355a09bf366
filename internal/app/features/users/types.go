// internal/app/features/users/types.go
package users

import (
	"github.com/dalemusser/memberhub/internal/app/system/viewdata"
	"github.com/dalemusser/memberhub/internal/domain/models"
)

// Row used in the member lists.
type userRow struct {
	ID           string
	FullName     string
	Email        string
	City         string
	KindOfMember string
	Date         string // member since, or left on for old members
}

type listData struct {
	viewdata.BaseVM
	Old  bool
	Rows []userRow
}

type roleOption struct {
	ID      string
	Name    string
	Checked bool
}

// formField is one input of the member form.
type formField struct {
	Name     string
	Label    string
	Type     string
	Value    string
	Error    string
	Required bool
}

// formSection groups fields under a heading.
type formSection struct {
	Heading string
	Fields  []formField
}

// Form view model for the new and edit pages.
type formData struct {
	viewdata.BaseVM

	IsEdit bool
	ID     string
	Action string

	Sections     []formSection
	KindOfMember string
	KindError    string

	// Administrator-only parts of the form.
	ShowAdminFields bool
	Roles           []roleOption
}

type certificateRow struct {
	ID           string
	Name         string
	Abbreviation string
	ObtainedOn   string
	ExpiresOn    string
}

type showData struct {
	viewdata.BaseVM

	User         models.User
	BirthDay     string
	Roles        []models.Role
	Certificates []certificateRow

	ShowBack       bool
	CanEdit        bool
	CanDeactivate  bool
	CanManageCerts bool
	IsOld          bool
}
