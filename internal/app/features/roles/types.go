// internal/app/features/roles/types.go
package roles

import (
	"html/template"

	"github.com/dalemusser/memberhub/internal/app/system/viewdata"
)

type roleRow struct {
	ID          string
	Name        string
	Description template.HTML
	BuiltIn     bool
}

type listData struct {
	viewdata.BaseVM
	Rows []roleRow
}

type formData struct {
	viewdata.BaseVM

	IsEdit  bool
	ID      string
	Action  string
	BuiltIn bool

	Name        string
	Description string

	NameError        string
	DescriptionError string
	Error            string
}

// roleInput defines validation rules for the role form.
type roleInput struct {
	Name        string `form:"name" validate:"required,max=100" label:"Name"`
	Description string `form:"description" validate:"max=2000" label:"Description"`
}
