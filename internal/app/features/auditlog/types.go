// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/dalemusser/memberhub/internal/app/store/audit"
	"github.com/dalemusser/memberhub/internal/app/system/viewdata"
)

// listItem is one audit event row.
type listItem struct {
	Timestamp  time.Time
	Category   string
	EventType  string
	ActorName  string
	TargetName string
	IP         string
	Success    bool
	Reason     string
	Details    map[string]string
}

type listData struct {
	viewdata.BaseVM

	Items []listItem

	Category  string
	EventType string
	StartDate string
	EndDate   string

	Categories []categoryOption
	EventTypes []string

	Page       int
	TotalPages int
	Total      int64
	HasPrev    bool
	HasNext    bool
	PrevPage   int
	NextPage   int
}

type categoryOption struct {
	Value string
	Label string
}

func allCategories() []categoryOption {
	return []categoryOption{
		{Value: audit.CategoryAuth, Label: "Authentication"},
		{Value: audit.CategoryAdmin, Label: "Administration"},
		{Value: audit.CategoryMail, Label: "Mailing list"},
	}
}

var (
	authEvents = []string{
		audit.EventLoginSuccess,
		audit.EventLoginFailedUserNotFound,
		audit.EventLoginFailedWrongPassword,
		audit.EventLoginFailedUserInactive,
		audit.EventLoginFailedRateLimit,
		audit.EventLogout,
	}
	adminEvents = []string{
		audit.EventUserCreated,
		audit.EventUserUpdated,
		audit.EventUserDeactivated,
		audit.EventRolesChanged,
		audit.EventRoleCreated,
		audit.EventRoleUpdated,
		audit.EventRoleDeleted,
	}
	mailEvents = []string{
		audit.EventMailingListFailed,
	}
)

// eventTypesForCategory returns the event types of category, or all of
// them for the empty category.
func eventTypesForCategory(category string) []string {
	switch category {
	case audit.CategoryAuth:
		return authEvents
	case audit.CategoryAdmin:
		return adminEvents
	case audit.CategoryMail:
		return mailEvents
	case "":
		all := make([]string, 0, len(authEvents)+len(adminEvents)+len(mailEvents))
		all = append(all, authEvents...)
		all = append(all, adminEvents...)
		return append(all, mailEvents...)
	}
	return nil
}
