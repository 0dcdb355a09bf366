// internal/domain/models/sitesettings.go
package models

// DefaultSiteName is the site name shown in the header and in outgoing mail.
const DefaultSiteName = "MemberHub"
