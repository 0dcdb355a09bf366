package i18n

type msg struct{ nl, en string }

// Message keys.
const (
	UserAdded       = "user.added"
	UserEdited      = "user.edited"
	UserDeactivated = "user.deactivated"
	UserAlreadyOld  = "user.already_old"

	RoleAdded   = "role.added"
	RoleEdited  = "role.edited"
	RoleDeleted = "role.deleted"

	CertificateAdded   = "certificate.added"
	CertificateEdited  = "certificate.edited"
	CertificateDeleted = "certificate.deleted"

	CategoryAdded   = "category.added"
	CategoryEdited  = "category.edited"
	CategoryDeleted = "category.deleted"

	MailingListPending = "mailinglist.pending"

	PasswordChanged  = "password.changed"
	PasswordTooShort = "password.too_short"
	PasswordMismatch = "password.mismatch"

	LoginInvalid   = "login.invalid"
	LoginInactive  = "login.inactive"
	LoginThrottled = "login.throttled"
	LoggedOut      = "login.logged_out"

	Unauthorized = "validation.unauthorized"
)

var messages = map[string]msg{
	UserAdded:       {"Lid is toegevoegd.", "Member has been added."},
	UserEdited:      {"Lid is gewijzigd.", "Member has been updated."},
	UserDeactivated: {"Lid is verplaatst naar oud-leden.", "Member has been moved to old members."},
	UserAlreadyOld:  {"Lid stond al bij de oud-leden.", "Member was already an old member."},

	RoleAdded:   {"Rol is toegevoegd.", "Role has been added."},
	RoleEdited:  {"Rol is gewijzigd.", "Role has been updated."},
	RoleDeleted: {"Rol is verwijderd.", "Role has been deleted."},

	CertificateAdded:   {"Certificaat is toegevoegd.", "Certificate has been added."},
	CertificateEdited:  {"Certificaat is gewijzigd.", "Certificate has been updated."},
	CertificateDeleted: {"Certificaat is verwijderd.", "Certificate has been deleted."},

	CategoryAdded:   {"Categorie is toegevoegd.", "Category has been added."},
	CategoryEdited:  {"Categorie is gewijzigd.", "Category has been updated."},
	CategoryDeleted: {"Categorie is verwijderd.", "Category has been deleted."},

	MailingListPending: {
		"De mailinglijsten konden niet worden bijgewerkt. Controleer ze handmatig.",
		"The mailing lists could not be updated. Please check them manually.",
	},

	PasswordChanged:  {"Wachtwoord is gewijzigd.", "Password has been changed."},
	PasswordTooShort: {"Het wachtwoord moet minstens 8 tekens lang zijn.", "The password must be at least 8 characters long."},
	PasswordMismatch: {"De wachtwoorden komen niet overeen.", "The passwords do not match."},

	LoginInvalid:   {"Onjuist e-mailadres of wachtwoord.", "Invalid email address or password."},
	LoginInactive:  {"Dit account is niet meer actief.", "This account is no longer active."},
	LoginThrottled: {"Te veel inlogpogingen. Probeer het over een paar minuten opnieuw.", "Too many sign-in attempts. Please try again in a few minutes."},
	LoggedOut:      {"Je bent uitgelogd.", "You have been signed out."},

	Unauthorized: {"Je hebt geen toegang tot deze actie.", "You are not authorized to perform this action."},
}
