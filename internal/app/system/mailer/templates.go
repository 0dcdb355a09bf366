// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// Email is a rendered message ready for a delivery provider.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// WelcomeEmailData holds data for the welcome email sent to new members.
type WelcomeEmailData struct {
	SiteName  string
	FirstName string
	LoginURL  string
	Lang      string // "nl" or "en"
}

type welcomeCopy struct {
	Subject  string
	Greeting string
	Body     string
	Button   string
	Footer   string
}

var welcomeText = map[string]welcomeCopy{
	"en": {
		Subject:  "Welcome to %s",
		Greeting: "Hello %s,",
		Body:     "An account has been created for you. You can sign in and check your details at any time.",
		Button:   "Sign In",
		Footer:   "You receive this email because you were registered as a member.",
	},
	"nl": {
		Subject:  "Welkom bij %s",
		Greeting: "Hallo %s,",
		Body:     "Er is een account voor je aangemaakt. Je kunt op elk moment inloggen en je gegevens bekijken.",
		Button:   "Inloggen",
		Footer:   "Je ontvangt deze e-mail omdat je als lid bent ingeschreven.",
	},
}

func copyFor(lang string) welcomeCopy {
	if c, ok := welcomeText[lang]; ok {
		return c
	}
	return welcomeText["nl"]
}

// BuildWelcomeEmail creates the welcome email with both HTML and text bodies.
func BuildWelcomeEmail(to string, data WelcomeEmailData) Email {
	c := copyFor(data.Lang)
	return Email{
		To:       to,
		Subject:  fmt.Sprintf(c.Subject, data.SiteName),
		TextBody: buildWelcomeText(c, data),
		HTMLBody: buildWelcomeHTML(c, data),
	}
}

func buildWelcomeText(c welcomeCopy, data WelcomeEmailData) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf(c.Greeting, data.FirstName) + "\n\n")
	buf.WriteString(c.Body + "\n\n")
	if data.LoginURL != "" {
		buf.WriteString(data.LoginURL + "\n\n")
	}
	buf.WriteString(c.Footer + "\n")
	return buf.String()
}

var welcomeHTML = template.Must(template.New("welcome").Parse(welcomeHTMLTemplate))

func buildWelcomeHTML(c welcomeCopy, data WelcomeEmailData) string {
	var buf bytes.Buffer
	_ = welcomeHTML.Execute(&buf, struct {
		WelcomeEmailData
		Greeting string
		Body     string
		Button   string
		Footer   string
	}{
		WelcomeEmailData: data,
		Greeting:         fmt.Sprintf(c.Greeting, data.FirstName),
		Body:             c.Body,
		Button:           c.Button,
		Footer:           c.Footer,
	})
	return buf.String()
}

const welcomeHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.SiteName}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);">
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #4f46e5;">{{.SiteName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 16px; font-size: 16px; color: #374151; line-height: 1.5;">{{.Greeting}}</p>
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">{{.Body}}</p>
              {{if .LoginURL}}
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
                <tr>
                  <td align="center">
                    <a href="{{.LoginURL}}" style="display: inline-block; padding: 14px 32px; background-color: #4f46e5; color: #ffffff; text-decoration: none; font-size: 16px; font-weight: 500; border-radius: 6px;">{{.Button}}</a>
                  </td>
                </tr>
              </table>
              {{end}}
            </td>
          </tr>
          <tr>
            <td style="padding: 24px 32px; background-color: #f9fafb; border-top: 1px solid #e5e7eb; border-radius: 0 0 8px 8px;">
              <p style="margin: 0; font-size: 12px; color: #9ca3af; text-align: center;">{{.Footer}}</p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
