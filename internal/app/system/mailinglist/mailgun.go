package mailinglist

import (
	"context"
	"net/http"

	"github.com/dalemusser/memberhub/internal/app/system/mailer"
	"github.com/mailgun/mailgun-go/v4"
)

// MailgunConfig holds the Mailgun account settings.
type MailgunConfig struct {
	Domain   string
	APIKey   string
	APIBase  string // empty uses the US region
	From     string
	FromName string
}

// Mailgun implements Provider on the Mailgun API.
type Mailgun struct {
	mg   *mailgun.MailgunImpl
	from string
}

// NewMailgun returns a Provider for the given account.
func NewMailgun(cfg MailgunConfig) *Mailgun {
	mg := mailgun.NewMailgun(cfg.Domain, cfg.APIKey)
	if cfg.APIBase != "" {
		mg.SetAPIBase(cfg.APIBase)
	}
	from := cfg.From
	if cfg.FromName != "" {
		from = cfg.FromName + " <" + cfg.From + ">"
	}
	return &Mailgun{mg: mg, from: from}
}

func (m *Mailgun) Lists(ctx context.Context) ([]string, error) {
	it := m.mg.ListMailingLists(&mailgun.ListOptions{Limit: 100})
	var out []string
	var page []mailgun.MailingList
	for it.Next(ctx, &page) {
		for _, l := range page {
			out = append(out, l.Address)
		}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *Mailgun) UpdateMember(ctx context.Context, list, oldAddr, newAddr string) error {
	_, err := m.mg.UpdateMember(ctx, oldAddr, list, mailgun.Member{Address: newAddr})
	return translate(err)
}

func (m *Mailgun) DeleteMember(ctx context.Context, list, addr string) error {
	return translate(m.mg.DeleteMember(ctx, addr, list))
}

func (m *Mailgun) Send(ctx context.Context, e mailer.Email) error {
	msg := m.mg.NewMessage(m.from, e.Subject, e.TextBody, e.To)
	if e.HTMLBody != "" {
		msg.SetHtml(e.HTMLBody)
	}
	_, _, err := m.mg.Send(ctx, msg)
	return err
}

func translate(err error) error {
	if err != nil && mailgun.GetStatusFromErr(err) == http.StatusNotFound {
		return ErrNotMember
	}
	return err
}
