// Package mailinglist keeps the mailing lists at the mail provider in step
// with the member records and sends the welcome email to new members.
package mailinglist

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/memberhub/internal/app/system/mailer"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"go.uber.org/zap"
)

// ErrNotMember is returned by a Provider when the address is not on the list.
var ErrNotMember = errors.New("address is not a member of the list")

// Provider is the subset of a mail provider's API the client needs.
type Provider interface {
	// Lists returns the addresses of every mailing list on the domain.
	Lists(ctx context.Context) ([]string, error)
	// UpdateMember changes a list member's address.
	UpdateMember(ctx context.Context, list, oldAddr, newAddr string) error
	// DeleteMember removes an address from a list.
	DeleteMember(ctx context.Context, list, addr string) error
	// Send delivers a single email.
	Send(ctx context.Context, e mailer.Email) error
}

// Config holds the welcome email settings.
type Config struct {
	SiteName string
	LoginURL string
	Lang     string
}

// Client applies member changes to all mailing lists.
type Client struct {
	p   Provider
	cfg Config
	log *zap.Logger
}

func New(p Provider, cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{p: p, cfg: cfg, log: logger}
}

// UpdateUserEmail replaces oldEmail with newEmail on every list that has
// oldEmail as a member. Lists the user is not on are skipped.
func (c *Client) UpdateUserEmail(ctx context.Context, user models.User, oldEmail, newEmail string) error {
	if oldEmail == newEmail {
		return nil
	}
	lists, err := c.p.Lists(ctx)
	if err != nil {
		return fmt.Errorf("list mailing lists: %w", err)
	}

	var errs []error
	updated := 0
	for _, list := range lists {
		err := c.p.UpdateMember(ctx, list, oldEmail, newEmail)
		switch {
		case errors.Is(err, ErrNotMember):
		case err != nil:
			errs = append(errs, fmt.Errorf("%s: %w", list, err))
		default:
			updated++
		}
	}
	c.log.Debug("mailing list address updated",
		zap.String("user_id", user.ID.Hex()),
		zap.Int("lists", updated))
	return errors.Join(errs...)
}

// RemoveUser removes the user's email from every list.
func (c *Client) RemoveUser(ctx context.Context, user models.User) error {
	lists, err := c.p.Lists(ctx)
	if err != nil {
		return fmt.Errorf("list mailing lists: %w", err)
	}

	var errs []error
	removed := 0
	for _, list := range lists {
		err := c.p.DeleteMember(ctx, list, user.Email)
		switch {
		case errors.Is(err, ErrNotMember):
		case err != nil:
			errs = append(errs, fmt.Errorf("%s: %w", list, err))
		default:
			removed++
		}
	}
	c.log.Debug("removed from mailing lists",
		zap.String("user_id", user.ID.Hex()),
		zap.Int("lists", removed))
	return errors.Join(errs...)
}

// Welcome sends the welcome email to a new member.
func (c *Client) Welcome(ctx context.Context, user models.User) error {
	e := mailer.BuildWelcomeEmail(user.Email, mailer.WelcomeEmailData{
		SiteName:  c.cfg.SiteName,
		FirstName: user.FirstName,
		LoginURL:  c.cfg.LoginURL,
		Lang:      c.cfg.Lang,
	})
	if err := c.p.Send(ctx, e); err != nil {
		return fmt.Errorf("send welcome email: %w", err)
	}
	return nil
}
