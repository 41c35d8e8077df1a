package handler

import (
	"context"

	"github.com/dukerupert/cloudbyte/internal/model"
)

// Mailer sends the portal's transactional email.
type Mailer interface {
	Configured() bool
	SendWelcome(ctx context.Context, toEmail, fullName string) error
	SendActivation(ctx context.Context, toEmail string, p *model.Purchase) error
}
