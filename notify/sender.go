// Package notify abstracts the email/SMS channel that delivers OTP codes.
// Delivery is fire-and-forget from the validator's point of view.
package notify

import (
	"context"

	"github.com/tobiakoko/afromerica-voting-api/logging"
)

type Sender interface {
	Send(ctx context.Context, identifier, method, code string) error
}

// LogSender writes codes to the application log. Used in local/dev runs and
// as the default until a provider is configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, identifier, method, code string) error {
	logging.Log.Infof("OTP: dispatching %s code to %s via %s", code, identifier, method)
	return nil
}
