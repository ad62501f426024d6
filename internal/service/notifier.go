package service

import (
	"context"
	"net/url"

	"github.com/iliyamo/online-cinema/internal/logger"
)

// Notifier delivers account emails. Implementations may be asynchronous;
// the services call them only after the related rows are committed.
type Notifier interface {
	SendActivationEmail(ctx context.Context, email, link string) error
	SendActivationCompleteEmail(ctx context.Context, email, link string) error
	SendPasswordResetEmail(ctx context.Context, email, link string) error
	SendPasswordResetCompleteEmail(ctx context.Context, email, link string) error
}

// notify runs a post-commit notification. A failure is logged and dropped:
// the database change has already happened and must not be reported as
// failed to the caller.
func notify(kind, email string, send func() error) {
	if err := send(); err != nil {
		logger.Warningf("notification %s to %s failed: %v", kind, email, err)
	}
}

// buildLink appends params to base, keeping any query already present.
func buildLink(base string, params url.Values) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}
