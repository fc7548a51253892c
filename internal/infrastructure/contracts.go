package infrastructure

import (
	"context"

	"github.com/playtesthq/jobbox/internal/entity"
)

type (
	// MessagePublisher delivers one envelope to the broker. Implementations
	// must release any acquired broker resources on every exit path.
	MessagePublisher interface {
		Publish(ctx context.Context, envelope *entity.Envelope) error
		Close() error
	}
)
