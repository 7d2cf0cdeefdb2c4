package store

import (
	"context"

	"github.com/dmorgan81/craiyonbot/internal/log"
)

type Invalidator interface {
	Invalidate(context.Context, []string) error
}

type NoopInvalidator struct{}

func (NoopInvalidator) Invalidate(ctx context.Context, paths []string) error {
	log.FromContextOrDiscard(ctx).Debug("no distribution configured, skipping invalidation", "paths", paths)
	return nil
}
