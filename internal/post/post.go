package post

import (
	"context"
	"fmt"

	"github.com/dmorgan81/craiyonbot/internal/log"
)

type Params struct {
	Date   string
	Model  string
	Prompt string
	Count  int
}

func (p Params) Title() string {
	return fmt.Sprintf("%s - %s:%s (%d)", p.Date, p.Prompt, p.Model, p.Count)
}

type Poster interface {
	Post(context.Context, Params) error
}

type NoopPoster struct{}

func (NoopPoster) Post(ctx context.Context, params Params) error {
	log.FromContextOrDiscard(ctx).Debug("no subreddit configured, skipping post", "title", params.Title())
	return nil
}
