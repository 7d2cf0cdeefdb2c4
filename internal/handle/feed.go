package handle

import (
	"context"

	"github.com/dmorgan81/craiyonbot/internal/feed"
	"github.com/dmorgan81/craiyonbot/internal/log"
	"github.com/dmorgan81/craiyonbot/internal/store"
	"github.com/samber/do"
)

const feedKey = "feed.xml"

type FeedHandler struct {
	generator   *feed.Generator
	uploader    store.Uploader
	invalidator store.Invalidator
}

func NewFeedHandler(i *do.Injector) (*FeedHandler, error) {
	return &FeedHandler{
		generator:   do.MustInvoke[*feed.Generator](i),
		uploader:    do.MustInvoke[store.Uploader](i),
		invalidator: do.MustInvoke[store.Invalidator](i),
	}, nil
}

func (h *FeedHandler) Handle(ctx context.Context) error {
	log.FromContextOrDiscard(ctx).WithGroup("FeedHandler").Info("handling lambda invocation")

	rss, err := h.generator.Generate(ctx)
	if err != nil {
		return err
	}
	if err := h.uploader.Upload(ctx, store.UploadParams{
		Name:        feedKey,
		Data:        rss,
		ContentType: "application/rss+xml",
	}); err != nil {
		return err
	}
	return h.invalidator.Invalidate(ctx, []string{"/" + feedKey})
}
