package post

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/dmorgan81/craiyonbot/internal/log"
	"github.com/samber/do"
	"github.com/samber/lo"
	"github.com/vartanbeno/go-reddit/v2/reddit"
)

type RedditPoster struct {
	client    *reddit.Client
	subreddit string
	site      string
}

func NewRedditPoster(i *do.Injector) (Poster, error) {
	creds := reddit.Credentials{
		ID:       do.MustInvokeNamed[string](i, "reddit_client_id"),
		Secret:   do.MustInvokeNamed[string](i, "reddit_client_secret"),
		Username: do.MustInvokeNamed[string](i, "reddit_username"),
		Password: do.MustInvokeNamed[string](i, "reddit_password"),
	}
	return newRedditPoster(creds,
		do.MustInvokeNamed[string](i, "subreddit"),
		do.MustInvokeNamed[string](i, "site_url"))
}

func newRedditPoster(creds reddit.Credentials, subreddit, site string, opts ...reddit.Opt) (*RedditPoster, error) {
	var settings []debug.BuildSetting
	if info, ok := debug.ReadBuildInfo(); ok {
		settings = info.Settings
	}
	setting := lo.FindOrElse(settings, debug.BuildSetting{Value: "unknown"}, func(s debug.BuildSetting) bool {
		return s.Key == "vcs.revision"
	})

	userAgent := fmt.Sprintf("web:craiyonbot:%s (by /u/%s)", setting.Value, creds.Username)
	client, err := reddit.NewClient(creds, append([]reddit.Opt{reddit.WithUserAgent(userAgent)}, opts...)...)
	if err != nil {
		return nil, err
	}

	return &RedditPoster{client, subreddit, site}, nil
}

func (p *RedditPoster) Post(ctx context.Context, params Params) error {
	log.FromContextOrDiscard(ctx).WithGroup("reddit").Info("posting to reddit", "subreddit", p.subreddit)
	_, _, err := p.client.Post.SubmitLink(ctx, reddit.SubmitLinkRequest{
		Subreddit:   p.subreddit,
		Title:       params.Title(),
		URL:         fmt.Sprintf("%s/%s.html", p.site, params.Date),
		SendReplies: lo.ToPtr(false),
	})
	return err
}
