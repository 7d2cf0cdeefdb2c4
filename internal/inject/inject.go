package inject

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/dmorgan81/craiyonbot/craiyon"
	"github.com/dmorgan81/craiyonbot/internal/feed"
	"github.com/dmorgan81/craiyonbot/internal/handle"
	"github.com/dmorgan81/craiyonbot/internal/image"
	"github.com/dmorgan81/craiyonbot/internal/log"
	"github.com/dmorgan81/craiyonbot/internal/page"
	"github.com/dmorgan81/craiyonbot/internal/param"
	"github.com/dmorgan81/craiyonbot/internal/post"
	"github.com/dmorgan81/craiyonbot/internal/prompt"
	"github.com/dmorgan81/craiyonbot/internal/store"
	"github.com/samber/do"
	"github.com/samber/lo"
)

func getenv(key, fallback string) string {
	return lo.Ternary(os.Getenv(key) != "", os.Getenv(key), fallback)
}

func Setup(ctx context.Context) *do.Injector {
	log := log.FromContextOrDiscard(ctx)

	injector := do.NewWithOpts(&do.InjectorOpts{
		Logf: func(format string, args ...any) {
			log.Debug(fmt.Sprintf(format, args...))
		},
	})
	do.Provide[aws.Config](injector, func(i *do.Injector) (aws.Config, error) {
		return config.LoadDefaultConfig(ctx)
	})
	do.Provide[*ssm.Client](injector, func(i *do.Injector) (*ssm.Client, error) {
		return ssm.NewFromConfig(do.MustInvoke[aws.Config](i)), nil
	})
	do.Provide[*s3.Client](injector, func(i *do.Injector) (*s3.Client, error) {
		return s3.NewFromConfig(do.MustInvoke[aws.Config](i)), nil
	})
	do.Provide[*cloudfront.Client](injector, func(i *do.Injector) (*cloudfront.Client, error) {
		return cloudfront.NewFromConfig(do.MustInvoke[aws.Config](i)), nil
	})
	do.ProvideValue[*http.Client](injector, &http.Client{Timeout: 2 * time.Minute})

	do.Provide[param.Fetcher](injector, param.NewParameterStoreFetcher)
	do.Provide[*prompt.Randomizer](injector, prompt.NewRandomizer)
	do.Provide[image.Generator](injector, image.NewCraiyonGenerator)
	do.Provide[*page.Templator](injector, page.NewTemplator)
	do.Provide[*feed.Generator](injector, feed.NewS3Generator)

	if os.Getenv("BUCKET") != "" {
		do.Provide[store.Uploader](injector, store.NewS3Uploader)
	} else {
		do.Provide[store.Uploader](injector, store.NewFileUploader)
	}
	if os.Getenv("DISTRIBUTION") != "" {
		do.Provide[store.Invalidator](injector, store.NewCloudFrontInvalidator)
	} else {
		do.ProvideValue[store.Invalidator](injector, store.NoopInvalidator{})
	}
	if os.Getenv("SUBREDDIT") != "" {
		do.Provide[post.Poster](injector, post.NewRedditPoster)
	} else {
		do.ProvideValue[post.Poster](injector, post.NoopPoster{})
	}

	do.ProvideNamed[string](injector, "craiyon_token", func(i *do.Injector) (string, error) {
		return do.MustInvoke[param.Fetcher](i).Fetch(ctx, os.Getenv("CRAIYON_TOKEN_PARAM"))
	})
	do.ProvideNamed[[]string](injector, "prompts", func(i *do.Injector) ([]string, error) {
		return do.MustInvoke[param.Fetcher](i).FetchAll(ctx, os.Getenv("PROMPTS_PARAM"))
	})
	do.ProvideNamed[string](injector, "reddit_client_id", func(i *do.Injector) (string, error) {
		return do.MustInvoke[param.Fetcher](i).Fetch(ctx, os.Getenv("REDDIT_CLIENT_ID_PARAM"))
	})
	do.ProvideNamed[string](injector, "reddit_client_secret", func(i *do.Injector) (string, error) {
		return do.MustInvoke[param.Fetcher](i).Fetch(ctx, os.Getenv("REDDIT_CLIENT_SECRET_PARAM"))
	})
	do.ProvideNamed[string](injector, "reddit_username", func(i *do.Injector) (string, error) {
		return do.MustInvoke[param.Fetcher](i).Fetch(ctx, os.Getenv("REDDIT_USERNAME_PARAM"))
	})
	do.ProvideNamed[string](injector, "reddit_password", func(i *do.Injector) (string, error) {
		return do.MustInvoke[param.Fetcher](i).Fetch(ctx, os.Getenv("REDDIT_PASSWORD_PARAM"))
	})
	do.ProvideNamed[int](injector, "image_count", func(i *do.Injector) (int, error) {
		count, err := strconv.Atoi(getenv("IMAGE_COUNT", strconv.Itoa(craiyon.MaxImages)))
		if err != nil {
			return 0, fmt.Errorf("parsing IMAGE_COUNT: %w", err)
		}
		return count, nil
	})
	do.ProvideNamedValue[string](injector, "craiyon_version", getenv("CRAIYON_API_VERSION", craiyon.V3.String()))
	do.ProvideNamedValue[string](injector, "bucket", os.Getenv("BUCKET"))
	do.ProvideNamedValue[string](injector, "distribution", os.Getenv("DISTRIBUTION"))
	do.ProvideNamedValue[string](injector, "subreddit", os.Getenv("SUBREDDIT"))
	do.ProvideNamedValue[string](injector, "site_url", getenv("SITE_URL", "https://craiyonbot.io"))
	do.ProvideNamedValue[string](injector, "output_dir", getenv("OUTPUT_DIR", "."))

	do.Provide[*handle.ImageHandler](injector, handle.NewImageHandler)
	do.Provide[*handle.HtmlHandler](injector, handle.NewHtmlHandler)
	do.Provide[*handle.FeedHandler](injector, handle.NewFeedHandler)

	return injector
}
