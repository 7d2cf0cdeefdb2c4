package feed

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmorgan81/craiyonbot/internal/log"
	"github.com/gorilla/feeds"
	"github.com/samber/do"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

type Generator struct {
	client *s3.Client
	bucket string
	site   string
}

func NewS3Generator(i *do.Injector) (*Generator, error) {
	return &Generator{
		client: do.MustInvoke[*s3.Client](i),
		bucket: do.MustInvokeNamed[string](i, "bucket"),
		site:   do.MustInvokeNamed[string](i, "site_url"),
	}, nil
}

// IsDayKey reports whether key is the first image of a day, which stands in
// for the whole day in the feed.
func IsDayKey(key string) bool {
	return strings.HasSuffix(key, "-0.png") && !strings.HasPrefix(key, "latest")
}

func Item(site string, meta map[string]string, updated time.Time) *feeds.Item {
	return &feeds.Item{
		Title:       fmt.Sprintf("%s:%s", meta["prompt"], meta["model"]),
		Link:        &feeds.Link{Href: fmt.Sprintf("%s/%s.html", site, meta["date"])},
		Description: fmt.Sprintf("%s images generated with the %s model", lo.Ternary(meta["count"] == "", "1", meta["count"]), meta["model"]),
		Updated:     updated,
	}
}

func (g *Generator) Generate(ctx context.Context) ([]byte, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("feed")
	log.Info("generating rss feed")

	feed := feeds.Feed{
		Title:       "CraiyonBot",
		Description: "Daily images generated by craiyon.com",
		Link:        &feeds.Link{Href: g.site},
		Updated:     time.Now(),
	}

	pager := s3.NewListObjectsV2Paginator(g.client, &s3.ListObjectsV2Input{
		Bucket: &g.bucket,
	})

	var mu sync.Mutex
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(8)
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			if gerr := group.Wait(); gerr != nil {
				return nil, gerr
			}
			return nil, err
		}

		objs := lo.Filter(page.Contents, func(o s3types.Object, _ int) bool {
			return IsDayKey(*o.Key)
		})

		for _, obj := range objs {
			obj := obj
			group.Go(func() error {
				out, err := g.client.HeadObject(gctx, &s3.HeadObjectInput{
					Bucket: &g.bucket,
					Key:    obj.Key,
				})
				if err != nil {
					return err
				}

				mu.Lock()
				defer mu.Unlock()
				feed.Add(Item(g.site, out.Metadata, *out.LastModified))
				return nil
			})
		}
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	log.Info("collected feed items", "items", len(feed.Items))

	feed.Sort(func(a, b *feeds.Item) bool {
		return a.Updated.Before(b.Updated)
	})
	rss, err := feed.ToRss()
	return []byte(rss), err
}
