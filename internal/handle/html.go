package handle

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmorgan81/craiyonbot/internal/log"
	"github.com/dmorgan81/craiyonbot/internal/page"
	"github.com/samber/do"
	"github.com/samber/lo"
)

var urlRegexp = regexp.MustCompile(`^https://.+\.amazonaws\.com/(?P<key>.+?)\.html(?:\?.*)?$`)

type objectContext struct {
	Url   string `json:"inputS3Url"`
	Route string `json:"outputRoute"`
	Token string `json:"outputToken"`
}

type HtmlRequest struct {
	Id         string        `json:"xAmzRequestId"`
	GetContext objectContext `json:"getObjectContext"`
}

// PageKey extracts the page name, a date or "latest", from an object lambda input url.
func PageKey(url string) (string, error) {
	matches := urlRegexp.FindStringSubmatch(url)
	if matches == nil {
		return "", fmt.Errorf("unexpected object url %q", url)
	}
	return matches[urlRegexp.SubexpIndex("key")], nil
}

// PageParams rebuilds the page for a day from the metadata stored on its first image.
func PageParams(meta map[string]string) page.Params {
	count, err := strconv.Atoi(meta["count"])
	if err != nil || count < 1 {
		count = 1
	}
	return page.Params{
		Date: meta["date"],
		Images: lo.Times(count, func(n int) string {
			return ImageKey(meta["date"], n)
		}),
		Model:          meta["model"],
		Prompt:         meta["prompt"],
		NegativePrompt: meta["negative"],
	}
}

type HtmlHandler struct {
	client    *s3.Client
	bucket    string
	templator *page.Templator
}

func NewHtmlHandler(i *do.Injector) (*HtmlHandler, error) {
	return &HtmlHandler{
		client:    do.MustInvoke[*s3.Client](i),
		bucket:    do.MustInvokeNamed[string](i, "bucket"),
		templator: do.MustInvoke[*page.Templator](i),
	}, nil
}

func (h *HtmlHandler) Handle(ctx context.Context, request HtmlRequest) error {
	log := log.FromContextOrDiscard(ctx).WithGroup("HtmlHandler").With("request", request)
	key, err := PageKey(request.GetContext.Url)
	if err != nil {
		return err
	}
	log.Info("handling lambda request", "key", key)

	out, err := h.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(ImageKey(key, 0)),
	})
	if err != nil {
		return err
	}

	html, err := h.templator.Template(ctx, PageParams(out.Metadata))
	if err != nil {
		return err
	}

	_, err = h.client.WriteGetObjectResponse(ctx, &s3.WriteGetObjectResponseInput{
		RequestRoute: aws.String(request.GetContext.Route),
		RequestToken: aws.String(request.GetContext.Token),

		Body:         bytes.NewReader(html),
		ContentType:  aws.String("text/html"),
		ETag:         out.ETag,
		LastModified: out.LastModified,
		Metadata:     out.Metadata,
	})
	return err
}
