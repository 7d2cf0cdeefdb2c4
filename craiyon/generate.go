package craiyon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"github.com/dmorgan81/craiyonbot/internal/log"
	"github.com/samber/lo"
	_ "golang.org/x/image/webp"
)

// GenerateFromPrompt is Generate without a negative prompt.
func (m Model) GenerateFromPrompt(ctx context.Context, prompt string, count int) ([]image.Image, error) {
	return m.Generate(ctx, prompt, "", count)
}

// Generate requests count images and returns them decoded, in the order the
// service listed them. The service may return fewer images than requested.
// Any failure discards every image fetched so far.
//
// V1 is rejected before count is checked.
func (m Model) Generate(ctx context.Context, prompt, negativePrompt string, count int) ([]image.Image, error) {
	req, err := NewRequest(m.Version(), RequestParams{
		Prompt:         prompt,
		NegativePrompt: negativePrompt,
		Model:          m.model,
		Token:          m.token,
	})
	if err != nil {
		return nil, err
	}
	if count < 1 || count > MaxImages {
		return nil, fmt.Errorf("%w: number of images must be between 1 and %d, got %d", ErrInvalidArgument, MaxImages, count)
	}

	log := log.FromContextOrDiscard(ctx).WithGroup("craiyon").With("model", m.model.String(), "version", req.Version().String())
	log.Info("generating images", "prompt", prompt, "count", count)

	res, err := m.send(ctx, req)
	if err != nil {
		return nil, err
	}

	refs := res.Images
	if len(refs) > count {
		refs = refs[:count]
	}
	urls := lo.Map(refs, func(ref string, _ int) string {
		return ImageURL(ref)
	})
	log.Info("received image references", "returned", len(res.Images), "fetching", len(urls))

	images := make([]image.Image, 0, len(urls))
	for _, url := range urls {
		img, err := m.fetch(ctx, url)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}

func (m Model) send(ctx context.Context, data Request) (*Response, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, data.Version().Endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := m.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: sending generation request: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: generation request failed: status %d: %s", ErrNetwork, resp.StatusCode, bytes.TrimSpace(msg))
	}

	var res Response
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("%w: parsing generation response: %w", ErrDecode, err)
	}
	if res.Images == nil {
		return nil, fmt.Errorf("%w: parsing generation response: missing images", ErrDecode)
	}
	return &res, nil
}

func (m Model) fetch(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := m.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching %s: %w", ErrNetwork, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: fetching %s: status %d", ErrNetwork, url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrNetwork, url, err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %w", ErrDecode, url, err)
	}
	return img, nil
}
