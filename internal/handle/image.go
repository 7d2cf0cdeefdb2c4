package handle

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dmorgan81/craiyonbot/craiyon"
	"github.com/dmorgan81/craiyonbot/internal/image"
	"github.com/dmorgan81/craiyonbot/internal/log"
	"github.com/dmorgan81/craiyonbot/internal/post"
	"github.com/dmorgan81/craiyonbot/internal/prompt"
	"github.com/dmorgan81/craiyonbot/internal/store"
	"github.com/samber/do"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

type ImageInput struct {
	Date           string `json:"date,omitempty"`
	Model          string `json:"model,omitempty"`
	Prompt         string `json:"prompt,omitempty"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
	Count          int    `json:"count,omitempty"`
}

func (i ImageInput) toImageParams() image.Params {
	return image.Params{
		Model:          i.Model,
		Prompt:         i.Prompt,
		NegativePrompt: i.NegativePrompt,
		Count:          i.Count,
	}
}

func (i ImageInput) toMetadata(count int) map[string]string {
	return map[string]string{
		"date":     i.Date,
		"model":    i.Model,
		"prompt":   i.Prompt,
		"negative": i.NegativePrompt,
		"count":    strconv.Itoa(count),
	}
}

type ImageOutput struct {
	ImageInput
	Images []string `json:"images"`
}

// ImageKey names the n-th image stored under prefix, a date or "latest".
func ImageKey(prefix string, n int) string {
	return fmt.Sprintf("%s-%d.png", prefix, n)
}

type ImageHandler struct {
	randomizer  *prompt.Randomizer
	generator   image.Generator
	uploader    store.Uploader
	invalidator store.Invalidator
	poster      post.Poster
	count       int
}

func NewImageHandler(i *do.Injector) (*ImageHandler, error) {
	return &ImageHandler{
		randomizer:  do.MustInvoke[*prompt.Randomizer](i),
		generator:   do.MustInvoke[image.Generator](i),
		uploader:    do.MustInvoke[store.Uploader](i),
		invalidator: do.MustInvoke[store.Invalidator](i),
		poster:      do.MustInvoke[post.Poster](i),
		count:       do.MustInvokeNamed[int](i, "image_count"),
	}, nil
}

func (h *ImageHandler) Handle(ctx context.Context, input ImageInput) (ImageOutput, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("ImageHandler").With("input", input)
	log.Info("handling lambda invocation")

	if input.Model == "" || input.Prompt == "" {
		pick, err := h.randomizer.Randomize(ctx)
		if err != nil {
			return ImageOutput{}, err
		}
		input.Model = lo.Ternary(input.Model != "", input.Model, pick.Model)
		input.Prompt = lo.Ternary(input.Prompt != "", input.Prompt, pick.Prompt)
		input.NegativePrompt = lo.Ternary(input.NegativePrompt != "", input.NegativePrompt, pick.NegativePrompt)
	}
	input.Count = lo.Ternary(input.Count != 0, input.Count, h.count)

	model, err := craiyon.ParseModelType(input.Model)
	if err != nil {
		return ImageOutput{}, err
	}
	input.Model = model.String()

	latest := false
	if input.Date == "" {
		input.Date = time.Now().UTC().Format("20060102")
		latest = true
	}

	imgs, err := h.generator.Generate(ctx, input.toImageParams())
	if err != nil {
		return ImageOutput{}, err
	}
	log.Info("generated images", "count", len(imgs))

	metadata := input.toMetadata(len(imgs))
	var uploads []store.UploadParams
	for n, img := range imgs {
		uploads = append(uploads, store.UploadParams{
			Name:        ImageKey(input.Date, n),
			Data:        img,
			ContentType: "image/png",
			Metadata:    metadata,
		})
		if latest {
			uploads = append(uploads, store.UploadParams{
				Name:        ImageKey("latest", n),
				Data:        img,
				ContentType: "image/png",
				Metadata:    metadata,
			})
		}
	}

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(4)
	for _, u := range uploads {
		u := u
		group.Go(func() error {
			return h.uploader.Upload(gctx, u)
		})
	}
	if err := group.Wait(); err != nil {
		return ImageOutput{}, err
	}

	paths := lo.Map(uploads, func(u store.UploadParams, _ int) string {
		return "/" + u.Name
	})
	paths = append(paths, "/"+input.Date+".html")
	if latest {
		paths = append(paths, "/latest.html")
	}
	if err := h.invalidator.Invalidate(ctx, paths); err != nil {
		return ImageOutput{}, err
	}

	if err := h.poster.Post(ctx, post.Params{
		Date:   input.Date,
		Model:  input.Model,
		Prompt: input.Prompt,
		Count:  len(imgs),
	}); err != nil {
		return ImageOutput{}, err
	}

	return ImageOutput{
		ImageInput: input,
		Images: lo.Times(len(imgs), func(n int) string {
			return ImageKey(input.Date, n)
		}),
	}, nil
}
