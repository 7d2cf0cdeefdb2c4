package image

import (
	"bytes"
	"context"
	"image/png"
	"net/http"

	"github.com/dmorgan81/craiyonbot/craiyon"
	"github.com/dmorgan81/craiyonbot/internal/log"
	"github.com/samber/do"
)

type CraiyonGenerator struct {
	model craiyon.Model
}

func NewCraiyonGenerator(i *do.Injector) (Generator, error) {
	version, err := craiyon.ParseVersion(do.MustInvokeNamed[string](i, "craiyon_version"))
	if err != nil {
		return nil, err
	}
	model := craiyon.New().
		WithVersion(version).
		WithToken(do.MustInvokeNamed[string](i, "craiyon_token")).
		WithHTTPClient(do.MustInvoke[*http.Client](i))
	return &CraiyonGenerator{model}, nil
}

func (g *CraiyonGenerator) Generate(ctx context.Context, params Params) ([][]byte, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("craiyon generator").With("params", params)
	log.Info("generating images via api.craiyon.com")

	modelType, err := craiyon.ParseModelType(params.Model)
	if err != nil {
		return nil, err
	}

	images, err := g.model.WithModelType(modelType).Generate(ctx, params.Prompt, params.NegativePrompt, params.Count)
	if err != nil {
		return nil, err
	}
	log.Info("received images via api.craiyon.com", "count", len(images))

	out := make([][]byte, 0, len(images))
	for _, img := range images {
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
		out = append(out, buf.Bytes())
	}
	return out, nil
}
