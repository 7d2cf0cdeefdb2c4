package craiyon

import (
	"fmt"

	"github.com/samber/lo"
)

const (
	ImageBaseURL = "https://img.craiyon.com"
	ModelVersion = "35s5hfwn9n78gb06"
)

// Request is a generation payload for one API version.
type Request interface {
	Version() Version
}

// RequestV1 is the retired payload shape. NewRequest never builds one.
type RequestV1 struct {
	Prompt string `json:"prompt"`
}

func (RequestV1) Version() Version { return V1 }

type RequestV3 struct {
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt"`
	Model          string  `json:"model"`
	ModelVersion   string  `json:"version"`
	Token          *string `json:"token"`
}

func (RequestV3) Version() Version { return V3 }

type RequestParams struct {
	Prompt         string
	NegativePrompt string
	Model          ModelType
	Token          string
}

func NewRequest(version Version, params RequestParams) (Request, error) {
	switch version {
	case V3:
		return RequestV3{
			Prompt:         params.Prompt,
			NegativePrompt: params.NegativePrompt,
			Model:          params.Model.String(),
			ModelVersion:   ModelVersion,
			Token:          lo.Ternary[*string](params.Token == "", nil, &params.Token),
		}, nil
	case V1:
		return nil, fmt.Errorf("%w: %s is no longer supported by the service, use %s", ErrUnsupportedVersion, V1, V3)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedVersion, version)
}

type Response struct {
	Images []string `json:"images"`
}

// ImageURL resolves an image reference returned by the service.
func ImageURL(ref string) string {
	return ImageBaseURL + "/" + ref
}
