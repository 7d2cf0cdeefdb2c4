package image

import "context"

type Params struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
	Count          int    `json:"count"`
}

// Generator returns PNG encoded images, in generation order.
type Generator interface {
	Generate(context.Context, Params) ([][]byte, error)
}
