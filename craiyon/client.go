// Package craiyon is a client for the craiyon.com text to image service.
//
// A Model is an immutable configuration value built with chained setters:
//
//	imgs, err := craiyon.New().WithModelType(craiyon.Photo).GenerateFromPrompt(ctx, "a red fox", 2)
//
// Generate issues one request to the service and then fetches the returned
// images one at a time, in order. The service caps a single request at
// MaxImages images.
package craiyon

import (
	"net/http"

	"github.com/samber/lo"
)

// MaxImages is the per-request cap imposed by the service.
const MaxImages = 9

type Model struct {
	model   ModelType
	version Version
	token   string
	client  *http.Client
}

func New() Model {
	return Model{model: General, version: V3}
}

// From builds a Model without an api token.
func From(model ModelType, version Version) Model {
	return Model{model: model, version: version}
}

func (m Model) WithModelType(model ModelType) Model {
	m.model = model
	return m
}

func (m Model) WithVersion(version Version) Model {
	m.version = version
	return m
}

// WithToken sets the api token passed through to the service. An empty
// token means none.
func (m Model) WithToken(token string) Model {
	m.token = token
	return m
}

func (m Model) WithHTTPClient(client *http.Client) Model {
	m.client = client
	return m
}

func (m Model) ModelType() ModelType { return m.model }

// Version returns the configured api version, V3 when unset.
func (m Model) Version() Version {
	return lo.Ternary(m.version == 0, V3, m.version)
}

func (m Model) Token() string { return m.token }

func (m Model) httpClient() *http.Client {
	return lo.Ternary(m.client == nil, http.DefaultClient, m.client)
}
