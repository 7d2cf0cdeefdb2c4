package craiyon

import (
	"fmt"
	"strings"
)

// ModelType selects the style bucket the service generates from.
type ModelType int

const (
	General ModelType = iota
	Art
	Drawing
	Photo
)

var modelTokens = map[ModelType]string{
	General: "none",
	Art:     "art",
	Drawing: "drawing",
	Photo:   "photo",
}

// ModelTypes returns every variant.
func ModelTypes() []ModelType {
	return []ModelType{Art, Drawing, Photo, General}
}

// String returns the token sent to the service.
func (t ModelType) String() string {
	if s, ok := modelTokens[t]; ok {
		return s
	}
	return fmt.Sprintf("ModelType(%d)", int(t))
}

// ParseModelType accepts either the wire token or the variant name.
func ParseModelType(s string) (ModelType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "art":
		return Art, nil
	case "drawing":
		return Drawing, nil
	case "photo":
		return Photo, nil
	case "none", "general":
		return General, nil
	}
	return General, fmt.Errorf("%w: unknown model type %q", ErrInvalidArgument, s)
}

// Version is the wire format generation of the service API.
type Version int

const (
	// V1 was retired upstream in July 2023 and can no longer be requested.
	V1 Version = 1
	V3 Version = 3
)

func (v Version) String() string {
	return fmt.Sprintf("v%d", int(v))
}

// Endpoint returns the generation URL for the version.
func (v Version) Endpoint() string {
	switch v {
	case V1:
		return "https://backend.craiyon.com/generate"
	case V3:
		return "https://api.craiyon.com/v3"
	}
	return ""
}

func ParseVersion(s string) (Version, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "v1", "1":
		return V1, nil
	case "v3", "3":
		return V3, nil
	}
	return 0, fmt.Errorf("%w: unknown api version %q", ErrInvalidArgument, s)
}
