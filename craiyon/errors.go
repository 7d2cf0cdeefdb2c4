package craiyon

import "errors"

var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrUnsupportedVersion = errors.New("unsupported api version")
	ErrNetwork            = errors.New("network error")
	ErrDecode             = errors.New("decode error")
)
