package model

import "errors"

// Error categories surfaced by the fetcher. Concrete errors wrap one of these
// together with their cause, so callers can match with errors.Is.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidRange     = errors.New("invalid range")
	ErrChainRead        = errors.New("chain read")
	ErrUnknownSignature = errors.New("unknown event signature")
	ErrDecode           = errors.New("decode")
	ErrMissingMetadata  = errors.New("missing log metadata")
)
