// Package binder decodes HTTP request bodies into typed values with strict
// JSON rules: unknown fields, trailing data, and oversized bodies are
// rejected rather than silently tolerated.
package binder

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
)

// MaxBodySize caps JSON request bodies at 1 MB.
const MaxBodySize = 1 << 20

var (
	// ErrInvalidBody indicates the body could not be decoded into the target.
	ErrInvalidBody = errors.New("invalid request body")
	// ErrUnsupportedMedia indicates a non-JSON Content-Type was supplied.
	ErrUnsupportedMedia = errors.New("unsupported media type")
)

// JSON decodes the request body into v. A missing Content-Type is tolerated,
// any other media type than application/json is not.
func JSON(r *http.Request, v any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			return fmt.Errorf("%w: %s", ErrUnsupportedMedia, ct)
		}
	}

	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, MaxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON value", ErrInvalidBody)
	}
	return nil
}
