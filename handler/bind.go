package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
)

// DefaultMaxJSONSize caps request bodies accepted by BindJSON.
const DefaultMaxJSONSize = 1 << 20 // 1 MB

// BindJSON decodes an application/json body into the request struct.
// Requests without a body are left to other binders.
func BindJSON() Bind {
	return func(r *http.Request, v any) error {
		if r.Body == nil || r.ContentLength == 0 {
			return ErrBinderNotApplicable
		}

		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "application/json" {
			return HTTPError{Code: http.StatusUnsupportedMediaType, Key: "unsupported_media_type"}
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, DefaultMaxJSONSize+1))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
		if len(body) > DefaultMaxJSONSize {
			return HTTPError{Code: http.StatusRequestEntityTooLarge, Key: "request_entity_too_large"}
		}

		dec := json.NewDecoder(bytes.NewReader(body))
		dec.DisallowUnknownFields()
		if err := dec.Decode(v); err != nil {
			return fmt.Errorf("%w: %w: %v", ErrBadRequest, ErrInvalidJSON, err)
		}
		return nil
	}
}
