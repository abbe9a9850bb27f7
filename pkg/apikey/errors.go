package apikey

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/quotaguard/pkg/auth"
)

var (
	ErrMalformedKey = fmt.Errorf("%w: malformed api key", auth.ErrInvalidCredentials)
	ErrBadSignature = fmt.Errorf("%w: api key signature mismatch", auth.ErrInvalidCredentials)
	ErrUnknownKey   = fmt.Errorf("%w: unknown api key", auth.ErrInvalidCredentials)
	ErrKeyExpired   = fmt.Errorf("%w: api key expired", auth.ErrExpiredCredentials)

	ErrKeyNotFound = errors.New("apikey: key not found")
)
