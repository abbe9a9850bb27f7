package governance

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/quotaguard/handler"
)

var (
	ErrMissingDependency = errors.New("governance: missing dependency")

	ErrNoSubscription = handler.HTTPError{Code: http.StatusBadRequest, Key: "no_subscription"}
	ErrProvider       = handler.HTTPError{Code: http.StatusBadGateway, Key: "provider_error"}
)
