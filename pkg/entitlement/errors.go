package entitlement

import (
	"net/http"

	"github.com/dmitrymomot/quotaguard/handler"
)

// ErrEntitlementRequired is returned when no paid interval covers now.
var ErrEntitlementRequired = handler.HTTPError{Code: http.StatusForbidden, Key: "entitlement_required"}
