// Package handler provides typed HTTP handlers and the decorator pipeline
// used to compose request governance around them.
//
// A handler is a function from a request context and a bound request value
// to a Response. A Decorator wraps a handler and may reject before calling
// the inner handler, pass its outcome through, or act on the outcome after
// it returns (for example, charging quota only for successful calls).
//
//	h := handler.Apply(terminal,
//		auth.Require[handler.Context, Req](apiKeys),
//		entitlement.RequireActive[handler.Context, Req](intervals),
//		quota.Limit[handler.Context, Req](ledger, rule),
//	)
//
// The first decorator is the outermost. Calls flow outer to inner on the way
// in and inner to outer on the way out; a rejection collapses both
// directions at the rejecting decorator.
//
// # Context enrichment
//
// Decorators enrich the request context with WithValue, which returns a new
// Context and leaves the received one untouched. Values set by a decorator
// are therefore visible to everything it wraps and never to the decorators
// wrapping it.
//
// # Responses
//
//	handler.JSON(data)                         // 200 OK with data
//	handler.JSON(data, handler.WithJSONStatus(201))
//	handler.JSONError(err)                     // status and code from HTTPError
//	handler.Empty()                            // 204 No Content
//
// StatusOf and IsSuccess classify a Response without rendering it, which is
// how decorators decide whether the wrapped call succeeded.
package handler
