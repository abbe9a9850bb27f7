package handler

import (
	"errors"
	"net/http"
)

// HandlerFunc provides type-safe HTTP request handling with custom context support.
// C must implement the Context interface, R can be any request type.
//
// Example:
//
//	refresh := handler.HandlerFunc[handler.Context, RefreshRequest](
//		func(ctx handler.Context, req RefreshRequest) handler.Response {
//			userID, _ := auth.UserID(ctx)
//			return handler.JSON(refreshFor(userID, req))
//		},
//	)
type HandlerFunc[C Context, R any] func(ctx C, req R) Response

// Response renders itself to an http.ResponseWriter.
// Implementations should set headers, status code, and write body.
// Errors are handled by the framework (returns 500).
type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}

// Bind parses HTTP requests into typed values.
type Bind func(r *http.Request, v any) error

// ErrorHandler handles errors from binding or rendering.
type ErrorHandler[C Context] func(ctx C, err error)

// Decorator wraps a HandlerFunc to add cross-cutting functionality.
// A decorator may reject before calling next, pass the outcome of next
// through unchanged, or act on that outcome after next returns.
//
// Example:
//
//	func Audit[C handler.Context, R any](log *slog.Logger) handler.Decorator[C, R] {
//		return func(next handler.HandlerFunc[C, R]) handler.HandlerFunc[C, R] {
//			return func(ctx C, req R) handler.Response {
//				resp := next(ctx, req)
//				log.InfoContext(ctx, "handled", slog.Int("status", handler.StatusOf(resp)))
//				return resp
//			}
//		}
//	}
type Decorator[C Context, R any] func(HandlerFunc[C, R]) HandlerFunc[C, R]

// Chain composes decorators into one. The first decorator is the outermost:
// it runs first on the way in and last on the way out. A decorator that
// returns without calling next stops the chain at that point.
func Chain[C Context, R any](decorators ...Decorator[C, R]) Decorator[C, R] {
	return func(next HandlerFunc[C, R]) HandlerFunc[C, R] {
		h := next
		for i := len(decorators) - 1; i >= 0; i-- {
			if decorators[i] != nil {
				h = decorators[i](h)
			}
		}
		return h
	}
}

// Apply wraps h with decorators, first decorator outermost.
func Apply[C Context, R any](h HandlerFunc[C, R], decorators ...Decorator[C, R]) HandlerFunc[C, R] {
	return Chain(decorators...)(h)
}

// WrapOption configures the Wrap function.
type WrapOption[C Context, R any] func(*wrapConfig[C, R])

type wrapConfig[C Context, R any] struct {
	binders        []Bind
	errorHandler   ErrorHandler[C]
	contextFactory func(http.ResponseWriter, *http.Request) C
	decorators     []Decorator[C, R]
}

// WithBinders sets request binders that will be applied in order.
func WithBinders[C Context, R any](binders ...Bind) WrapOption[C, R] {
	return func(c *wrapConfig[C, R]) {
		c.binders = append(c.binders, binders...)
	}
}

// WithErrorHandler sets a custom error handler.
func WithErrorHandler[C Context, R any](h ErrorHandler[C]) WrapOption[C, R] {
	return func(c *wrapConfig[C, R]) {
		if h != nil {
			c.errorHandler = h
		}
	}
}

// WithContextFactory sets a custom context factory.
func WithContextFactory[C Context, R any](f func(http.ResponseWriter, *http.Request) C) WrapOption[C, R] {
	return func(c *wrapConfig[C, R]) {
		if f != nil {
			c.contextFactory = f
		}
	}
}

// WithDecorators adds decorators to wrap the handler.
// Decorators are applied in order, with the first decorator being the outermost.
//
// Example:
//
//	r.Post("/data/refresh", handler.Wrap(refresh,
//		handler.WithDecorators(
//			auth.Require[handler.Context, RefreshRequest](apiKeys),
//			entitlement.RequireActive[handler.Context, RefreshRequest](intervals),
//			quota.Limit[handler.Context, RefreshRequest](ledger, fetchRule),
//		),
//	))
func WithDecorators[C Context, R any](decorators ...Decorator[C, R]) WrapOption[C, R] {
	return func(c *wrapConfig[C, R]) {
		c.decorators = append(c.decorators, decorators...)
	}
}

// defaultErrorHandler answers with the JSON error envelope.
func defaultErrorHandler[C Context](ctx C, err error) {
	_ = JSONError(err).Render(ctx.ResponseWriter(), ctx.Request())
}

// Wrap converts a typed HandlerFunc to http.HandlerFunc.
//
//	r.Get("/purchases/details", handler.Wrap(details,
//		handler.WithErrorHandler[handler.Context, struct{}](errorHandler),
//		handler.WithDecorators(session, entitlement.WithDetails[handler.Context, struct{}](store, store)),
//	))
func Wrap[C Context, R any](h HandlerFunc[C, R], opts ...WrapOption[C, R]) http.HandlerFunc {
	cfg := &wrapConfig[C, R]{
		errorHandler: defaultErrorHandler[C],
		contextFactory: func(w http.ResponseWriter, r *http.Request) C {
			ctx := NewContext(w, r)
			if c, ok := any(ctx).(C); ok {
				return c
			}
			panic("cannot use default context factory with custom context type - provide WithContextFactory")
		},
	}

	for _, opt := range opts {
		opt(cfg)
	}

	final := Apply(h, cfg.decorators...)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := cfg.contextFactory(w, r)

		var req R
		for _, bind := range cfg.binders {
			if err := bind(r, &req); err != nil {
				if errors.Is(err, ErrBinderNotApplicable) {
					continue
				}
				cfg.errorHandler(ctx, err)
				return
			}
		}

		response := final(ctx, req)
		if response == nil {
			cfg.errorHandler(ctx, ErrNilResponse)
			return
		}
		if err := response.Render(w, r); err != nil {
			cfg.errorHandler(ctx, err)
		}
	}
}
