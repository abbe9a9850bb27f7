// Package webhook reconciles billing provider webhooks with local billing state.
//
// A Reconciler is an http.Handler for one provider. Each delivery moves
// through a small lifecycle:
//
//	received -> signature_verified -> dispatched -> handled
//	                                             -> handler_failed
//	received -> signature_rejected
//
// Deliveries that fail verification are answered with 400 and never
// dispatched. Verified deliveries are normalized into an Event and
// dispatched by kind through a Registry. Kinds without a handler are
// acknowledged with 200 so the provider stops resending them. A handler
// error answers 500 without detail, which makes the provider redeliver
// later.
//
// Two handlers are registered by DefaultRegistry:
//
//   - checkout completed: links the application user to the provider
//     customer (set once).
//   - payment succeeded: resolves the user from the customer, retrying on a
//     fixed schedule because the checkout delivery may still be in flight,
//     then records the paid interval. The invoice id is unique in storage,
//     so redelivery of the same payment is a no-op.
package webhook
