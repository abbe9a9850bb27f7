// Package quota limits how often a user may perform an action.
//
// Limit is a handler decorator backed by the event ledger. Before the
// wrapped handler runs it counts the user's events of the rule's kind in a
// sliding window of WindowHours and rejects with 429 once MaxCalls is
// reached. Only successful calls (status below 400) are charged.
//
// The check and the charge are two separate ledger calls, so concurrent
// requests from one user may each pass the check and overshoot MaxCalls
// by at most the number of requests in flight. The limit is soft.
//
// Any error while counting rejects the request with 500: the limiter
// fails closed.
//
// Stacked limiters compose as a logical AND:
//
//	handler.WithDecorators(
//		auth.Require[handler.Context, struct{}](apiKeys),
//		quota.Limit[handler.Context, struct{}](ledger, quota.Rule{Event: events.KindFetchData, MaxCalls: 10, WindowHours: 24}),
//		quota.Limit[handler.Context, struct{}](ledger, quota.Rule{Event: events.KindUpdateData, MaxCalls: 3, WindowHours: 24}),
//	)
package quota
