// Package billing stores what the billing provider told us: which provider
// customer belongs to which user, and which periods the user has paid for.
//
// A Link is written once per user by the checkout flow and carries a stored
// entitlement flag that is maintained separately from payment history. The
// flag and the intervals may disagree (a cancelled subscription keeps its
// last paid interval until it ends); both are kept as they are.
//
// PaymentIntervals are immutable and unique per provider invoice id.
package billing
