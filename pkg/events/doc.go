// Package events is the append-only event ledger.
//
// Every counted action (a data fetch, a stats update) is recorded as an
// Event with a user, a kind and a timestamp. The ledger answers two
// questions: how many events of a kind happened for a user in the last N
// hours, and when the last one happened. Rate limiting and staleness checks
// are built on these two queries.
//
// Three stores are provided: MemoryStore, RedisStore and PostgresStore.
package events
