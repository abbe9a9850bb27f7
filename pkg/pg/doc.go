// Package pg connects to Postgres through a pgx pool, applies embedded goose
// migrations and classifies driver errors for the stores built on top of it.
package pg
