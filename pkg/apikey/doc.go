// Package apikey issues and verifies API keys for machine clients.
//
// A key is a signed, opaque token naming a key record; the record ties it
// to a user and can be expired. Issuing a new key expires every previous
// key of the user, so each user holds at most one working key.
//
//	keys := apikey.NewService(apikey.NewPostgresStore(pool), cfg.APIKeySecret)
//	raw, _, err := keys.Issue(ctx, userID)   // show raw to the user once
//	owner, err := keys.Verify(ctx, raw)      // used by auth.APIKeyAuthenticator
package apikey
