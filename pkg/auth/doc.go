// Package auth establishes who is calling.
//
// An Authenticator turns a request into a user id. Require wraps a typed
// handler so the resolved id is placed on the handler context, where every
// inner decorator (quota, entitlement) reads it with UserID.
//
// Two authenticators are provided: APIKeyAuthenticator for machine clients
// (X-API-Key header or Bearer token) and SessionAuthenticator for browser
// sessions carried as HS256 JWTs.
package auth
