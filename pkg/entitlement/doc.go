// Package entitlement gates handlers on the caller's paid access.
//
// Entitlement at time T means some paid interval of the user satisfies
// start <= T <= end. Three decorators are provided:
//
//   - RequireActive rejects with 403 when no interval covers now.
//   - WithStatus never rejects; it exposes the interval-derived status.
//   - WithDetails never rejects; it exposes the stored subscription flag
//     together with the latest-ending interval covering now. The two may
//     disagree: a cancelled subscription has the flag cleared while its
//     last paid interval is still running.
//
// All three read the user id placed on the context by auth.Require and
// fail closed (500) when the billing store cannot be read.
package entitlement
