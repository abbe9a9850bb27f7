// Package governance mounts the product API on top of the request
// governance components: authentication, entitlement gates, usage quotas
// and the billing webhook.
//
//	/api/v1/data/refresh       api key, active interval, data_refresh policy
//	/api/v1/usage/demo         api key, usage_demo policy
//	/api/purchases/active      session, interval status
//	/api/purchases/details     session, stored flag and interval
//	/api/purchases/cancel      session
//	/api/purchases/webhook     provider signature
//	/api/security/api-keys     session, stored flag
package governance
