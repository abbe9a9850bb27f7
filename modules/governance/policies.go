package governance

import (
	"github.com/dmitrymomot/quotaguard/pkg/events"
	"github.com/dmitrymomot/quotaguard/pkg/quota"
)

const (
	PolicyDataRefresh = "data_refresh"
	PolicyUsageDemo   = "usage_demo"
)

// DefaultPolicies are used for any policy the policy file does not define.
func DefaultPolicies() quota.Policies {
	return quota.Policies{
		PolicyDataRefresh: {
			{Event: events.KindFetchData, MaxCalls: 100, WindowHours: 24},
		},
		PolicyUsageDemo: {
			{Event: events.KindFetchData, MaxCalls: 10, WindowHours: 24},
			{Event: events.KindUpdateData, MaxCalls: 3, WindowHours: 24},
		},
	}
}
