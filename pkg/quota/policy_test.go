package quota_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/quotaguard/handler"
	"github.com/dmitrymomot/quotaguard/pkg/events"
	"github.com/dmitrymomot/quotaguard/pkg/quota"
)

const policyYAML = `
policies:
  data_refresh:
    - event: fetch_data
      max_calls: 100
      window_hours: 24
      metadata:
        source: refresh
  usage_demo:
    - event: fetch_data
      max_calls: 10
      window_hours: 24
    - event: update_data
      max_calls: 3
      window_hours: 24
`

func TestLoadPolicies(t *testing.T) {
	t.Parallel()

	p, err := quota.LoadPolicies(strings.NewReader(policyYAML))
	require.NoError(t, err)
	require.Len(t, p, 2)

	assert.Equal(t, []quota.Rule{{
		Event:       events.KindFetchData,
		MaxCalls:    100,
		WindowHours: 24,
		Metadata:    events.Metadata{"source": "refresh"},
	}}, p["data_refresh"])
	require.Len(t, p["usage_demo"], 2)
	assert.Equal(t, events.KindUpdateData, p["usage_demo"][1].Event)

	t.Run("empty document", func(t *testing.T) {
		t.Parallel()
		p, err := quota.LoadPolicies(strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, p)
	})

	t.Run("invalid rule", func(t *testing.T) {
		t.Parallel()
		_, err := quota.LoadPolicies(strings.NewReader("policies:\n  x:\n    - event: fetch_data\n      max_calls: 0\n      window_hours: 1\n"))
		assert.ErrorIs(t, err, quota.ErrInvalidRule)
	})

	t.Run("unknown field", func(t *testing.T) {
		t.Parallel()
		_, err := quota.LoadPolicies(strings.NewReader("policies:\n  x:\n    - event: fetch_data\n      max: 1\n"))
		assert.ErrorIs(t, err, quota.ErrPolicyFile)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := quota.LoadPolicyFile("testdata/does-not-exist.yaml")
		assert.ErrorIs(t, err, quota.ErrPolicyFile)
	})
}

func TestPoliciesDecorators(t *testing.T) {
	t.Parallel()

	p, err := quota.LoadPolicies(strings.NewReader(policyYAML))
	require.NoError(t, err)

	_, err = quota.Decorators[handler.Context, req](p, "missing", &brokenLedger{})
	assert.ErrorIs(t, err, quota.ErrUnknownPolicy)

	ledger, _ := newLedger()
	userID := uuid.New()
	limiters, err := quota.Decorators[handler.Context, req](p, "usage_demo", ledger, quiet)
	require.NoError(t, err)
	require.Len(t, limiters, 2)

	h := handler.Wrap(ok, handler.WithDecorators(append([]handler.Decorator[handler.Context, req]{identify(userID)}, limiters...)...))
	for range 3 {
		require.Equal(t, http.StatusOK, call(h).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, call(h).Code)

	merged := p.Merge(quota.Policies{"usage_demo": {{Event: events.KindUpdateData, MaxCalls: 5, WindowHours: 1}}})
	assert.Len(t, merged["usage_demo"], 1)
	assert.Len(t, p["usage_demo"], 2, "merge does not modify the receiver")
}
