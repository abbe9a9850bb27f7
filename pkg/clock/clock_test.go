package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/quotaguard/pkg/clock"
)

func TestFake(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := clock.NewFake(start)

	c.Advance(time.Hour)
	assert.Equal(t, start.Add(time.Hour), c.Now())

	var seen time.Time
	c.OnAfter(func(now time.Time) { seen = now })

	fired := <-c.After(250 * time.Millisecond)
	assert.Equal(t, start.Add(time.Hour+250*time.Millisecond), fired)
	assert.Equal(t, fired, seen)
	assert.Equal(t, []time.Duration{250 * time.Millisecond}, c.Waits())
}

func TestReal(t *testing.T) {
	t.Parallel()

	var c clock.Clock = clock.Real{}
	assert.Equal(t, time.UTC, c.Now().Location())
	assert.WithinDuration(t, time.Now(), c.Now(), time.Second)
}
