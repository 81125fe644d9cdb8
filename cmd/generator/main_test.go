package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDemoEvents(t *testing.T) {
	now := time.Date(2026, 3, 1, 18, 30, 0, 0, time.UTC)
	reqs := demoEvents(now, 2, 3, 4, 10)

	assert.Len(t, reqs, 2)
	assert.Equal(t, 22, reqs[0].Capacity)
	assert.Equal(t, "Demo concert #2", reqs[1].Name)
	assert.Equal(t, time.Date(2026, 3, 8, 18, 0, 0, 0, time.UTC), reqs[0].StartsAt)
	assert.Equal(t, 24*time.Hour, reqs[1].StartsAt.Sub(reqs[0].StartsAt))
	for _, req := range reqs {
		assert.True(t, req.StartsAt.After(now))
		assert.LessOrEqual(t, req.SeatRows*req.SeatsPerRow, req.Capacity)
	}
}
