package cost

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracker(t *testing.T) {
	t.Parallel()

	tr := NewTracker(NewCalculator(testRates()))
	tr.Record("haiku", 1000000, 100000, 0, 0)
	tr.Record("sonnet", 500000, 50000, 0, 0)

	s := tr.Summary()
	assert.Equal(t, 2, s.Requests)
	assert.Equal(t, int64(1500000), s.InputTokens)
	assert.Equal(t, int64(150000), s.OutputTokens)
	assert.InDelta(t, 1.20+2.25, s.CostUSD, 0.0001)
}

func TestTracker_Reset(t *testing.T) {
	t.Parallel()

	tr := NewTracker(NewCalculator(testRates()))
	tr.Record("haiku", 1000, 1000, 0, 0)
	tr.Reset()

	s := tr.Summary()
	assert.Zero(t, s.Requests)
	assert.Zero(t, s.CostUSD)
}

func TestTracker_Concurrent(t *testing.T) {
	t.Parallel()

	tr := NewTracker(NewCalculator(testRates()))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Record("haiku", 1000, 100, 0, 0)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, tr.Summary().Requests)
}
