package cost

import "sync"

// Tracker accumulates token usage and estimated spend across a run. It is
// safe for concurrent use and passed explicitly to anything that makes
// API calls.
type Tracker struct {
	calc *Calculator

	mu         sync.Mutex
	requests   int
	inputToks  int64
	outputToks int64
	costUSD    float64
}

// NewTracker creates a Tracker pricing usage with the given calculator.
func NewTracker(calc *Calculator) *Tracker {
	return &Tracker{calc: calc}
}

// Record adds one API call's usage to the running totals.
func (t *Tracker) Record(model string, input, output, cacheWrite, cacheRead int64) {
	cost := t.calc.Claude(model, input, output, cacheWrite, cacheRead)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.requests++
	t.inputToks += input + cacheWrite + cacheRead
	t.outputToks += output
	t.costUSD += cost
}

// Summary is a point-in-time snapshot of accumulated usage.
type Summary struct {
	Requests     int     `json:"requests"`
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd"`
}

// Summary returns the current totals.
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Summary{
		Requests:     t.requests,
		InputTokens:  t.inputToks,
		OutputTokens: t.outputToks,
		CostUSD:      t.costUSD,
	}
}

// Reset clears the accumulated totals.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.requests = 0
	t.inputToks = 0
	t.outputToks = 0
	t.costUSD = 0
}
