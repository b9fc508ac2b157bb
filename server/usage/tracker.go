// Package usage keeps an in-process ledger of provider token consumption so
// the desktop shell can show what a session has burned. The ledger groups by
// board and by operation and lives for the process lifetime; persisted cost
// history is not a goal for a single-user engine.
package usage

import (
	"sync"
	"time"
)

// Totals is the accumulated accounting of one ledger grouping.
type Totals struct {
	Calls            int64  `json:"calls"`
	PromptTokens     int64  `json:"promptTokens"`
	CompletionTokens int64  `json:"completionTokens"`
	TotalTokens      int64  `json:"totalTokens"`
	LastModel        string `json:"lastModel,omitempty"`
	LastCallTs       int64  `json:"lastCallTs"`
}

func (t *Totals) add(model string, prompt, completion, total int64, now int64) {
	t.Calls++
	t.PromptTokens += prompt
	t.CompletionTokens += completion
	t.TotalTokens += total
	if model != "" {
		t.LastModel = model
	}
	t.LastCallTs = now
}

// Report is a detached snapshot of the ledger.
type Report struct {
	Total       Totals            `json:"total"`
	ByBoard     map[string]Totals `json:"byBoard"`
	ByOperation map[string]Totals `json:"byOperation"`
}

// Tracker accumulates token usage across provider calls. Safe for concurrent
// use.
type Tracker struct {
	mu          sync.RWMutex
	total       Totals
	byBoard     map[string]*Totals
	byOperation map[string]*Totals
}

// NewTracker creates an empty ledger.
func NewTracker() *Tracker {
	return &Tracker{
		byBoard:     make(map[string]*Totals),
		byOperation: make(map[string]*Totals),
	}
}

// Record adds one provider call. Negative token counts are clamped to zero
// and a missing total is derived from its parts, so a provider that skips
// usage accounting still gets its call counted.
func (t *Tracker) Record(boardID, operation, model string, promptTokens, completionTokens, totalTokens int) {
	prompt := clamp(promptTokens)
	completion := clamp(completionTokens)
	total := clamp(totalTokens)
	if total == 0 {
		total = prompt + completion
	}
	now := time.Now().Unix()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.total.add(model, prompt, completion, total, now)
	if boardID != "" {
		t.grouping(t.byBoard, boardID).add(model, prompt, completion, total, now)
	}
	if operation != "" {
		t.grouping(t.byOperation, operation).add(model, prompt, completion, total, now)
	}
}

func (t *Tracker) grouping(m map[string]*Totals, key string) *Totals {
	if g, ok := m[key]; ok {
		return g
	}
	g := &Totals{}
	m[key] = g
	return g
}

// Report returns a copy of the ledger detached from the live counters.
func (t *Tracker) Report() *Report {
	t.mu.RLock()
	defer t.mu.RUnlock()

	report := &Report{
		Total:       t.total,
		ByBoard:     make(map[string]Totals, len(t.byBoard)),
		ByOperation: make(map[string]Totals, len(t.byOperation)),
	}
	for id, g := range t.byBoard {
		report.ByBoard[id] = *g
	}
	for op, g := range t.byOperation {
		report.ByOperation[op] = *g
	}
	return report
}

// Reset clears the ledger.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.total = Totals{}
	t.byBoard = make(map[string]*Totals)
	t.byOperation = make(map[string]*Totals)
}

func clamp(n int) int64 {
	if n < 0 {
		return 0
	}
	return int64(n)
}
