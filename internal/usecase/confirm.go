package usecase

import (
	"sync"
	"time"

	"github.com/vitos/crypto_crash_risk/internal/domain"
)

// ConfirmRequired is how many consecutive cycles a raw signal must hold
// before it becomes actionable. At the nominal 15s cycle this means a signal
// has to survive roughly 30s of market data.
const ConfirmRequired = 2

// ConfirmCounter is a generic N-consecutive-samples debounce, shared by the
// crowding and liquidity pillars so the two cannot drift apart.
type ConfirmCounter struct {
	Required int  `json:"required"`
	Count    int  `json:"count"`
	LastRaw  bool `json:"last_raw"`
}

func NewConfirmCounter(required int) ConfirmCounter {
	return ConfirmCounter{Required: required}
}

// Update advances the counter with this cycle's raw value and reports whether
// the signal is confirmed. The consecutive check compares against the raw
// value recorded on the previous cycle, never one computed in the same pass.
// Any false resets the counter immediately.
func (c *ConfirmCounter) Update(raw bool) bool {
	if raw {
		if c.LastRaw {
			c.Count++
		} else {
			c.Count = 1
		}
		if c.Count > c.Required {
			c.Count = c.Required
		}
	} else {
		c.Count = 0
	}
	c.LastRaw = raw
	return c.Confirmed()
}

func (c *ConfirmCounter) Confirmed() bool {
	return c.Count >= c.Required
}

// CoinMemoryState is everything the engine remembers about a coin between
// cycles. It lives only in memory and is rebuilt from scratch after restart.
type CoinMemoryState struct {
	Venue     string
	Crowding  ConfirmCounter
	Liquidity ConfirmCounter
	LastState domain.RiskState
	EnteredAt time.Time
}

// MemoryArena owns all per-coin memory, keyed by symbol. Only the single
// active cycle mutates it; the lock covers readers like the staleness path.
type MemoryArena struct {
	states map[string]*CoinMemoryState
	mu     sync.RWMutex
}

func NewMemoryArena() *MemoryArena {
	return &MemoryArena{states: make(map[string]*CoinMemoryState)}
}

// Get returns the state for a symbol, creating it lazily on first use. When
// the symbol has migrated to a different settlement venue the old memory is
// discarded: confirmation counters and cooldowns do not carry across venues.
func (a *MemoryArena) Get(symbol, venue string) *CoinMemoryState {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, ok := a.states[symbol]
	if !ok || s.Venue != venue {
		s = &CoinMemoryState{
			Venue:     venue,
			Crowding:  NewConfirmCounter(ConfirmRequired),
			Liquidity: NewConfirmCounter(ConfirmRequired),
		}
		a.states[symbol] = s
	}
	return s
}

// Peek returns the state without creating it.
func (a *MemoryArena) Peek(symbol string) (*CoinMemoryState, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s, ok := a.states[symbol]
	return s, ok
}

// Prune drops memory for coins no longer in the active set so the arena does
// not grow without bound as the watch list changes.
func (a *MemoryArena) Prune(active map[string]bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for symbol := range a.states {
		if !active[symbol] {
			delete(a.states, symbol)
		}
	}
}

// Len reports how many coins currently hold memory.
func (a *MemoryArena) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.states)
}
