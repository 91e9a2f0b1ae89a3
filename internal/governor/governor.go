// Package governor gatekeeps every outbound call a pipeline makes. Each
// pipeline (place enrichment, hours enrichment) owns one Governor instance
// combining a session call budget, minimum wall-clock spacing between calls,
// and a persisted cooldown window tripped by quota exhaustion.
//
// The budget resets every session; the cooldown survives restarts until it
// naturally expires. Once the budget is spent or a cooldown is active, no
// call is attempted for the rest of the affected period. Orchestrators must
// acquire immediately before every call, not once per pipeline entry, because
// state can change between the resolution call and the detail call.
package governor

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"places-enricher/internal/common/logging"
	"places-enricher/internal/models"
	"places-enricher/internal/store"
)

var (
	// ErrBudgetExhausted means the session call ceiling has been reached.
	// This is normal control flow, not a failure.
	ErrBudgetExhausted = errors.New("session call budget exhausted")
	// ErrCooldownActive means a persisted cooldown window is still open.
	ErrCooldownActive = errors.New("pipeline is in cooldown")
)

// Config configures a Governor.
type Config struct {
	// Pipeline names the governed pipeline; it keys the persisted cooldown
	// flag and appears in logs.
	Pipeline string
	// MaxCalls is the session call ceiling.
	MaxCalls int
	// Spacing is the minimum wall-clock interval between consecutive calls.
	Spacing time.Duration
	// CooldownDays is the width of the cooldown window set on quota
	// exhaustion.
	CooldownDays int
	// Now overrides the clock; nil means time.Now. Tests use this.
	Now func() time.Time
}

// cooldownRecord is the persisted cooldown flag.
type cooldownRecord struct {
	Until  time.Time `json:"until"`
	SetAt  time.Time `json:"set_at"`
	Reason string    `json:"reason"`
}

// Governor is the per-pipeline call gate. Construct one per pipeline for the
// lifetime of the process and funnel every caller through it; a second
// instance would make the ceiling meaningless.
type Governor struct {
	pipeline     string
	maxCalls     int
	cooldownDays int
	throttle     *rate.Limiter
	store        store.Store
	logger       logging.Logger
	now          func() time.Time

	mu        sync.Mutex
	callsMade int
	lastCall  time.Time

	// In-memory mirror of the persisted flag, used when the store is
	// unreadable. Refusing calls on a stale mirror is the safe direction.
	cooldownUntil time.Time
}

// New creates a governor backed by st for cooldown persistence.
func New(cfg Config, st store.Store) *Governor {
	if cfg.MaxCalls <= 0 {
		cfg.MaxCalls = 10
	}
	if cfg.Spacing <= 0 {
		cfg.Spacing = time.Second
	}
	if cfg.CooldownDays <= 0 {
		cfg.CooldownDays = 7
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	g := &Governor{
		pipeline:     cfg.Pipeline,
		maxCalls:     cfg.MaxCalls,
		cooldownDays: cfg.CooldownDays,
		throttle:     rate.NewLimiter(rate.Every(cfg.Spacing), 1),
		store:        st,
		logger:       logging.GetGlobalLogger().WithFields(logging.String("pipeline", cfg.Pipeline)),
		now:          now,
	}
	g.cooldownUntil = g.readCooldown()
	return g
}

// CanMakeCall reports whether the session budget has calls remaining.
func (g *Governor) CanMakeCall() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.callsMade < g.maxCalls
}

// RecordCall atomically checks and increments the session counter. It returns
// false, with no state change, when the ceiling is already reached; callers
// treat that as "no call happened", not as an error.
func (g *Governor) RecordCall() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.callsMade >= g.maxCalls {
		return false
	}
	g.callsMade++
	g.lastCall = g.now()
	return true
}

// InCooldown reports whether the persisted cooldown window is still open.
func (g *Governor) InCooldown() bool {
	return g.now().Before(g.CooldownUntil())
}

// CooldownUntil returns the end of the current cooldown window, or the zero
// time when none is set.
func (g *Governor) CooldownUntil() time.Time {
	until, ok := g.readCooldownChecked()

	g.mu.Lock()
	defer g.mu.Unlock()
	if ok {
		g.cooldownUntil = until
	}
	return g.cooldownUntil
}

// SetCooldown persists a cooldown window ending cooldownDays from now. Called
// exactly when the lookup service signals quota exhaustion; expiry of the
// window is the sole recovery mechanism.
func (g *Governor) SetCooldown(reason string) time.Time {
	until := g.now().Add(time.Duration(g.cooldownDays) * 24 * time.Hour)

	g.mu.Lock()
	g.cooldownUntil = until
	g.mu.Unlock()

	record := cooldownRecord{Until: until, SetAt: g.now(), Reason: reason}
	raw, err := json.Marshal(record)
	if err == nil {
		err = g.store.Set(context.Background(), models.CooldownStoreKey(g.pipeline), raw)
	}
	if err != nil {
		g.logger.Warn("failed to persist cooldown flag, keeping in-memory only",
			logging.Err(err))
	}

	g.logger.Warn("cooldown set after quota exhaustion",
		logging.String("reason", reason),
		logging.Time("until", until))
	return until
}

// ClearCooldown removes the persisted cooldown flag. Diagnostics only; normal
// recovery is the window expiring.
func (g *Governor) ClearCooldown() {
	g.mu.Lock()
	g.cooldownUntil = time.Time{}
	g.mu.Unlock()

	if err := g.store.Delete(context.Background(), models.CooldownStoreKey(g.pipeline)); err != nil {
		g.logger.Warn("failed to clear cooldown flag", logging.Err(err))
	}
}

// Acquire performs the full pre-call gate: cooldown check, budget check,
// throttle wait, then a final cooldown re-check and the atomic budget
// consumption. On success exactly one budget slot has been consumed and the
// caller may make one network call.
func (g *Governor) Acquire(ctx context.Context) error {
	if g.InCooldown() {
		return ErrCooldownActive
	}
	if !g.CanMakeCall() {
		return ErrBudgetExhausted
	}

	if err := g.throttle.Wait(ctx); err != nil {
		return err
	}

	// State may have moved while we were parked on the throttle.
	if g.InCooldown() {
		return ErrCooldownActive
	}
	if !g.RecordCall() {
		return ErrBudgetExhausted
	}
	return nil
}

// Stats is the non-blocking diagnostics snapshot.
type Stats struct {
	Pipeline      string     `json:"pipeline"`
	CallsMade     int        `json:"calls_made_this_session"`
	MaxCalls      int        `json:"max_calls"`
	InCooldown    bool       `json:"in_cooldown"`
	CooldownUntil *time.Time `json:"cooldown_until,omitempty"`
	LastCall      *time.Time `json:"last_call,omitempty"`
}

// Stats returns the current session and cooldown state.
func (g *Governor) Stats() Stats {
	inCooldown := g.InCooldown()

	g.mu.Lock()
	defer g.mu.Unlock()

	stats := Stats{
		Pipeline:   g.pipeline,
		CallsMade:  g.callsMade,
		MaxCalls:   g.maxCalls,
		InCooldown: inCooldown,
	}
	if !g.cooldownUntil.IsZero() {
		until := g.cooldownUntil
		stats.CooldownUntil = &until
	}
	if !g.lastCall.IsZero() {
		last := g.lastCall
		stats.LastCall = &last
	}
	return stats
}

// readCooldown loads the persisted flag at construction time.
func (g *Governor) readCooldown() time.Time {
	until, _ := g.readCooldownChecked()
	return until
}

// readCooldownChecked loads the persisted flag. The second return is false
// when the store could not be read, in which case the in-memory mirror still
// applies; refusing calls on stale state is the safe direction.
func (g *Governor) readCooldownChecked() (time.Time, bool) {
	raw, found, err := g.store.Get(context.Background(), models.CooldownStoreKey(g.pipeline))
	if err != nil {
		g.logger.Warn("failed to read cooldown flag", logging.Err(err))
		return time.Time{}, false
	}
	if !found {
		return time.Time{}, true
	}

	var record cooldownRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		g.logger.Warn("corrupt cooldown flag, ignoring", logging.Err(err))
		return time.Time{}, true
	}
	return record.Until, true
}
