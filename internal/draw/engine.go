// Package draw runs the animated winner-selection process for one raffle week.
//
// A Session owns three independent timers: the cosmetic cycling stepper, the
// once-per-second countdown display, and the selection deadline. Only the
// deadline decides the winner; the cycling cursor has no influence on it.
package draw

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/logger"
	"github.com/google/uuid"

	"raffle/internal/models"
)

// ErrEmptyPool is returned when a draw is started with no contestants.
var ErrEmptyPool = errors.New("contestant pool is empty")

// ErrNotDecided is returned when a winner is requested before the deadline.
var ErrNotDecided = errors.New("draw has not decided a winner yet")

// Timings controls the duration of every scheduled part of a draw. The zero
// value is not usable; call DefaultTimings.
type Timings struct {
	// DrawDuration is the wall-clock length of the cycling phase.
	DrawDuration time.Duration
	// CycleStartDelay is the initial delay between cursor advances.
	CycleStartDelay time.Duration
	// CycleStepDelay is added to the delay after every advance (ease-out).
	CycleStepDelay time.Duration
	// CycleMaxDelay caps the advance delay.
	CycleMaxDelay time.Duration
	// CountdownInterval is the cadence of the seconds-remaining display.
	CountdownInterval time.Duration
	// CelebrationDuration and CelebrationInterval shape the confetti burst
	// schedule fired after the winner is decided.
	CelebrationDuration time.Duration
	CelebrationInterval time.Duration
}

// DefaultTimings returns the production timings: a 60 second draw, cycling
// that eases from 50ms out to 500ms, and a 5 second celebration.
func DefaultTimings() Timings {
	return Timings{
		DrawDuration:        60 * time.Second,
		CycleStartDelay:     50 * time.Millisecond,
		CycleStepDelay:      15 * time.Millisecond,
		CycleMaxDelay:       500 * time.Millisecond,
		CountdownInterval:   time.Second,
		CelebrationDuration: 5 * time.Second,
		CelebrationInterval: 250 * time.Millisecond,
	}
}

// State is the lifecycle position of a Session.
type State int

const (
	// StateCycling means the cursor is advancing and no winner exists yet.
	StateCycling State = iota
	// StateDecided means the winner has been selected and awaits the
	// caller's confirm (or abandon). Terminal for the engine.
	StateDecided
	// StateClosed means the session was torn down. All timers are dead.
	StateClosed
)

// Engine creates draw sessions. It never touches persistence: a decided
// winner is only handed to the caller, who owns the commit.
type Engine struct {
	timings  Timings
	randIntn func(int) int
	randFlt  func() float64

	mu       sync.Mutex
	current  uuid.UUID
	listener func(Event)
}

// New returns an engine using the given timings and the shared math/rand
// source for selection.
func New(timings Timings) *Engine {
	return &Engine{
		timings:  timings,
		randIntn: rand.Intn,
		randFlt:  rand.Float64,
	}
}

// SetRand replaces the selection randomness. Tests use this to force a
// specific winner index.
func (e *Engine) SetRand(fn func(n int) int) {
	e.randIntn = fn
}

// Notify registers the single listener that receives session events. Must be
// set before Start.
func (e *Engine) Notify(fn func(Event)) {
	e.mu.Lock()
	e.listener = fn
	e.mu.Unlock()
}

// Start begins a draw for week over pool. The pool is snapshotted: later
// changes to the caller's slice do not affect the running draw.
func (e *Engine) Start(week int, pool []models.Contestant) (*Session, error) {
	if len(pool) == 0 {
		return nil, ErrEmptyPool
	}

	snapshot := make([]models.Contestant, len(pool))
	copy(snapshot, pool)

	interval := e.timings.CountdownInterval
	if interval <= 0 {
		interval = time.Second
	}

	s := &Session{
		id:          uuid.New(),
		week:        week,
		engine:      e,
		pool:        snapshot,
		state:       StateCycling,
		secondsLeft: int(e.timings.DrawDuration / interval),
		cycleDelay:  e.timings.CycleStartDelay,
		stopped:     make(chan struct{}),
	}

	e.mu.Lock()
	e.current = s.id
	e.mu.Unlock()

	s.cycleTimer = time.AfterFunc(s.cycleDelay, s.cycleStep)
	s.deadlineTimer = time.AfterFunc(e.timings.DrawDuration, s.decide)
	go s.runCountdown(interval)

	logger.Infof("Draw started for week %d with %d contestants (session %s)", week, len(snapshot), s.id)
	return s, nil
}

// isCurrent reports whether id belongs to the engine's live session. Stale
// timer callbacks from a torn-down session fail this check.
func (e *Engine) isCurrent(id uuid.UUID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current == id
}

func (e *Engine) release(id uuid.UUID) {
	e.mu.Lock()
	if e.current == id {
		e.current = uuid.Nil
	}
	e.mu.Unlock()
}

func (e *Engine) emit(ev Event) {
	e.mu.Lock()
	fn := e.listener
	e.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

// Session is one in-progress, uncommitted draw for a single week.
type Session struct {
	id     uuid.UUID
	week   int
	engine *Engine

	mu            sync.Mutex
	pool          []models.Contestant
	cursor        int
	secondsLeft   int
	cycleDelay    time.Duration
	state         State
	winner        models.Contestant
	hasWinner     bool
	cycleTimer    *time.Timer
	deadlineTimer *time.Timer
	stopped       chan struct{}
	stopOnce      sync.Once
}

// ID returns the session identity token.
func (s *Session) ID() uuid.UUID { return s.id }

// Week returns the week the session is drawing for.
func (s *Session) Week() int { return s.week }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Cursor returns the index the cycling pointer currently rests on.
func (s *Session) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// SecondsLeft returns the displayed countdown value.
func (s *Session) SecondsLeft() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.secondsLeft
}

// Winner returns the selected contestant. It fails until the session reaches
// StateDecided.
func (s *Session) Winner() (models.Contestant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasWinner {
		return models.Contestant{}, ErrNotDecided
	}
	return s.winner, nil
}

// cycleStep advances the cosmetic cursor and reschedules itself with a
// monotonically growing delay.
func (s *Session) cycleStep() {
	s.mu.Lock()
	if s.state != StateCycling || !s.engine.isCurrent(s.id) {
		s.mu.Unlock()
		return
	}
	s.cursor = (s.cursor + 1) % len(s.pool)
	if s.cycleDelay < s.engine.timings.CycleMaxDelay {
		s.cycleDelay += s.engine.timings.CycleStepDelay
		if s.cycleDelay > s.engine.timings.CycleMaxDelay {
			s.cycleDelay = s.engine.timings.CycleMaxDelay
		}
	}
	s.cycleTimer = time.AfterFunc(s.cycleDelay, s.cycleStep)
	cursor := s.cursor
	s.mu.Unlock()

	s.engine.emit(Event{Session: s.id, Week: s.week, Type: EventCycle, Cursor: cursor})
}

// runCountdown drives the seconds-remaining display. It is independent of
// both the cycling chain and the deadline.
func (s *Session) runCountdown(interval time.Duration) {
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-s.stopped:
			return
		case <-tick.C:
			s.mu.Lock()
			if s.state != StateCycling || !s.engine.isCurrent(s.id) {
				s.mu.Unlock()
				return
			}
			if s.secondsLeft > 0 {
				s.secondsLeft--
			}
			left := s.secondsLeft
			s.mu.Unlock()

			s.engine.emit(Event{Session: s.id, Week: s.week, Type: EventCountdown, SecondsLeft: left})
		}
	}
}

// decide fires at the deadline. It stops the cycling chain first, then draws
// the winner uniformly, so cycling can never race or influence selection.
func (s *Session) decide() {
	s.mu.Lock()
	if s.state != StateCycling || !s.engine.isCurrent(s.id) {
		s.mu.Unlock()
		return
	}
	if s.cycleTimer != nil {
		s.cycleTimer.Stop()
	}
	idx := s.engine.randIntn(len(s.pool))
	s.winner = s.pool[idx]
	s.hasWinner = true
	s.state = StateDecided
	s.secondsLeft = 0
	winner := s.winner
	s.mu.Unlock()

	logger.Infof("Week %d draw decided: %s (%s)", s.week, winner.Name, winner.Department)
	s.engine.emit(Event{Session: s.id, Week: s.week, Type: EventDecided, Winner: &winner})

	go s.celebrate()
}

// celebrate emits confetti bursts from two symmetric edge origins with a
// particle count that decays linearly over the celebration window.
func (s *Session) celebrate() {
	timings := s.engine.timings
	tick := time.NewTicker(timings.CelebrationInterval)
	defer tick.Stop()
	end := time.Now().Add(timings.CelebrationDuration)

	for {
		select {
		case <-s.stopped:
			return
		case now := <-tick.C:
			remaining := end.Sub(now)
			if remaining <= 0 {
				return
			}
			count := int(50 * float64(remaining) / float64(timings.CelebrationDuration))
			burst := &ConfettiBurst{
				ParticleCount: count,
				Origins: [2]Origin{
					{X: 0.1 + 0.2*s.engine.randFlt(), Y: s.engine.randFlt() - 0.2},
					{X: 0.7 + 0.2*s.engine.randFlt(), Y: s.engine.randFlt() - 0.2},
				},
			}
			s.engine.emit(Event{Session: s.id, Week: s.week, Type: EventConfetti, Burst: burst})
		}
	}
}

// Close tears the session down: every timer is cancelled and any callback
// still in flight becomes a no-op. Safe to call repeatedly and from any
// state; closing before the deadline means no winner is ever produced.
func (s *Session) Close() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	if s.cycleTimer != nil {
		s.cycleTimer.Stop()
	}
	if s.deadlineTimer != nil {
		s.deadlineTimer.Stop()
	}
	s.mu.Unlock()

	s.stopOnce.Do(func() { close(s.stopped) })
	s.engine.release(s.id)
	s.engine.emit(Event{Session: s.id, Week: s.week, Type: EventClosed})
}
