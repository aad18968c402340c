// Package raffle orchestrates the weekly raffle: it projects week statuses,
// guards the single in-flight draw, and owns the commit of decided winners
// into the ledger.
package raffle

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/logger"
	"github.com/google/uuid"

	"raffle/internal/auth"
	"raffle/internal/draw"
	"raffle/internal/drawdates"
	"raffle/internal/ledger"
	"raffle/internal/models"
)

var (
	// ErrDrawInProgress is returned when a draw session is already running.
	ErrDrawInProgress = errors.New("a draw is already in progress")
	// ErrDrawNotAllowed is returned when a week is not eligible to draw.
	ErrDrawNotAllowed = errors.New("week is not eligible for a draw")
	// ErrNoSession is returned when a confirm refers to no live session.
	ErrNoSession = errors.New("no matching draw session")
)

// Service wires the contestant pools, the winner ledger, the draw-date
// source and the draw engine together behind one mutex-guarded API.
type Service struct {
	mu     sync.Mutex
	pools  map[int][]models.Contestant
	ledger *ledger.Ledger
	dates  *drawdates.Source
	engine *draw.Engine
	gate   *auth.Gate
	active *draw.Session

	clientsMu sync.Mutex
	clients   map[*Client]struct{}

	now func() time.Time
}

// NewService builds the orchestrator and starts forwarding engine and ledger
// events to subscribed clients.
func NewService(pools map[int][]models.Contestant, l *ledger.Ledger, dates *drawdates.Source, engine *draw.Engine, gate *auth.Gate) *Service {
	s := &Service{
		pools:   pools,
		ledger:  l,
		dates:   dates,
		engine:  engine,
		gate:    gate,
		clients: map[*Client]struct{}{},
		now:     time.Now,
	}
	engine.Notify(func(ev draw.Event) {
		s.broadcast(Event{Type: string(ev.Type), Data: ev})
	})
	l.Subscribe(func() {
		// Async: ledger mutations run inside service calls that already
		// hold the service mutex, and State needs it too.
		go func() {
			s.broadcast(Event{Type: "state", Data: s.State()})
		}()
	})
	return s
}

// Weeks projects the current status of every known week: every week with a
// pool, a winner, or a configured draw date.
func (s *Service) Weeks() []models.WeekRecord {
	dates := s.dates.Dates()
	winners := s.ledger.List()

	known := map[int]bool{}
	for week := range s.pools {
		known[week] = true
	}
	for week := range dates {
		known[week] = true
	}
	for _, w := range winners {
		known[w.Week] = true
	}

	weeks := make([]int, 0, len(known))
	for week := range known {
		weeks = append(weeks, week)
	}
	sort.Ints(weeks)

	records := make([]models.WeekRecord, 0, len(weeks))
	for _, week := range weeks {
		records = append(records, s.project(week, dates))
	}
	return records
}

// Week projects a single week.
func (s *Service) Week(week int) models.WeekRecord {
	return s.project(week, s.dates.Dates())
}

// project derives one WeekRecord. A week is completed exactly when the
// ledger holds a winner for it; a week with an empty pool can never be
// active or drawable.
func (s *Service) project(week int, dates map[int]time.Time) models.WeekRecord {
	rec := models.WeekRecord{Week: week}

	if pool, ok := s.pools[week]; ok {
		rec.Contestants = make([]models.Contestant, len(pool))
		copy(rec.Contestants, pool)
	}
	if date, ok := dates[week]; ok {
		d := date
		rec.DrawDate = &d
	}
	if w, ok := s.ledger.Winner(week); ok {
		winner := w
		rec.Winner = &winner
	}

	switch {
	case rec.Winner != nil:
		rec.Status = models.StatusCompleted
	case len(rec.Contestants) > 0:
		rec.Status = models.StatusActive
	default:
		rec.Status = models.StatusComingSoon
	}

	rec.CanDraw = len(rec.Contestants) > 0 &&
		rec.Status != models.StatusCompleted &&
		(rec.DrawDate == nil || !s.now().Before(*rec.DrawDate))
	return rec
}

// StartDraw begins the animated draw for week. At most one session runs at a
// time across all weeks; eligibility is re-checked here so the engine is
// never handed an empty or already-completed week.
func (s *Service) StartDraw(week int) (*draw.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil && s.active.State() != draw.StateClosed {
		return nil, ErrDrawInProgress
	}
	s.active = nil

	rec := s.Week(week)
	if !rec.CanDraw {
		return nil, fmt.Errorf("week %d: %w", week, ErrDrawNotAllowed)
	}

	session, err := s.engine.Start(week, rec.Contestants)
	if err != nil {
		return nil, err
	}
	s.active = session
	return session, nil
}

// ConfirmDraw commits the decided winner of the given session into the
// ledger. This is the second phase of the two-phase draw: nothing is
// persisted until here, and after here deletion is the only way back.
func (s *Service) ConfirmDraw(sessionID uuid.UUID) (models.Winner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil || s.active.ID() != sessionID {
		return models.Winner{}, ErrNoSession
	}

	contestant, err := s.active.Winner()
	if err != nil {
		return models.Winner{}, err
	}
	winner := models.Winner{
		Name:        contestant.Name,
		Supervisor:  contestant.Supervisor,
		Department:  contestant.Department,
		Week:        s.active.Week(),
		PrizeAmount: models.PrizeAmount,
	}
	if err := s.ledger.Add(winner); err != nil {
		return models.Winner{}, err
	}

	logger.Infof("Week %d winner confirmed: %s", winner.Week, winner.Name)
	s.active.Close()
	s.active = nil
	return winner, nil
}

// CancelDraw abandons the session without recording anything. Idempotent:
// cancelling an unknown or already-closed session is a no-op.
func (s *Service) CancelDraw(sessionID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil || s.active.ID() != sessionID {
		return
	}
	s.active.Close()
	s.active = nil
	logger.Infof("Draw session %s abandoned, no winner recorded", sessionID)
}

// ActiveSession returns the in-flight session, if any.
func (s *Service) ActiveSession() *draw.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil && s.active.State() == draw.StateClosed {
		s.active = nil
	}
	return s.active
}

// DeleteWinner removes a confirmed winner after checking the admin password.
// A wrong password changes nothing and is retryable.
func (s *Service) DeleteWinner(week int, password string) error {
	if err := s.gate.Check(password); err != nil {
		return err
	}
	return s.ledger.Remove(week)
}

// Winners lists all confirmed winners.
func (s *Service) Winners() []models.Winner {
	return s.ledger.List()
}
