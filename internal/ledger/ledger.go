// Package ledger holds the permanent record of confirmed weekly winners.
package ledger

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/logger"

	"raffle/internal/models"
	"raffle/internal/store"
)

var (
	// ErrDuplicateWinner is returned when a week already has a confirmed winner.
	ErrDuplicateWinner = errors.New("week already has a winner")
	// ErrNoWinner is returned when removing a week that has no winner.
	ErrNoWinner = errors.New("no winner recorded for week")
)

// seedWinners is the built-in history used when storage holds no winner list.
func seedWinners() []models.Winner {
	return []models.Winner{
		{Name: "Syed Ala Uddin", Supervisor: "Kalyan", Department: "International Hosting", Week: 1, PrizeAmount: models.PrizeAmount},
		{Name: "Dhanraj S", Supervisor: "Srikanth Janga", Department: "International Messaging - Hosting", Week: 2, PrizeAmount: models.PrizeAmount},
		{Name: "Priya Raghavan", Supervisor: "Srikanth Janga", Department: "International Messaging - Hosting", Week: 3, PrizeAmount: models.PrizeAmount},
	}
}

// Ledger maps week numbers to confirmed winners, persisting through an
// injected store on every mutation. At most one winner per week.
type Ledger struct {
	mu      sync.RWMutex
	store   store.Store
	winners map[int]models.Winner
	subs    []func()
}

// Open loads the ledger from st, seeding the built-in history if storage is
// empty.
func Open(st store.Store) (*Ledger, error) {
	l := &Ledger{store: st, winners: make(map[int]models.Winner)}

	var stored []models.Winner
	ok, err := st.Get(store.KeyWinners, &stored)
	if err != nil {
		return nil, fmt.Errorf("load winners: %w", err)
	}
	if !ok {
		stored = seedWinners()
		logger.Infof("No stored winners found, seeding %d built-in entries", len(stored))
	}
	for _, w := range stored {
		if _, dup := l.winners[w.Week]; dup {
			logger.Warningf("Dropping duplicate stored winner for week %d (%s)", w.Week, w.Name)
			continue
		}
		l.winners[w.Week] = w
	}
	return l, nil
}

// Subscribe registers fn to run after every successful mutation.
func (l *Ledger) Subscribe(fn func()) {
	l.mu.Lock()
	l.subs = append(l.subs, fn)
	l.mu.Unlock()
}

// Add records w as the winner of its week. Fails with ErrDuplicateWinner if
// the week is already decided.
func (l *Ledger) Add(w models.Winner) error {
	l.mu.Lock()
	if _, dup := l.winners[w.Week]; dup {
		l.mu.Unlock()
		return fmt.Errorf("week %d: %w", w.Week, ErrDuplicateWinner)
	}
	l.winners[w.Week] = w
	err := l.persistLocked()
	l.mu.Unlock()

	if err != nil {
		return err
	}
	l.notify()
	return nil
}

// Remove deletes the winner for week. This is the only reversal path for a
// confirmed draw.
func (l *Ledger) Remove(week int) error {
	l.mu.Lock()
	if _, ok := l.winners[week]; !ok {
		l.mu.Unlock()
		return fmt.Errorf("week %d: %w", week, ErrNoWinner)
	}
	delete(l.winners, week)
	err := l.persistLocked()
	l.mu.Unlock()

	if err != nil {
		return err
	}
	l.notify()
	return nil
}

// Winner returns the winner for week, if any.
func (l *Ledger) Winner(week int) (models.Winner, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	w, ok := l.winners[week]
	return w, ok
}

// List returns all winners sorted by week.
func (l *Ledger) List() []models.Winner {
	l.mu.RLock()
	out := make([]models.Winner, 0, len(l.winners))
	for _, w := range l.winners {
		out = append(out, w)
	}
	l.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Week < out[j].Week })
	return out
}

func (l *Ledger) persistLocked() error {
	list := make([]models.Winner, 0, len(l.winners))
	for _, w := range l.winners {
		list = append(list, w)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Week < list[j].Week })
	return l.store.Put(store.KeyWinners, list)
}

func (l *Ledger) notify() {
	l.mu.RLock()
	subs := make([]func(), len(l.subs))
	copy(subs, l.subs)
	l.mu.RUnlock()
	for _, fn := range subs {
		fn()
	}
}
