package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/plancheck/plancheck/internal/schedule"
)

// Store is the in-memory source of truth for all schedules. Persistence and
// reminder resync are side effects of the app layer, not of the store.
type Store struct {
	mu   sync.RWMutex
	data map[string]schedule.Schedule
}

func New() *Store {
	return &Store{data: make(map[string]schedule.Schedule)}
}

func (s *Store) Add(_ context.Context, e *schedule.Schedule) error {
	if err := e.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if _, ok := s.data[e.ID]; ok {
		return fmt.Errorf("duplicate ID %q: %w", e.ID, schedule.ErrDuplicateScheduleID)
	}
	s.data[e.ID] = *e
	return nil
}

func (s *Store) Update(_ context.Context, id string, e schedule.Schedule) error {
	if err := e.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[id]; !ok {
		return fmt.Errorf("failed to update schedule with id %q: %w", id, schedule.ErrNotFoundSchedule)
	}
	e.ID = id
	s.data[e.ID] = e
	return nil
}

func (s *Store) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[id]; !ok {
		return fmt.Errorf("failed to remove schedule with id %q: %w", id, schedule.ErrNotFoundSchedule)
	}
	delete(s.data, id)
	return nil
}

func (s *Store) Clear(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]schedule.Schedule)
}

func (s *Store) Get(_ context.Context, id string) (schedule.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[id]
	if !ok {
		return schedule.Schedule{}, fmt.Errorf("failed to get schedule with id %q: %w", id, schedule.ErrNotFoundSchedule)
	}
	return e, nil
}

// List returns a snapshot of every schedule, in no particular order.
func (s *Store) List(_ context.Context) []schedule.Schedule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	schedules := make([]schedule.Schedule, 0, len(s.data))
	for _, e := range s.data {
		schedules = append(schedules, e)
	}
	return schedules
}

// Scheduled returns schedules with a fixed time, ascending by start time.
func (s *Store) Scheduled(ctx context.Context) []schedule.Schedule {
	schedules := make([]schedule.Schedule, 0)
	for _, e := range s.List(ctx) {
		if !e.IsHeld() {
			schedules = append(schedules, e)
		}
	}
	sort.Slice(schedules, func(i, j int) bool {
		return schedules[i].StartTime.Before(*schedules[j].StartTime)
	})
	return schedules
}

// Undecided returns held schedules, unordered.
func (s *Store) Undecided(ctx context.Context) []schedule.Schedule {
	schedules := make([]schedule.Schedule, 0)
	for _, e := range s.List(ctx) {
		if e.IsHeld() {
			schedules = append(schedules, e)
		}
	}
	return schedules
}

// Replace swaps the whole contents, used by load and import.
func (s *Store) Replace(_ context.Context, schedules []schedule.Schedule) error {
	data := make(map[string]schedule.Schedule, len(schedules))
	for _, e := range schedules {
		if _, ok := data[e.ID]; ok {
			return fmt.Errorf("duplicate ID %q: %w", e.ID, schedule.ErrDuplicateScheduleID)
		}
		data[e.ID] = e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	return nil
}
