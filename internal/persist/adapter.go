package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/plancheck/plancheck/internal/kvslot"
	"github.com/plancheck/plancheck/internal/schedule"
	log "github.com/sirupsen/logrus"
)

var (
	ErrStorageWrite = errors.New("failed to write to storage")
	ErrStorageRead  = errors.New("failed to read from storage")
	ErrBadFormat    = errors.New("invalid format: expected array")
)

const (
	// SchedulesKey is the well-known slot key for the schedule envelope.
	SchedulesKey = "plancheck_schedules"

	// Version is the current envelope version.
	Version = 1
)

// envelope is the stored wrapper around the schedule list.
type envelope struct {
	Version      int              `json:"version"`
	Schedules    []storedSchedule `json:"schedules"`
	LastModified string           `json:"lastModified"`
}

// storedSchedule is the wire form of a schedule, with instants as RFC 3339
// text and the held variant keeping explicit nulls.
type storedSchedule struct {
	ID                  string  `json:"id"`
	Title               string  `json:"title"`
	Date                string  `json:"date"`
	StartTime           *string `json:"startTime"`
	EndTime             *string `json:"endTime"`
	IsReminded          bool    `json:"isReminded"`
	RemindBeforeMinutes int     `json:"remindBeforeMinutes"`
	EnableVibration     bool    `json:"enableVibration"`
	EnableSound         bool    `json:"enableSound"`
	EnablePopup         bool    `json:"enablePopup"`
}

// Adapter serializes the schedule list into a versioned envelope kept under
// a single slot key.
type Adapter struct {
	slot kvslot.Slot
	key  string
	now  func() time.Time
}

func New(slot kvslot.Slot) *Adapter {
	return &Adapter{slot: slot, key: SchedulesKey, now: time.Now}
}

func (a *Adapter) Save(ctx context.Context, schedules []schedule.Schedule) error {
	env := envelope{
		Version:      Version,
		Schedules:    encodeSchedules(schedules),
		LastModified: a.now().Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}
	if err := a.slot.Set(ctx, a.key, string(data)); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}
	return nil
}

// Load reads the stored envelope. A missing blob yields an empty list, a
// malformed one fails; the caller decides the fallback.
func (a *Adapter) Load(ctx context.Context) ([]schedule.Schedule, error) {
	data, ok, err := a.slot.Get(ctx, a.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageRead, err)
	}
	if !ok {
		return []schedule.Schedule{}, nil
	}

	var env envelope
	if err := json.Unmarshal([]byte(data), &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageRead, err)
	}
	if env.Version != Version {
		log.Warnf("storage version mismatch: stored %d, current %d, migrating", env.Version, Version)
		env, err = migrate(env)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorageRead, err)
		}
	}
	return decodeSchedules(env.Schedules, a.now()), nil
}

func (a *Adapter) Clear(ctx context.Context) error {
	if err := a.slot.Delete(ctx, a.key); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}
	return nil
}

// Export renders the list as a bare JSON array for portable backup.
func Export(schedules []schedule.Schedule) (string, error) {
	data, err := json.MarshalIndent(encodeSchedules(schedules), "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Import parses a backup produced by Export. The top level must be an array;
// a bare null decodes without error but is not a schedule list.
func Import(text string) ([]schedule.Schedule, error) {
	var stored []storedSchedule
	if err := json.Unmarshal([]byte(text), &stored); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFormat, err)
	}
	if stored == nil {
		return nil, fmt.Errorf("%w: got null", ErrBadFormat)
	}
	return decodeSchedules(stored, time.Now()), nil
}

func encodeSchedules(schedules []schedule.Schedule) []storedSchedule {
	stored := make([]storedSchedule, 0, len(schedules))
	for _, e := range schedules {
		stored = append(stored, storedSchedule{
			ID:                  e.ID,
			Title:               e.Title,
			Date:                e.Date.Format(time.RFC3339Nano),
			StartTime:           encodeInstant(e.StartTime),
			EndTime:             encodeInstant(e.EndTime),
			IsReminded:          e.IsReminded,
			RemindBeforeMinutes: e.RemindBeforeMinutes,
			EnableVibration:     e.EnableVibration,
			EnableSound:         e.EnableSound,
			EnablePopup:         e.EnablePopup,
		})
	}
	return stored
}

// decodeSchedules maps missing or broken fields to safe defaults instead of
// failing the whole load: an absent date becomes now, absent times stay nil.
// A half-usable time pair (one side missing or unparseable) is demoted to
// the held form so the record never violates the both-or-neither invariant.
func decodeSchedules(stored []storedSchedule, now time.Time) []schedule.Schedule {
	schedules := make([]schedule.Schedule, 0, len(stored))
	for _, e := range stored {
		date := now
		if t := decodeInstant(e.Date); t != nil {
			date = *t
		}
		start := decodeInstantPtr(e.StartTime)
		end := decodeInstantPtr(e.EndTime)
		isReminded := e.IsReminded
		if (start == nil) != (end == nil) {
			log.Warnf("schedule %q has a broken time pair, keeping it as held", e.ID)
			start, end = nil, nil
		}
		if start == nil {
			isReminded = false
		}
		schedules = append(schedules, schedule.Schedule{
			ID:                  e.ID,
			Title:               e.Title,
			Date:                date,
			StartTime:           start,
			EndTime:             end,
			IsReminded:          isReminded,
			RemindBeforeMinutes: e.RemindBeforeMinutes,
			EnableVibration:     e.EnableVibration,
			EnableSound:         e.EnableSound,
			EnablePopup:         e.EnablePopup,
		})
	}
	return schedules
}

func encodeInstant(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339Nano)
	return &s
}

func decodeInstant(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		log.Warnf("failed to parse instant %q, using default: %v", s, err)
		return nil
	}
	return &t
}

func decodeInstantPtr(s *string) *time.Time {
	if s == nil {
		return nil
	}
	return decodeInstant(*s)
}
