package schedule

import (
	"errors"
	"time"

	"github.com/plancheck/plancheck/internal/util"
)

var (
	ErrDuplicateScheduleID   = errors.New("schedule with same ID exists")
	ErrNotFoundSchedule      = errors.New("schedule not found")
	ErrIncorrectScheduleTime = errors.New("incorrect schedule time")
	ErrHeldReminder          = errors.New("reminder enabled for schedule without start time")
	ErrIncorrectRemindLead   = errors.New("remind lead must be between 1 and 1440 minutes")
)

const (
	MinRemindLeadMinutes = 1
	MaxRemindLeadMinutes = 1440

	defaultRemindLeadMinutes = 10
	voiceRemindLeadMinutes   = 60
)

// Schedule is a single calendar entry. StartTime and EndTime are either both
// set or both nil; the nil form is a held ("undecided") schedule that has no
// fixed time yet and never produces reminders.
type Schedule struct {
	ID                  string     `json:"id"`
	Title               string     `json:"title"`
	Date                time.Time  `json:"date"`
	StartTime           *time.Time `json:"startTime"`
	EndTime             *time.Time `json:"endTime"`
	IsReminded          bool       `json:"isReminded"`
	RemindBeforeMinutes int        `json:"remindBeforeMinutes"`
	EnableVibration     bool       `json:"enableVibration"`
	EnableSound         bool       `json:"enableSound"`
	EnablePopup         bool       `json:"enablePopup"`
}

// NewDefault returns the schedule the creation dialog starts from: next full
// hour, one hour long, reminder on.
func NewDefault(now time.Time) Schedule {
	start := util.RoundUpToHour(now)
	end := start.Add(time.Hour)
	return Schedule{
		Date:                util.TruncateToDay(start),
		StartTime:           &start,
		EndTime:             &end,
		IsReminded:          true,
		RemindBeforeMinutes: defaultRemindLeadMinutes,
		EnableVibration:     true,
		EnableSound:         true,
		EnablePopup:         true,
	}
}

// NewFromVoice builds a schedule from extracted voice-command fields. A
// missing end time defaults to one hour after the start; a schedule without
// a start time is created in the held form.
func NewFromVoice(title string, date time.Time, start *time.Time, end *time.Time) Schedule {
	if start != nil && end == nil {
		e := start.Add(time.Hour)
		end = &e
	}
	s := Schedule{
		Title:               title,
		Date:                util.TruncateToDay(date),
		StartTime:           start,
		EndTime:             end,
		IsReminded:          start != nil,
		RemindBeforeMinutes: voiceRemindLeadMinutes,
		EnableVibration:     true,
		EnableSound:         true,
		EnablePopup:         true,
	}
	return s
}

// IsHeld reports whether the schedule is in the undecided form.
func (s Schedule) IsHeld() bool {
	return s.StartTime == nil
}

// Validate checks the form-boundary invariants. It is called where a record
// is committed, not on every field change.
func (s Schedule) Validate() error {
	if s.StartTime == nil {
		if s.EndTime != nil {
			return ErrIncorrectScheduleTime
		}
		if s.IsReminded {
			return ErrHeldReminder
		}
		return nil
	}
	if s.EndTime == nil {
		return ErrIncorrectScheduleTime
	}
	if !s.EndTime.After(*s.StartTime) {
		return ErrIncorrectScheduleTime
	}
	if s.RemindBeforeMinutes < MinRemindLeadMinutes || s.RemindBeforeMinutes > MaxRemindLeadMinutes {
		return ErrIncorrectRemindLead
	}
	return nil
}

// ClampRemindLead forces the lead into the allowed [1, 1440] range.
func ClampRemindLead(minutes int) int {
	if minutes < MinRemindLeadMinutes {
		return MinRemindLeadMinutes
	}
	if minutes > MaxRemindLeadMinutes {
		return MaxRemindLeadMinutes
	}
	return minutes
}
