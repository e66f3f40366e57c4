package schedule_test

import (
	"testing"
	"time"

	"github.com/plancheck/plancheck/internal/schedule"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	start := time.Date(2300, 1, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	tests := []struct {
		name        string
		event       schedule.Schedule
		expectedErr error
	}{
		{
			name:        "timed schedule",
			event:       schedule.Schedule{StartTime: &start, EndTime: &end, RemindBeforeMinutes: 15},
			expectedErr: nil,
		},
		{
			name:        "held schedule",
			event:       schedule.Schedule{},
			expectedErr: nil,
		},
		{
			name:        "end equals start",
			event:       schedule.Schedule{StartTime: &start, EndTime: &start, RemindBeforeMinutes: 15},
			expectedErr: schedule.ErrIncorrectScheduleTime,
		},
		{
			name: "end before start",
			event: schedule.Schedule{
				StartTime: &end, EndTime: &start, RemindBeforeMinutes: 15,
			},
			expectedErr: schedule.ErrIncorrectScheduleTime,
		},
		{
			name:        "start without end",
			event:       schedule.Schedule{StartTime: &start, RemindBeforeMinutes: 15},
			expectedErr: schedule.ErrIncorrectScheduleTime,
		},
		{
			name:        "end without start",
			event:       schedule.Schedule{EndTime: &end},
			expectedErr: schedule.ErrIncorrectScheduleTime,
		},
		{
			name:        "reminder on held schedule",
			event:       schedule.Schedule{IsReminded: true},
			expectedErr: schedule.ErrHeldReminder,
		},
		{
			name:        "zero remind lead",
			event:       schedule.Schedule{StartTime: &start, EndTime: &end, RemindBeforeMinutes: 0},
			expectedErr: schedule.ErrIncorrectRemindLead,
		},
		{
			name:        "remind lead over a day",
			event:       schedule.Schedule{StartTime: &start, EndTime: &end, RemindBeforeMinutes: 1441},
			expectedErr: schedule.ErrIncorrectRemindLead,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.event.Validate(), tt.expectedErr)
		})
	}
}

func TestNewDefault(t *testing.T) {
	now := time.Date(2300, 1, 1, 9, 25, 13, 0, time.UTC)
	e := schedule.NewDefault(now)

	require.NotNil(t, e.StartTime)
	require.NotNil(t, e.EndTime)
	require.Equal(t, time.Date(2300, 1, 1, 10, 0, 0, 0, time.UTC), *e.StartTime)
	require.Equal(t, time.Date(2300, 1, 1, 11, 0, 0, 0, time.UTC), *e.EndTime)
	require.True(t, e.IsReminded)
	require.NoError(t, e.Validate())
}

func TestNewDefaultOnTheHour(t *testing.T) {
	now := time.Date(2300, 1, 1, 9, 0, 0, 0, time.UTC)
	e := schedule.NewDefault(now)
	require.Equal(t, time.Date(2300, 1, 1, 10, 0, 0, 0, time.UTC), *e.StartTime)
}

func TestNewFromVoice(t *testing.T) {
	t.Run("missing end defaults to one hour", func(t *testing.T) {
		start := time.Date(2300, 1, 1, 14, 0, 0, 0, time.UTC)
		e := schedule.NewFromVoice("meeting", start, &start, nil)

		require.NotNil(t, e.EndTime)
		require.Equal(t, start.Add(time.Hour), *e.EndTime)
		require.True(t, e.IsReminded)
		require.Equal(t, 60, e.RemindBeforeMinutes)
		require.NoError(t, e.Validate())
	})

	t.Run("no start yields held schedule", func(t *testing.T) {
		e := schedule.NewFromVoice("someday", time.Date(2300, 1, 1, 0, 0, 0, 0, time.UTC), nil, nil)

		require.True(t, e.IsHeld())
		require.Nil(t, e.EndTime)
		require.False(t, e.IsReminded)
		require.NoError(t, e.Validate())
	})
}

func TestClampRemindLead(t *testing.T) {
	require.Equal(t, 1, schedule.ClampRemindLead(0))
	require.Equal(t, 1, schedule.ClampRemindLead(-10))
	require.Equal(t, 1440, schedule.ClampRemindLead(100000))
	require.Equal(t, 90, schedule.ClampRemindLead(90))
}
