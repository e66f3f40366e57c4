package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/plancheck/plancheck/internal/app"
	fileslot "github.com/plancheck/plancheck/internal/kvslot/file"
	"github.com/plancheck/plancheck/internal/notify"
	"github.com/plancheck/plancheck/internal/persist"
	"github.com/plancheck/plancheck/internal/reminder"
	"github.com/plancheck/plancheck/internal/schedule"
	"github.com/plancheck/plancheck/internal/store"
	"github.com/stretchr/testify/require"
)

type dropIssuer struct{}

func (dropIssuer) Issue(context.Context, notify.Notification) error { return nil }

type failingSlot struct {
	err error
}

// gatedSlot blocks the first Set until released, so a test can hold a save
// in flight while other operations run.
type gatedSlot struct {
	mu      sync.Mutex
	data    map[string]string
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedSlot() *gatedSlot {
	return &gatedSlot{
		data:    make(map[string]string),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *gatedSlot) Get(_ context.Context, key string) (string, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := g.data[key]
	return v, ok, nil
}

func (g *gatedSlot) Set(_ context.Context, key string, value string) error {
	var first bool
	g.once.Do(func() { first = true })
	if first {
		g.entered <- struct{}{}
		<-g.release
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.data[key] = value
	return nil
}

func (g *gatedSlot) Delete(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.data, key)
	return nil
}

func (g *gatedSlot) Close(_ context.Context) error { return nil }

func (f failingSlot) Get(context.Context, string) (string, bool, error) { return "", false, nil }
func (f failingSlot) Set(context.Context, string, string) error         { return f.err }
func (f failingSlot) Delete(context.Context, string) error              { return f.err }
func (f failingSlot) Close(context.Context) error                       { return nil }

func createApp(t *testing.T) (*app.App, *persist.Adapter) {
	t.Helper()
	slot, err := fileslot.New(fileslot.Config{Dir: t.TempDir()})
	require.NoError(t, err)

	adapter := persist.New(slot)
	scheduler := reminder.New(dropIssuer{}, nil)
	scheduler.SetPermission(notify.PermissionGranted)

	a := app.New(store.New(), adapter, scheduler, app.Config{})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		a.Stop(context.Background())
		cancel()
	})
	require.NoError(t, a.Start(ctx))
	return a, adapter
}

func timed(title string, start time.Time) schedule.Schedule {
	end := start.Add(time.Hour)
	return schedule.Schedule{
		Title:               title,
		Date:                start,
		StartTime:           &start,
		EndTime:             &end,
		IsReminded:          true,
		RemindBeforeMinutes: 15,
	}
}

func TestMutationPersistsAndResyncs(t *testing.T) {
	ctx := context.Background()
	a, adapter := createApp(t)

	start := time.Now().Add(2 * time.Hour)
	id, err := a.CreateSchedule(ctx, timed("standup", start))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	// The save is queued; wait for it to land in the slot.
	require.Eventually(t, func() bool {
		saved, err := adapter.Load(ctx)
		return err == nil && len(saved) == 1 && saved[0].Title == "standup"
	}, 3*time.Second, 10*time.Millisecond)

	pending := a.PendingReminders()
	require.Contains(t, pending, id)

	require.NoError(t, a.RemoveSchedule(ctx, id))
	require.Empty(t, a.PendingReminders())
	require.Eventually(t, func() bool {
		saved, err := adapter.Load(ctx)
		return err == nil && len(saved) == 0
	}, 3*time.Second, 10*time.Millisecond)
}

func TestUpdateReplacesReminder(t *testing.T) {
	ctx := context.Background()
	a, _ := createApp(t)

	start := time.Now().Add(2 * time.Hour)
	id, err := a.CreateSchedule(ctx, timed("planning", start))
	require.NoError(t, err)
	before := a.PendingReminders()[id]

	upd, err := a.GetSchedule(ctx, id)
	require.NoError(t, err)
	upd.RemindBeforeMinutes = 60
	require.NoError(t, a.UpdateSchedule(ctx, id, upd))

	pending := a.PendingReminders()
	require.Equal(t, 1, len(pending))
	require.Equal(t, before.Add(-45*time.Minute), pending[id])
}

func TestNotificationsToggle(t *testing.T) {
	ctx := context.Background()
	a, _ := createApp(t)

	start := time.Now().Add(2 * time.Hour)
	_, err := a.CreateSchedule(ctx, timed("standup", start))
	require.NoError(t, err)
	require.Equal(t, 1, len(a.PendingReminders()))

	require.NoError(t, a.SetNotificationsEnabled(ctx, false))
	require.Empty(t, a.PendingReminders())

	require.NoError(t, a.SetNotificationsEnabled(ctx, true))
	require.Equal(t, 1, len(a.PendingReminders()))
}

func TestImportInvalidLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	a, _ := createApp(t)

	start := time.Now().Add(2 * time.Hour)
	_, err := a.CreateSchedule(ctx, timed("keep me", start))
	require.NoError(t, err)

	require.ErrorIs(t, a.ImportText(ctx, `{"a":1}`), persist.ErrBadFormat)
	require.Equal(t, 1, len(a.ListSchedules(ctx)))
	require.Equal(t, "keep me", a.ListSchedules(ctx)[0].Title)
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	a, _ := createApp(t)

	start := time.Now().Add(2 * time.Hour).Truncate(time.Second)
	_, err := a.CreateSchedule(ctx, timed("offsite", start))
	require.NoError(t, err)
	held := schedule.Schedule{Title: "someday", Date: start, RemindBeforeMinutes: 10}
	_, err = a.CreateSchedule(ctx, held)
	require.NoError(t, err)

	text, err := a.ExportText(ctx)
	require.NoError(t, err)

	other, _ := createApp(t)
	require.NoError(t, other.ImportText(ctx, text))
	require.Equal(t, 2, len(other.ListSchedules(ctx)))
	require.Equal(t, 1, len(other.ScheduledSchedules(ctx)))
	require.Equal(t, 1, len(other.UndecidedSchedules(ctx)))
}

func TestClearAll(t *testing.T) {
	ctx := context.Background()
	a, adapter := createApp(t)

	start := time.Now().Add(2 * time.Hour)
	_, err := a.CreateSchedule(ctx, timed("standup", start))
	require.NoError(t, err)

	require.NoError(t, a.ClearAll(ctx))
	require.Empty(t, a.ListSchedules(ctx))
	require.Empty(t, a.PendingReminders())

	saved, err := adapter.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, saved)
}

func TestClearAllWinsOverInFlightSave(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	slot := newGatedSlot()
	adapter := persist.New(slot)
	scheduler := reminder.New(dropIssuer{}, nil)
	scheduler.SetPermission(notify.PermissionGranted)
	a := app.New(store.New(), adapter, scheduler, app.Config{})
	require.NoError(t, a.Start(ctx))
	defer a.Stop(context.Background())

	start := time.Now().Add(2 * time.Hour)
	_, err := a.CreateSchedule(ctx, timed("doomed", start))
	require.NoError(t, err)

	// The save worker is now blocked inside Set with the pre-clear snapshot.
	<-slot.entered
	require.NoError(t, a.ClearAll(ctx))
	close(slot.release)

	require.Empty(t, a.ListSchedules(ctx))
	require.Eventually(t, func() bool {
		saved, err := adapter.Load(ctx)
		return err == nil && len(saved) == 0
	}, 3*time.Second, 10*time.Millisecond)
}

func TestSaveFailureKeepsStoreAuthoritative(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	adapter := persist.New(failingSlot{err: errors.New("quota exceeded")})
	scheduler := reminder.New(dropIssuer{}, nil)
	scheduler.SetPermission(notify.PermissionGranted)
	a := app.New(store.New(), adapter, scheduler, app.Config{})
	require.NoError(t, a.Start(ctx))
	defer a.Stop(context.Background())

	start := time.Now().Add(2 * time.Hour)
	id, err := a.CreateSchedule(ctx, timed("standup", start))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return errors.Is(a.LastSaveError(), persist.ErrStorageWrite)
	}, 3*time.Second, 10*time.Millisecond)

	got, err := a.GetSchedule(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "standup", got.Title)
	require.Contains(t, a.PendingReminders(), id)
}

func TestStartLoadsPersistedState(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	slot, err := fileslot.New(fileslot.Config{Dir: t.TempDir()})
	require.NoError(t, err)
	adapter := persist.New(slot)

	start := time.Now().Add(2 * time.Hour).Truncate(time.Second)
	seeded := timed("persisted", start)
	seeded.ID = "seeded"
	require.NoError(t, adapter.Save(ctx, []schedule.Schedule{seeded}))

	scheduler := reminder.New(dropIssuer{}, nil)
	scheduler.SetPermission(notify.PermissionGranted)
	a := app.New(store.New(), adapter, scheduler, app.Config{})
	require.NoError(t, a.Start(ctx))
	defer a.Stop(context.Background())

	list := a.ListSchedules(ctx)
	require.Equal(t, 1, len(list))
	require.Equal(t, "persisted", list[0].Title)
	require.Contains(t, a.PendingReminders(), "seeded")
}
