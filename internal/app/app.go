package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/plancheck/plancheck/internal/notify"
	"github.com/plancheck/plancheck/internal/persist"
	"github.com/plancheck/plancheck/internal/reminder"
	"github.com/plancheck/plancheck/internal/schedule"
	"github.com/plancheck/plancheck/internal/store"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	// ResyncSpec is a cron spec for the periodic safety resync that guards
	// against wall-clock jumps. Empty disables it.
	ResyncSpec string
}

// App wires the schedule store, persistence adapter and reminder scheduler
// together: every mutation goes through the store, then enqueues a save and
// runs a full resync. The in-memory store stays authoritative even when a
// save fails.
type App struct {
	Store     *store.Store
	persist   *persist.Adapter
	scheduler *reminder.Scheduler
	config    Config

	mu       sync.RWMutex
	settings persist.Settings
	saveErr  error

	stamp  uint64
	saveCh chan saveRequest
	cron   *cron.Cron
}

// saveRequest carries a snapshot plus its monotonic stamp. The queue holds
// one entry: a newer snapshot displaces an unsaved older one, so writes land
// last-writer-wins by stamp, not by completion order.
type saveRequest struct {
	stamp     uint64
	schedules []schedule.Schedule
}

func New(s *store.Store, p *persist.Adapter, r *reminder.Scheduler, config Config) *App {
	return &App{
		Store:     s,
		persist:   p,
		scheduler: r,
		config:    config,
		settings:  persist.DefaultSettings(),
		saveCh:    make(chan saveRequest, 1),
	}
}

// Start loads persisted state, arms reminders and launches the save worker
// and the periodic resync. A read failure leaves the store empty and is
// surfaced; the service keeps running.
func (a *App) Start(ctx context.Context) error {
	settings, err := a.persist.LoadSettings(ctx)
	if err != nil {
		log.Errorf("failed to load settings, using defaults: %v", err)
	}
	a.mu.Lock()
	a.settings = settings
	a.mu.Unlock()

	schedules, err := a.persist.Load(ctx)
	if err == nil {
		if rerr := a.Store.Replace(ctx, schedules); rerr != nil {
			err = rerr
		}
	}
	if err != nil {
		log.Errorf("failed to load schedules, starting empty: %v", err)
		a.setSaveErr(err)
	}

	go a.saveLoop(ctx)

	if a.config.ResyncSpec != "" {
		a.cron = cron.New()
		if _, cerr := a.cron.AddFunc(a.config.ResyncSpec, func() { a.Resync(context.Background()) }); cerr != nil {
			return fmt.Errorf("failed to schedule periodic resync: %w", cerr)
		}
		a.cron.Start()
	}

	a.Resync(ctx)
	return err
}

func (a *App) Stop(ctx context.Context) {
	if a.cron != nil {
		stopped := a.cron.Stop()
		select {
		case <-stopped.Done():
		case <-ctx.Done():
		}
	}
	a.scheduler.Stop()
}

func (a *App) CreateSchedule(ctx context.Context, e schedule.Schedule) (string, error) {
	e.RemindBeforeMinutes = schedule.ClampRemindLead(e.RemindBeforeMinutes)
	if err := a.Store.Add(ctx, &e); err != nil {
		return "", err
	}
	a.afterMutation(ctx)
	return e.ID, nil
}

// CreateDefault makes the schedule the creation dialog starts from.
func (a *App) CreateDefault(ctx context.Context) (schedule.Schedule, error) {
	e := schedule.NewDefault(time.Now())
	if err := a.Store.Add(ctx, &e); err != nil {
		return schedule.Schedule{}, err
	}
	a.afterMutation(ctx)
	return e, nil
}

func (a *App) UpdateSchedule(ctx context.Context, id string, e schedule.Schedule) error {
	e.RemindBeforeMinutes = schedule.ClampRemindLead(e.RemindBeforeMinutes)
	if err := a.Store.Update(ctx, id, e); err != nil {
		return err
	}
	a.afterMutation(ctx)
	return nil
}

func (a *App) RemoveSchedule(ctx context.Context, id string) error {
	if err := a.Store.Remove(ctx, id); err != nil {
		return err
	}
	a.afterMutation(ctx)
	return nil
}

// ClearAll removes the stored blob first, then empties the store; a storage
// failure leaves the in-memory data untouched. The empty snapshot is
// enqueued like any other mutation so an in-flight save of the pre-clear
// state cannot win the write race and resurrect the cleared schedules.
func (a *App) ClearAll(ctx context.Context) error {
	if err := a.persist.Clear(ctx); err != nil {
		return err
	}
	a.Store.Clear(ctx)
	a.afterMutation(ctx)
	return nil
}

func (a *App) GetSchedule(ctx context.Context, id string) (schedule.Schedule, error) {
	return a.Store.Get(ctx, id)
}

func (a *App) ListSchedules(ctx context.Context) []schedule.Schedule {
	return a.Store.List(ctx)
}

func (a *App) ScheduledSchedules(ctx context.Context) []schedule.Schedule {
	return a.Store.Scheduled(ctx)
}

func (a *App) UndecidedSchedules(ctx context.Context) []schedule.Schedule {
	return a.Store.Undecided(ctx)
}

func (a *App) ExportText(ctx context.Context) (string, error) {
	return persist.Export(a.Store.List(ctx))
}

// ImportText replaces the store contents only after the whole text parses
// and validates.
func (a *App) ImportText(ctx context.Context, text string) error {
	schedules, err := persist.Import(text)
	if err != nil {
		return err
	}
	for i := range schedules {
		schedules[i].RemindBeforeMinutes = schedule.ClampRemindLead(schedules[i].RemindBeforeMinutes)
		if err := schedules[i].Validate(); err != nil {
			return fmt.Errorf("schedule %q: %w", schedules[i].ID, err)
		}
	}
	if err := a.Store.Replace(ctx, schedules); err != nil {
		return err
	}
	a.afterMutation(ctx)
	return nil
}

func (a *App) Settings(_ context.Context) persist.Settings {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.settings
}

func (a *App) SetNotificationsEnabled(ctx context.Context, enabled bool) error {
	a.mu.Lock()
	a.settings.NotificationsEnabled = enabled
	settings := a.settings
	a.mu.Unlock()

	a.Resync(ctx)
	return a.persist.SaveSettings(ctx, settings)
}

func (a *App) Permission() notify.Permission {
	return a.scheduler.Permission()
}

func (a *App) SetPermission(ctx context.Context, p notify.Permission) {
	a.scheduler.SetPermission(p)
	a.Resync(ctx)
}

func (a *App) PendingReminders() map[string]time.Time {
	return a.scheduler.Pending()
}

// Resync re-derives the armed reminder set from the store and the global
// toggle. Idempotent, safe to call at any moment.
func (a *App) Resync(ctx context.Context) {
	a.mu.RLock()
	enabled := a.settings.NotificationsEnabled
	a.mu.RUnlock()
	a.scheduler.Resync(a.Store.List(ctx), enabled)
}

// LastSaveError returns the most recent persistence failure, nil after a
// successful save.
func (a *App) LastSaveError() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.saveErr
}

func (a *App) afterMutation(ctx context.Context) {
	a.enqueueSave(ctx)
	a.Resync(ctx)
}

func (a *App) enqueueSave(ctx context.Context) {
	req := saveRequest{
		stamp:     atomic.AddUint64(&a.stamp, 1),
		schedules: a.Store.List(ctx),
	}
	for {
		select {
		case a.saveCh <- req:
			return
		default:
			// Displace the unsaved older snapshot.
			select {
			case <-a.saveCh:
			default:
			}
		}
	}
}

func (a *App) saveLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-a.saveCh:
			if req.stamp < atomic.LoadUint64(&a.stamp) {
				// A newer snapshot is queued or about to be.
				log.Debugf("skipping stale save with stamp %d", req.stamp)
				continue
			}
			if err := a.persist.Save(ctx, req.schedules); err != nil {
				log.Errorf("failed to save schedules: %v", err)
				a.setSaveErr(err)
				continue
			}
			a.setSaveErr(nil)
		}
	}
}

func (a *App) setSaveErr(err error) {
	a.mu.Lock()
	a.saveErr = err
	a.mu.Unlock()
}
