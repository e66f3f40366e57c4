package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/plancheck/plancheck/internal/notify"
	"github.com/plancheck/plancheck/internal/schedule"
	log "github.com/sirupsen/logrus"
)

const (
	titlePrefix     = "[PlanCheck] "
	iconURL         = "https://cdn-icons-png.flaticon.com/512/3652/3652191.png"
	badgeURL        = "https://cdn-icons-png.flaticon.com/512/3652/3652191.png"
	dispatchTimeout = 5 * time.Second
)

var vibrationPattern = []int{200, 100, 200}

// Scheduler keeps exactly one pending one-shot timer per reminded schedule
// whose fire-time is still ahead. Resync is a full cancel-and-rearm pass;
// incremental diffing is deliberately not attempted at this scale.
//
// Candidates whose fire-time already passed are skipped without a catch-up
// notification. That skip is the SkipPastDue policy, not an accident of the
// time comparison.
type Scheduler struct {
	issuer  notify.Issuer
	metrics *Metrics

	mu         sync.Mutex
	permission notify.Permission
	armSeq     uint64
	armed      map[string]uint64
	timers     map[string]*time.Timer
	fireAt     map[string]time.Time
	now        func() time.Time
}

func New(issuer notify.Issuer, metrics *Metrics) *Scheduler {
	return &Scheduler{
		issuer:     issuer,
		metrics:    metrics,
		permission: notify.PermissionDefault,
		armed:      make(map[string]uint64),
		timers:     make(map[string]*time.Timer),
		fireAt:     make(map[string]time.Time),
		now:        time.Now,
	}
}

// SetPermission records the platform permission state. Anything but granted
// keeps resync from arming timers; already armed timers survive until the
// next resync.
func (s *Scheduler) SetPermission(p notify.Permission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.permission = p
}

func (s *Scheduler) Permission() notify.Permission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.permission
}

// Resync cancels every pending timer and re-arms from scratch. Calling it
// twice with the same input arms the same set, so periodic safety resyncs
// are harmless.
func (s *Scheduler) Resync(schedules []schedule.Schedule, enabled bool) {
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
		delete(s.armed, id)
		delete(s.fireAt, id)
	}

	if !enabled || s.permission != notify.PermissionGranted {
		log.Debugf("resync: reminders disabled (enabled=%v permission=%s)", enabled, s.permission)
		s.observeResync(start)
		return
	}

	now := s.now()
	for _, e := range schedules {
		if !e.IsReminded || e.StartTime == nil {
			continue
		}
		fireAt := e.StartTime.Add(-time.Duration(e.RemindBeforeMinutes) * time.Minute)
		if !fireAt.After(now) {
			// SkipPastDue
			log.Debugf("resync: skip past-due reminder for %q (fire at %s)", e.ID, fireAt)
			if s.metrics != nil {
				s.metrics.IncSkippedPastDue()
			}
			continue
		}

		// The arm sequence number identifies this exact arming. It is fixed
		// before AfterFunc, so a near-immediate callback never reads a value
		// still being assigned; the callback itself blocks on s.mu until this
		// resync pass finishes.
		e := e
		id := e.ID
		s.armSeq++
		seq := s.armSeq
		s.timers[id] = time.AfterFunc(fireAt.Sub(now), func() {
			s.fire(id, e, seq)
		})
		s.armed[id] = seq
		s.fireAt[id] = fireAt
	}

	log.Debugf("resync: %d reminders armed", len(s.timers))
	s.observeResync(start)
}

// Stop cancels all pending timers, used on shutdown.
func (s *Scheduler) Stop() {
	s.Resync(nil, false)
}

// Pending returns a snapshot of armed schedule ids and their fire-times.
func (s *Scheduler) Pending() map[string]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending := make(map[string]time.Time, len(s.fireAt))
	for id, at := range s.fireAt {
		pending[id] = at
	}
	return pending
}

func (s *Scheduler) fire(id string, e schedule.Schedule, seq uint64) {
	s.mu.Lock()
	current, ok := s.armed[id]
	if !ok || current != seq {
		// A resync superseded this arming after the timer triggered.
		s.mu.Unlock()
		return
	}
	delete(s.timers, id)
	delete(s.armed, id)
	delete(s.fireAt, id)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	if err := s.issuer.Issue(ctx, buildNotification(e)); err != nil {
		log.Errorf("failed to dispatch reminder for %q: %v", id, err)
		if s.metrics != nil {
			s.metrics.IncDispatchFailed()
		}
		return
	}
	if s.metrics != nil {
		s.metrics.IncFired()
	}
}

func (s *Scheduler) observeResync(start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.SetArmed(len(s.timers))
	s.metrics.ObserveResyncDuration(time.Since(start).Seconds())
}

func buildNotification(e schedule.Schedule) notify.Notification {
	n := notify.Notification{
		Title:              titlePrefix + e.Title,
		Body:               fmt.Sprintf("%d분 후 일정이 시작됩니다.", e.RemindBeforeMinutes),
		Icon:               iconURL,
		Badge:              badgeURL,
		Silent:             !e.EnableSound,
		Tag:                e.ID,
		RequireInteraction: true,
	}
	if e.EnableVibration {
		n.Vibrate = vibrationPattern
	}
	return n
}
