package scheduler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/gfredtech/ScheduleBot/internal/domain"
	"github.com/gfredtech/ScheduleBot/internal/schedule"
	"github.com/gfredtech/ScheduleBot/internal/store"
)

// ErrRecipientGone marks a permanent delivery failure: the user blocked the
// bot or deleted their account. The scheduler responds by deleting the
// enrollment.
var ErrRecipientGone = errors.New("recipient gone")

// Sender is the minimal interface the scheduler needs to deliver a reminder.
// telegram.Router implements it.
type Sender interface {
	SendReminder(userID int64, l domain.Lesson) error
}

// Scheduler wakes at each catalogue-derived fire minute and sweeps all
// reminder-enabled users.
type Scheduler struct {
	timetable store.TimetableRepo
	users     store.EnrollmentRepo
	svc       *schedule.Service
	log       *zap.Logger
	sender    Sender

	interval time.Duration
	lead     int

	fireAt    map[string]struct{} // "HH:MM" wake minutes, fixed after Init
	lastSweep string              // last minute swept, guards the tick grid
	now       func() time.Time
}

// New creates a Scheduler. lead is in minutes; interval is the tick driving
// the wake checks and must divide a minute into at least one tick.
func New(timetable store.TimetableRepo, users store.EnrollmentRepo, svc *schedule.Service,
	log *zap.Logger, sender Sender, interval time.Duration, lead int) *Scheduler {
	return &Scheduler{
		timetable: timetable,
		users:     users,
		svc:       svc,
		log:       log,
		sender:    sender,
		interval:  interval,
		lead:      lead,
		now:       time.Now,
	}
}

// Init computes the fire-time grid: every distinct lesson start across the
// whole catalogue, minus the lead time, deduplicated to wall-clock minutes.
// The grid is shared by all users; eligibility is filtered per user at fire
// time. Called once before Run.
func (s *Scheduler) Init(ctx context.Context) error {
	starts, err := s.timetable.DistinctStartTimes(ctx)
	if err != nil {
		return err
	}
	s.fireAt = make(map[string]struct{}, len(starts))
	for _, m := range starts {
		s.fireAt[domain.FormatMinutes(m-s.lead)] = struct{}{}
	}
	s.log.Info("reminder grid ready", zap.Int("wakePoints", len(s.fireAt)))
	return nil
}

// Run drives the wake loop until ctx is canceled. Each tick checks whether
// the current wall-clock minute is a fire minute that has not been swept
// yet; the tick interval below one minute doubles as the safety net for a
// tick landing late in the minute.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopping")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick runs at most one sweep per fire minute. The guard is cleared as soon
// as the clock leaves the grid, so the same wall-clock minute fires again the
// next day.
func (s *Scheduler) tick(ctx context.Context) {
	now := s.now()
	minute := domain.FormatMinutes(now.Hour()*60 + now.Minute())
	if _, ok := s.fireAt[minute]; !ok {
		s.lastSweep = ""
		return
	}
	if minute == s.lastSweep {
		return
	}
	s.lastSweep = minute
	s.sweep(ctx, now)
}

// sweep asks who is due right now and delivers. One user's failure never
// stops the rest; a permanently gone recipient is unenrolled, matching the
// lifecycle rule for revoked access.
func (s *Scheduler) sweep(ctx context.Context, now time.Time) {
	due, err := s.svc.DueReminders(ctx, now)
	if err != nil {
		s.log.Error("DueReminders failed", zap.Error(err))
		return
	}

	for _, r := range due {
		err := s.sender.SendReminder(r.UserID, r.Lesson)
		switch {
		case errors.Is(err, ErrRecipientGone):
			s.log.Info("recipient gone, deleting enrollment", zap.Int64("userID", r.UserID))
			if err := s.users.Delete(ctx, r.UserID); err != nil {
				s.log.Error("delete enrollment failed", zap.Error(err), zap.Int64("userID", r.UserID))
			}
		case err != nil:
			s.log.Error("send reminder failed", zap.Error(err), zap.Int64("userID", r.UserID))
		}
	}
}
