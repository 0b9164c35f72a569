package telegram

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/gfredtech/ScheduleBot/internal/domain"
	"github.com/gfredtech/ScheduleBot/internal/store"
)

// ensureRegistered creates the enrollment on first contact, like the
// original /start behavior. Racing registrations are fine: the loser's
// AlreadyExists is swallowed.
func (r *Router) ensureRegistered(ctx context.Context, userID int64, alias string) error {
	reg, err := r.svc.IsRegistered(ctx, userID)
	if err != nil {
		return err
	}
	if reg {
		return nil
	}
	if err := r.users.Register(ctx, userID, alias); err != nil && !errors.Is(err, store.ErrAlreadyExists) {
		return err
	}
	return nil
}

// requireConfigured redirects unconfigured users into the flow. Returns
// true when the caller may proceed with a schedule query.
func (r *Router) requireConfigured(ctx context.Context, chatID, userID int64) bool {
	ok, err := r.svc.IsConfigured(ctx, userID)
	if err != nil {
		r.log.Error("IsConfigured failed", zap.Error(err), zap.Int64("userID", userID))
		return false
	}
	if !ok {
		r.sendText(chatID, notConfiguredText)
		return false
	}
	return true
}

// resyncAlias updates the stored alias when the user renamed themselves.
func (r *Router) resyncAlias(ctx context.Context, userID int64, alias string) {
	e, err := r.users.Get(ctx, userID)
	if err != nil || alias == "" || e.Alias == alias {
		return
	}
	if err := r.users.SetAlias(ctx, userID, alias); err != nil {
		r.log.Error("SetAlias failed", zap.Error(err), zap.Int64("userID", userID))
	}
}

// --- commands ---

func (r *Router) handleCommand(ctx context.Context, chatID, userID int64, alias, text string) {
	if err := r.ensureRegistered(ctx, userID, alias); err != nil {
		r.log.Error("register failed", zap.Error(err), zap.Int64("userID", userID))
		r.sendText(chatID, "Profile initialization error. Please try again later.")
		return
	}

	configured, err := r.svc.IsConfigured(ctx, userID)
	if err != nil {
		r.log.Error("IsConfigured failed", zap.Error(err), zap.Int64("userID", userID))
		return
	}

	switch {
	case text == "/start":
		r.sendText(chatID, greetingText)
		if !configured {
			r.startConfigure(chatID)
		}
	case text == "/configure" || !configured:
		r.startConfigure(chatID)
	case text == "/help":
		r.sendText(chatID, helpText)
	case text == "/reminders":
		r.askReminders(chatID)
	default:
		r.sendText(chatID, unknownInputText)
	}
}

// --- configuration flow ---

func (r *Router) startConfigure(chatID int64) {
	r.setState(chatID, stateAwaitingCourse)
	r.sendWithKeyboard(chatID, askCourseText, choiceKeyboard(domain.CourseNames()))
}

func (r *Router) askReminders(chatID int64) {
	r.setState(chatID, stateAwaitingReminderChoice)
	r.sendWithKeyboard(chatID, askRemindersText(r.leadMinutes), yesNoKeyboard())
}

// handleFlowStep advances the per-chat configuration machine on free-form
// input. The chat id doubles as the user id in private chats, which is the
// only place the flow runs.
func (r *Router) handleFlowStep(ctx context.Context, chatID, userID int64, text string) {
	switch r.flowStateFor(ctx, userID) {
	case stateAwaitingCourse:
		r.stepCourse(ctx, chatID, userID, text)
	case stateAwaitingGroup:
		r.stepGroup(ctx, chatID, userID, text)
	case stateAwaitingSubGroup:
		r.stepSubGroup(ctx, chatID, userID, text)
	case stateAwaitingReminderChoice:
		r.stepReminderChoice(ctx, chatID, userID, text)
	default:
		r.sendText(chatID, unknownInputText)
	}
}

func (r *Router) stepCourse(ctx context.Context, chatID, userID int64, text string) {
	if _, ok := domain.Courses[text]; !ok {
		r.sendText(chatID, unknownInputText)
		return
	}
	if err := r.users.SetCourse(ctx, userID, text); err != nil {
		r.failFlow(chatID, userID, "SetCourse", err)
		return
	}
	r.setState(chatID, stateAwaitingGroup)
	r.sendWithKeyboard(chatID, askGroupText, choiceKeyboard(domain.Courses[text].Groups))
}

func (r *Router) stepGroup(ctx context.Context, chatID, userID int64, text string) {
	e, err := r.users.Get(ctx, userID)
	if err != nil {
		r.failFlow(chatID, userID, "Get", err)
		return
	}
	policy := domain.Courses[e.Course]
	if !contains(policy.Groups, text) {
		r.sendText(chatID, unknownInputText)
		return
	}
	if err := r.users.SetGroup(ctx, userID, text); err != nil {
		r.failFlow(chatID, userID, "SetGroup", err)
		return
	}
	if policy.RequiresSubGroup() {
		r.setState(chatID, stateAwaitingSubGroup)
		r.sendWithKeyboard(chatID, askSubGroupText, choiceKeyboard(policy.SubGroups))
		return
	}
	r.askReminders(chatID)
}

func (r *Router) stepSubGroup(ctx context.Context, chatID, userID int64, text string) {
	e, err := r.users.Get(ctx, userID)
	if err != nil {
		r.failFlow(chatID, userID, "Get", err)
		return
	}
	if !contains(domain.Courses[e.Course].SubGroups, text) {
		r.sendText(chatID, unknownInputText)
		return
	}
	if err := r.users.SetSubGroup(ctx, userID, text); err != nil {
		r.failFlow(chatID, userID, "SetSubGroup", err)
		return
	}
	r.askReminders(chatID)
}

func (r *Router) stepReminderChoice(ctx context.Context, chatID, userID int64, text string) {
	var enabled bool
	switch text {
	case answerYes:
		enabled = true
	case answerNo:
		enabled = false
	default:
		r.sendText(chatID, unknownInputText)
		return
	}
	if err := r.users.SetRemindersEnabled(ctx, userID, enabled); err != nil {
		r.failFlow(chatID, userID, "SetRemindersEnabled", err)
		return
	}
	r.setState(chatID, stateIdle)
	r.sendText(chatID, settingsSavedText)
}

func (r *Router) failFlow(chatID, userID int64, op string, err error) {
	r.log.Error(op+" failed", zap.Error(err), zap.Int64("userID", userID))
	r.setState(chatID, stateIdle)
	r.sendText(chatID, "Could not save your settings. Please try /configure again.")
}

// --- schedule views ---

func (r *Router) handleNow(ctx context.Context, chatID, userID int64, alias string) {
	if !r.requireConfigured(ctx, chatID, userID) {
		return
	}
	r.resyncAlias(ctx, userID, alias)

	now := time.Now()
	cur, err := r.svc.Current(ctx, userID)
	if err != nil {
		r.log.Error("Current failed", zap.Error(err), zap.Int64("userID", userID))
		return
	}
	next, err := r.svc.Next(ctx, userID)
	if err != nil {
		r.log.Error("Next failed", zap.Error(err), zap.Int64("userID", userID))
		return
	}

	var reply string
	if cur != nil {
		reply += "\n" + currentCard(*cur, now)
	}
	if next != nil {
		reply += "\n" + futureCard(*next, now)
	} else {
		reply += noNextLessonsText
	}
	r.sendText(chatID, reply)
}

func (r *Router) handleDay(ctx context.Context, chatID, userID int64, alias string) {
	if !r.requireConfigured(ctx, chatID, userID) {
		return
	}
	r.resyncAlias(ctx, userID, alias)
	r.sendWithKeyboard(chatID, askWeekdayText, weekdayKeyboard(time.Now().Weekday()))
}

func (r *Router) handleWeekday(ctx context.Context, chatID, userID int64, day time.Weekday) {
	if !r.requireConfigured(ctx, chatID, userID) {
		return
	}
	lessons, err := r.svc.Resolve(ctx, userID, day)
	if err != nil {
		r.log.Error("Resolve failed", zap.Error(err), zap.Int64("userID", userID))
		return
	}
	if len(lessons) == 0 {
		r.sendText(chatID, freeDayText)
		return
	}
	var reply string
	for _, l := range lessons {
		reply += lessonCard(l) + "\n"
	}
	r.sendText(chatID, reply)
}

func (r *Router) handleWeek(ctx context.Context, chatID, userID int64, alias string) {
	if !r.requireConfigured(ctx, chatID, userID) {
		return
	}
	r.resyncAlias(ctx, userID, alias)
	// The full-week timetable is a hosted image; only the link lives here.
	r.sendText(chatID, r.weekURL+"\n"+fullWeekText)
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
