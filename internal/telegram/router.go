package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/gfredtech/ScheduleBot/internal/domain"
	"github.com/gfredtech/ScheduleBot/internal/schedule"
	"github.com/gfredtech/ScheduleBot/internal/scheduler"
	"github.com/gfredtech/ScheduleBot/internal/store"
)

// Configuration flow states, one per chat.
type flowState int

const (
	stateIdle flowState = iota
	stateAwaitingCourse
	stateAwaitingGroup
	stateAwaitingSubGroup
	stateAwaitingReminderChoice
)

// Router wires Telegram updates to handlers. In-flight configuration steps
// live in an in-memory map; after a restart the step is re-derived from the
// enrollment's missing fields, so no conversation can corrupt a record.
type Router struct {
	bot   *tgbotapi.BotAPI
	log   *zap.Logger
	svc   *schedule.Service
	users store.EnrollmentRepo

	leadMinutes int
	weekURL     string

	state map[int64]flowState
	mu    sync.RWMutex
}

// NewRouter creates a Telegram router.
func NewRouter(bot *tgbotapi.BotAPI, log *zap.Logger, svc *schedule.Service,
	users store.EnrollmentRepo, leadMinutes int, weekURL string) *Router {
	return &Router{
		bot:         bot,
		log:         log,
		svc:         svc,
		users:       users,
		leadMinutes: leadMinutes,
		weekURL:     weekURL,
		state:       make(map[int64]flowState),
	}
}

func (r *Router) setState(chatID int64, s flowState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s == stateIdle {
		delete(r.state, chatID)
		return
	}
	r.state[chatID] = s
}

// flowStateFor returns the chat's in-memory step, falling back to the step
// implied by the enrollment's first unset field.
func (r *Router) flowStateFor(ctx context.Context, userID int64) flowState {
	r.mu.RLock()
	s, ok := r.state[userID]
	r.mu.RUnlock()
	if ok {
		return s
	}

	e, err := r.users.Get(ctx, userID)
	if err != nil {
		return stateIdle
	}
	switch {
	case e.Configured():
		return stateIdle
	case e.Course == "":
		return stateAwaitingCourse
	case e.Group == "":
		return stateAwaitingGroup
	default:
		return stateAwaitingSubGroup
	}
}

// HandleUpdate routes a single update. Only text messages matter; the bot
// works entirely through reply keyboards.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message == nil || upd.Message.From == nil {
		return
	}
	msg := upd.Message
	chatID := msg.Chat.ID
	userID := msg.From.ID
	text := strings.TrimSpace(msg.Text)
	alias := msg.From.UserName

	r.log.Info("update",
		zap.Int64("userID", userID),
		zap.String("text", text),
	)

	if strings.HasPrefix(text, "/") {
		r.handleCommand(ctx, chatID, userID, alias, text)
		return
	}

	switch text {
	case buttonNow:
		r.handleNow(ctx, chatID, userID, alias)
		return
	case buttonDay:
		r.handleDay(ctx, chatID, userID, alias)
		return
	case buttonWeek:
		r.handleWeek(ctx, chatID, userID, alias)
		return
	}

	if day, ok := domain.ParseWeekday(strings.TrimSuffix(text, "⭐")); ok {
		r.handleWeekday(ctx, chatID, userID, day)
		return
	}

	r.handleFlowStep(ctx, chatID, userID, text)
}

// SendReminder implements scheduler.Sender. A 403 from Telegram means the
// user blocked the bot; that is reported as scheduler.ErrRecipientGone so
// the sweep can unenroll them.
func (r *Router) SendReminder(userID int64, l domain.Lesson) error {
	msg := tgbotapi.NewMessage(userID, remindHeader+lessonCard(l))
	msg.ReplyMarkup = mainKeyboard()
	_, err := r.bot.Send(msg)
	if err == nil {
		return nil
	}
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) && tgErr.Code == 403 {
		return fmt.Errorf("%v: %w", err, scheduler.ErrRecipientGone)
	}
	return err
}

func (r *Router) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = mainKeyboard()
	if _, err := r.bot.Send(msg); err != nil {
		r.log.Error("send failed", zap.Error(err), zap.Int64("chatID", chatID))
	}
}

func (r *Router) sendWithKeyboard(chatID int64, text string, kb tgbotapi.ReplyKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	if _, err := r.bot.Send(msg); err != nil {
		r.log.Error("send failed", zap.Error(err), zap.Int64("chatID", chatID))
	}
}
