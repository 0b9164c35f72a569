package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/gfredtech/ScheduleBot/internal/config"
	"github.com/gfredtech/ScheduleBot/internal/schedule"
	"github.com/gfredtech/ScheduleBot/internal/scheduler"
	"github.com/gfredtech/ScheduleBot/internal/store"
	"github.com/gfredtech/ScheduleBot/internal/telegram"
)

// App owns the process: database, Telegram polling, HTTP health endpoint
// and the reminder loop.
type App struct {
	cfg     config.Config
	log     *zap.Logger
	bot     *tgbotapi.BotAPI
	httpSrv *http.Server
	db      *store.DB
	router  *telegram.Router
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	return &App{cfg: cfg, log: log, bot: bot, httpSrv: srv}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting schedule bot", zap.String("http", a.cfg.HTTPAddr))

	db, err := store.Open(ctx, a.cfg.DBPath, a.log)
	if err != nil {
		a.log.Error("open sqlite failed", zap.Error(err))
		return err
	}
	a.db = db
	a.log.Info("sqlite ready")

	svc := schedule.New(db.Timetable(), db.Enrollments(), a.log,
		a.cfg.RemindLeadMinutes, a.cfg.RemindToleranceMinutes)

	a.router = telegram.NewRouter(a.bot, a.log, svc, db.Enrollments(),
		a.cfg.RemindLeadMinutes, a.cfg.WeekTimetableURL)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The router doubles as the scheduler's delivery channel.
	sched := scheduler.New(db.Timetable(), db.Enrollments(), svc, a.log,
		a.router, a.cfg.SweepInterval, a.cfg.RemindLeadMinutes)
	if err := sched.Init(ctx); err != nil {
		a.log.Error("scheduler init failed", zap.Error(err))
		return err
	}
	go sched.Run(ctx)

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")

			// Create a short-lived shutdown context and cancel it immediately after use.
			shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := a.httpSrv.Shutdown(shCtx)
			cancel()

			if err != nil {
				a.log.Warn("http server shutdown error", zap.Error(err))
			}
			if a.db != nil {
				_ = a.db.Close()
			}
			return nil

		case upd := <-updCh:
			a.router.HandleUpdate(ctx, upd)
		}
	}
}
