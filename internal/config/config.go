package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken string `envconfig:"BOT_TOKEN" required:"true"`
	DBPath   string `envconfig:"DB_PATH" default:"./data/schedule.db"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"` // debug|info|warn|error
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	// Reminders fire this many minutes before a lesson starts.
	RemindLeadMinutes int `envconfig:"REMIND_LEAD_MINUTES" default:"10"`
	// Sweep jitter forgiven when matching the lead time, in minutes.
	RemindToleranceMinutes int `envconfig:"REMIND_TOLERANCE_MINUTES" default:"1"`
	// Tick driving the reminder wake checks; keep it under a minute.
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"30s"`

	// Hosted full-week timetable image, sent by the WEEK button.
	WeekTimetableURL string `envconfig:"WEEK_TIMETABLE_URL" default:"https://res.cloudinary.com/dhpzvfror/image/upload/c_scale,w_3000/jgk15fllbwrv24qsc3d5.jpg"`
}

// Load reads environment variables into Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
