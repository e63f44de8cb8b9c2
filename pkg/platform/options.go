package platform

import (
	"database/sql"
	"time"

	"github.com/shoppermo/shoppermo-server/pkg/notify"
)

// Options configures the platform.
type Options struct {
	// Config is the platform configuration.
	Config *Config

	// DB overrides the connection opened from Config.Database.DSN. The
	// platform does not close a DB it did not open.
	DB *sql.DB

	// Sender overrides the notification sender built from Config.Notify.
	Sender notify.Sender

	// Clock overrides time.Now for sessions and submissions.
	Clock func() time.Time
}

// Option is a functional option for configuring the platform.
type Option func(*Options)

// WithConfig sets the configuration.
func WithConfig(cfg *Config) Option {
	return func(o *Options) {
		o.Config = cfg
	}
}

// WithDB sets the database connection.
func WithDB(db *sql.DB) Option {
	return func(o *Options) {
		o.DB = db
	}
}

// WithSender sets the notification sender.
func WithSender(s notify.Sender) Option {
	return func(o *Options) {
		o.Sender = s
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Options) {
		o.Clock = now
	}
}
