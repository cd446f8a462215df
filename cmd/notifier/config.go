package main

import (
	"fmt"
	"slices"
	"time"
)

const (
	modeAPI    = "api"
	modeWorker = "worker"
	modeDLQ    = "dlq"
	modeAll    = "all"
)

type appConfig struct {
	Env         string `env:"APP_ENV" envDefault:"development"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"notifier"`
	Mode        string `env:"MODE" envDefault:"all"`

	StoreDriver      string `env:"STORE_DRIVER" envDefault:"memory"` // memory, postgres or mongo
	NotificationColl string `env:"NOTIFICATION_TABLE" envDefault:"notifications"`
	ErrorColl        string `env:"ERROR_TABLE" envDefault:"notification_errors"`
	ErrorStatsColl   string `env:"ERROR_STATS_TABLE" envDefault:"notification_error_stats"`

	MailDriver string `env:"MAIL_DRIVER" envDefault:"postmark"` // postmark or dev

	TemplateSource   string        `env:"TEMPLATE_SOURCE" envDefault:"s3"` // s3 or local
	TemplateDir      string        `env:"TEMPLATE_DIR" envDefault:"./templates"`
	TemplateCacheTTL time.Duration `env:"TEMPLATE_CACHE_TTL" envDefault:"5m"`
	TemplateWarmup   bool          `env:"TEMPLATE_WARMUP" envDefault:"false"`

	BulkWaveSize  int           `env:"BULK_WAVE_SIZE" envDefault:"10"`
	BulkWavePause time.Duration `env:"BULK_WAVE_PAUSE" envDefault:"1s"`

	RedisEnabled    bool          `env:"REDIS_ENABLED" envDefault:"false"`
	RollupPrefix    string        `env:"ERROR_ROLLUP_PREFIX" envDefault:"notifier:errors"`
	RollupRetention time.Duration `env:"ERROR_ROLLUP_RETENTION" envDefault:"720h"`

	MaxBodyBytes int64 `env:"HTTP_MAX_BODY_BYTES" envDefault:"1048576"`
}

func (c appConfig) validate() error {
	checks := []struct {
		name, value string
		allowed     []string
	}{
		{"MODE", c.Mode, []string{modeAPI, modeWorker, modeDLQ, modeAll}},
		{"STORE_DRIVER", c.StoreDriver, []string{"memory", "postgres", "mongo"}},
		{"MAIL_DRIVER", c.MailDriver, []string{"postmark", "dev"}},
		{"TEMPLATE_SOURCE", c.TemplateSource, []string{"s3", "local"}},
	}
	for _, chk := range checks {
		if !slices.Contains(chk.allowed, chk.value) {
			return fmt.Errorf("%w: %s=%q, want one of %v", errInvalidConfig, chk.name, chk.value, chk.allowed)
		}
	}
	return nil
}

// runs reports whether the process should start component m.
func (c appConfig) runs(m string) bool {
	return c.Mode == modeAll || c.Mode == m
}
