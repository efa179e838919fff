package logger

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"

	"microblog/api/mailer"
)

// ErrorMailer emails admins a report for error-level entries. Reports over
// Limit are dropped.
type ErrorMailer struct {
	Sender  mailer.Sender
	Admins  []string
	Product string
	Link    string
	Limit   *rate.Limiter

	// inline sends on the logging goroutine; tests use it.
	inline bool
}

func (m *ErrorMailer) enabled() bool {
	return m != nil && m.Sender != nil && len(m.Admins) > 0
}

// Notify sends the report for entry with its structured fields. Entries
// below error level are ignored.
func (m *ErrorMailer) Notify(entry zapcore.Entry, fields map[string]string) error {
	if !m.enabled() || entry.Level < zapcore.ErrorLevel {
		return nil
	}

	report := map[string]string{
		"level": entry.Level.String(),
		"time":  entry.Time.UTC().Format(time.RFC3339),
	}
	if entry.Caller.Defined {
		report["caller"] = entry.Caller.TrimmedPath()
	}
	for k, v := range fields {
		report[k] = v
	}

	msg, err := mailer.ErrorReport(m.Product, m.Link, entry.Message, report)
	if err != nil {
		return err
	}
	return m.Sender.Send(m.Admins, msg.Subject, msg.Plain, msg.HTML)
}

// WithErrorMail tees logger into a core that mails error entries to admins.
func WithErrorMail(logger *zap.Logger, m *ErrorMailer) *zap.Logger {
	if !m.enabled() {
		return logger
	}
	if m.Limit == nil {
		// Five reports at once, then one a minute.
		m.Limit = rate.NewLimiter(rate.Every(time.Minute), 5)
	}
	return logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, &alertCore{LevelEnabler: zapcore.ErrorLevel, mailer: m})
	}))
}

type alertCore struct {
	zapcore.LevelEnabler
	mailer *ErrorMailer
	fields []zapcore.Field
}

func (c *alertCore) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.fields = append(append([]zapcore.Field{}, c.fields...), fields...)
	return &clone
}

func (c *alertCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

func (c *alertCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	if !c.mailer.Limit.Allow() {
		return nil
	}

	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}
	flat := make(map[string]string, len(enc.Fields))
	for k, v := range enc.Fields {
		flat[k] = fmt.Sprint(v)
	}

	if c.mailer.inline {
		return c.mailer.Notify(entry, flat)
	}
	go func() {
		if err := c.mailer.Notify(entry, flat); err != nil {
			fmt.Fprintf(os.Stderr, "error mail failed: %v\n", err)
		}
	}()
	return nil
}

func (c *alertCore) Sync() error { return nil }
