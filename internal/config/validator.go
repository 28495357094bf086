package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gobwas/glob"
)

// maxLogSizeMB caps logging.max_size_mb.
const maxLogSizeMB = 1000

// ValidationError describes one invalid setting.
type ValidationError struct {
	Field   string // dotted key, e.g. "monitor.poll_interval_ms"
	Value   any    // the rejected value
	Message string // what a valid value looks like
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is every problem found by Validate, in key order.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	switch len(e) {
	case 0:
		return ""
	case 1:
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err)
	}
	return sb.String()
}

// ValidLogLevels returns the accepted logging.level values.
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidOutputFormats returns the accepted output.format values.
func ValidOutputFormats() []string {
	return []string{"text", "json"}
}

// ValidColorModes returns the accepted output.color values.
func ValidColorModes() []string {
	return []string{"auto", "always", "never"}
}

// ValidNewlines returns the accepted monitor.newline values.
func ValidNewlines() []string {
	return []string{"\n", "\r\n"}
}

// checker accumulates failures so Validate can report all of them at once.
type checker struct {
	errs []ValidationError
}

// require records a failure for field unless ok.
func (c *checker) require(ok bool, field string, value any, message string) {
	if !ok {
		c.errs = append(c.errs, ValidationError{Field: field, Value: value, Message: message})
	}
}

func (c *checker) positive(field string, n int) {
	c.require(n > 0, field, n, "must be positive")
}

func (c *checker) nonNegative(field string, n int) {
	c.require(n >= 0, field, n, "must be non-negative")
}

func (c *checker) oneOf(field, value string, allowed []string) {
	c.require(slices.Contains(allowed, value), field, value,
		"must be one of: "+strings.Join(allowed, ", "))
}

// Validate returns every invalid setting, or nil.
func (cfg *Config) Validate() []ValidationError {
	var c checker

	m := cfg.Monitor
	c.positive("monitor.poll_interval_ms", m.PollIntervalMs)
	c.positive("monitor.shutdown_timeout_ms", m.ShutdownTimeoutMs)
	c.require(slices.Contains(ValidNewlines(), m.Newline), "monitor.newline",
		fmt.Sprintf("%q", m.Newline), `must be "\n" or "\r\n"`)

	o := cfg.Output
	c.oneOf("output.format", o.Format, ValidOutputFormats())
	c.oneOf("output.color", o.Color, ValidColorModes())
	if o.Filter != "" {
		_, err := glob.Compile(o.Filter)
		c.require(err == nil, "output.filter", o.Filter, fmt.Sprintf("invalid glob: %v", err))
	}
	c.nonNegative("output.max_width", o.MaxWidth)

	l := cfg.Logging
	if l.Level != "" {
		c.oneOf("logging.level", l.Level, ValidLogLevels())
	}
	c.positive("logging.max_size_mb", l.MaxSizeMB)
	c.require(l.MaxSizeMB <= maxLogSizeMB, "logging.max_size_mb", l.MaxSizeMB,
		fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB))
	c.nonNegative("logging.max_backups", l.MaxBackups)

	// The listener settings only matter when the server runs.
	if mc := cfg.Metrics; mc.Enabled {
		c.require(mc.Addr != "", "metrics.addr", mc.Addr, "is required when metrics are enabled")
		c.require(strings.HasPrefix(mc.Path, "/"), "metrics.path", mc.Path, "must start with /")
	}

	return c.errs
}
