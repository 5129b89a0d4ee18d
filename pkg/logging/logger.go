package logging

// ProcessName identifies the process a logger belongs to.
type ProcessName string

const (
	MarketplaceProcess ProcessName = "marketplace"
	ReconcilerProcess  ProcessName = "reconciler"
	CLIProcess         ProcessName = "cli"
)

type LoggerConfig struct {
	ProcessName   ProcessName
	IsDevelopment bool
}

// Logger is the logging interface used across the codebase.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Fatal(msg string, keysAndValues ...interface{})

	Debugf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	Fatalf(template string, args ...interface{})

	With(keysAndValues ...interface{}) Logger
}
