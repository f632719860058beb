package logx

// The package-level functions delegate to a process-wide default logger,
// configured from the environment at init.

var defaultLogger *Logger

func init() {
	defaultLogger = NewLoggerFromEnv()
}

// SetDefaultLogger replaces the default logger.
func SetDefaultLogger(logger *Logger) {
	defaultLogger = logger
}

// GetDefaultLogger returns the default logger.
func GetDefaultLogger() *Logger {
	return defaultLogger
}

// SetLevel sets the minimum level of the default logger.
func SetLevel(level Level) {
	defaultLogger.SetLevel(level)
}

// Debug logs a debug message on the default logger.
func Debug(msg string) { defaultLogger.Debug(msg) }

// Info logs an info message on the default logger.
func Info(msg string) { defaultLogger.Info(msg) }

// Warn logs a warning on the default logger.
func Warn(msg string) { defaultLogger.Warn(msg) }

// Error logs an error message on the default logger.
func Error(msg string) { defaultLogger.Error(msg) }

// Fatal logs a fatal message on the default logger and exits.
func Fatal(msg string) { defaultLogger.Fatal(msg) }

// Debugf logs a formatted debug message on the default logger.
func Debugf(format string, args ...any) { defaultLogger.Debugf(format, args...) }

// Infof logs a formatted info message on the default logger.
func Infof(format string, args ...any) { defaultLogger.Infof(format, args...) }

// Warnf logs a formatted warning on the default logger.
func Warnf(format string, args ...any) { defaultLogger.Warnf(format, args...) }

// Errorf logs a formatted error message on the default logger.
func Errorf(format string, args ...any) { defaultLogger.Errorf(format, args...) }

// Fatalf logs a formatted fatal message on the default logger and exits.
func Fatalf(format string, args ...any) { defaultLogger.Fatalf(format, args...) }

// WithFields starts an entry with fields on the default logger.
func WithFields(fields Fields) *Entry { return defaultLogger.WithFields(fields) }

// WithField starts an entry with a single field on the default logger.
func WithField(key string, value any) *Entry { return defaultLogger.WithField(key, value) }

// WithError starts an entry with an error field on the default logger.
func WithError(err error) *Entry { return defaultLogger.WithError(err) }
