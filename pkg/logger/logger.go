// Package logger configures the process-wide zap logger, exposed as a
// logr.Logger and carried through contexts.
package logger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"syscall"

	"github.com/oakwood-commons/smartsearch/pkg/settings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type loggerContextKey struct{}

const (
	AppKey       = "app"
	CommitKey    = "commit"
	VersionKey   = "version"
	BuildTimeKey = "build_time"
	GoVersionKey = "go_version"
	TimeStampKey = "timestamp"
	MessageKey   = "message"
)

var (
	once sync.Once

	// globalZapLogger is kept for Sync.
	globalZapLogger  *zap.Logger
	globalLogrLogger *logr.Logger
	closeSink        func()
	initErr          error

	defaultNoopLogger = logr.Discard()
)

// Get initializes the global logger on stderr. Only the first call of Get or
// Init configures it.
func Get(logLevel int8) *logr.Logger {
	log, _ := Init(logLevel, "")
	return log
}

// Init initializes the global logger. An empty path logs to stderr; otherwise
// entries are appended to the file at path, which keeps them off a terminal
// owned by the search bar. Only the first call configures the logger.
func Init(logLevel int8, path string) (*logr.Logger, error) {
	once.Do(func() {
		sink := zapcore.Lock(os.Stderr)
		if path != "" {
			ws, closer, err := zap.Open(path)
			if err != nil {
				initErr = fmt.Errorf("opening log file %s: %w", path, err)
				return
			}
			sink, closeSink = ws, closer
		}

		encoderCfg := zap.NewProductionEncoderConfig()
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoderCfg.TimeKey = TimeStampKey
		encoderCfg.MessageKey = MessageKey

		goVersion := "unknown"
		if info, ok := debug.ReadBuildInfo(); ok {
			goVersion = info.GoVersion
		}
		core := zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderCfg),
			sink,
			zap.NewAtomicLevelAt(zapcore.Level(logLevel)),
		).With([]zapcore.Field{
			zap.String(AppKey, settings.CliBinaryName),
			zap.String(CommitKey, settings.VersionInformation.Commit),
			zap.String(VersionKey, settings.VersionInformation.BuildVersion),
			zap.String(BuildTimeKey, settings.VersionInformation.BuildTime),
			zap.String(GoVersionKey, goVersion),
		})

		globalZapLogger = zap.New(core,
			zap.AddCaller(),
			zap.AddStacktrace(zap.ErrorLevel),
			zap.WithFatalHook(zapcore.WriteThenPanic),
		)
		gl := zapr.NewLogger(globalZapLogger)
		globalLogrLogger = &gl
	})
	if globalLogrLogger == nil {
		return &defaultNoopLogger, initErr
	}
	return globalLogrLogger, initErr
}

// WithLogger attaches log to ctx. A context already carrying log is returned as is.
func WithLogger(ctx context.Context, log *logr.Logger) context.Context {
	if lp, ok := ctx.Value(loggerContextKey{}).(*logr.Logger); ok && lp == log {
		return ctx
	}
	return context.WithValue(ctx, loggerContextKey{}, log)
}

// FromContext returns the logger in ctx, the global logger, or a no-op logger,
// in that order.
func FromContext(ctx context.Context) *logr.Logger {
	if log, ok := ctx.Value(loggerContextKey{}).(*logr.Logger); ok {
		return log
	}
	return GetGlobalLogger()
}

// Sync flushes buffered entries and closes a log file sink.
func Sync() {
	if globalZapLogger == nil {
		return
	}
	if err := globalZapLogger.Sync(); err != nil && !isIgnorableSyncError(err) {
		fmt.Fprintf(os.Stderr, "WARNING: failed to sync zap logger: %v\n", err)
	}
	if closeSink != nil {
		closeSink()
		closeSink = nil
	}
}

// isIgnorableSyncError reports Sync failures that pipes and TTYs produce.
// Windows consoles wrap ERROR_INVALID_HANDLE in *os.PathError, hence the string match.
func isIgnorableSyncError(err error) bool {
	if errors.Is(err, syscall.ENOTTY) || errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.EIO) || errors.Is(err, syscall.EBADF) {
		return true
	}
	return strings.Contains(err.Error(), "The handle is invalid")
}

// GetGlobalLogger returns the global logger, or a no-op logger before Init.
func GetGlobalLogger() *logr.Logger {
	if globalLogrLogger != nil {
		return globalLogrLogger
	}
	return &defaultNoopLogger
}

func GetNoopLogger() *logr.Logger {
	return &defaultNoopLogger
}
