package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/edgemarket/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var log = zap.NewNop()

// Init initializes the application logger.
// Entries go to stdout and to a rotated app.log inside cfg.Dir.
func Init(cfg config.LogConfig) error {
	absLogDir, err := filepath.Abs(cfg.Dir)
	if err != nil {
		absLogDir = cfg.Dir
	}
	if err := os.MkdirAll(absLogDir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory %s: %w", absLogDir, err)
	}

	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level.SetLevel(zapcore.InfoLevel)
	}

	fileWriter := &lumberjack.Logger{
		Filename:   filepath.Join(absLogDir, "app.log"),
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
		LocalTime:  true,
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stdout), level),
		zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(fileWriter), level),
	)
	log = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))

	Info("logger initialized", "dir", absLogDir)
	return nil
}

// Set replaces the global logger, mostly for tests.
func Set(l *zap.Logger) {
	log = l
}

// L returns the underlying zap logger.
func L() *zap.Logger {
	return log
}

func Info(msg string, kv ...interface{}) {
	log.Sugar().Infow(msg, kv...)
}

func Warn(msg string, kv ...interface{}) {
	log.Sugar().Warnw(msg, kv...)
}

func Error(msg string, kv ...interface{}) {
	log.Sugar().Errorw(msg, kv...)
}

func Debug(msg string, kv ...interface{}) {
	log.Sugar().Debugw(msg, kv...)
}

// Sync flushes buffered entries.
func Sync() {
	_ = log.Sync()
}
