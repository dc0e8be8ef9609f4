package logger

import (
	"log/slog"
	"os"
	"time"

	slogzap "github.com/samber/slog-zap/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Дефолты сэмплирования: первые 100 записей в секунду проходят целиком,
// дальше каждая десятая.
const (
	defaultSampleInitial    = 100
	defaultSampleThereafter = 10
)

// newZapHandler — JSON-логи через zap для stage/prod.
func newZapHandler(cfg Config) slog.Handler {
	lvl := cfg.Level
	if cfg.Debug && cfg.Level == 0 {
		lvl = slog.LevelDebug
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.MessageKey = "msg"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	if cfg.AddSource {
		encCfg.EncodeCaller = zapcore.ShortCallerEncoder
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(os.Stdout), toZapLevel(lvl))
	core = zapcore.NewSamplerWithOptions(core, time.Second,
		orDefault(cfg.SampleInitial, defaultSampleInitial),
		orDefault(cfg.SampleThereafter, defaultSampleThereafter))

	z := zap.New(core,
		zap.AddCaller(),
		zap.AddCallerSkip(1), // caller должен указывать на вызов slog, а не на обёртку
	)

	return slogzap.Option{Logger: z}.NewZapHandler()
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func toZapLevel(lvl slog.Level) zapcore.Level {
	switch {
	case lvl <= slog.LevelDebug:
		return zapcore.DebugLevel
	case lvl == slog.LevelInfo:
		return zapcore.InfoLevel
	case lvl == slog.LevelWarn:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}
