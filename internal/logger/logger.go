// Package logger provides the ambient zap logger shared by every stage of
// the generator pipeline.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type fileSync struct {
	fd *os.File
}

func (f fileSync) Write(p []byte) (int, error) { return f.fd.Write(p) }
func (f fileSync) Sync() error                 { return f.fd.Sync() }

func level() zapcore.Level {
	v := os.Getenv("LOG_LEVEL")
	if v == "" {
		return zapcore.InfoLevel
	}
	lvl, err := zapcore.ParseLevel(v)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

func sink() zapcore.WriteSyncer {
	path := os.Getenv("LOG_FILE")
	if path == "" {
		return os.Stderr
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		panic(err)
	}
	return fileSync{fd: f}
}

// Log is the package-level named logger. Stages should call Log.Named(stage)
// to scope their fields.
var Log = zap.New(zapcore.NewCore(
	zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		NameKey:        "logger",
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}),
	sink(),
	level(),
)).Named("protoc-gen-tdpb")
