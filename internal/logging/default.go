package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Plugin = zapcore.Core

func NewLogger(plugin zapcore.Core, options ...zap.Option) *zap.Logger {
	return zap.New(plugin, append(DefaultOption(), options...)...)
}

func NewPlugin(writer zapcore.WriteSyncer, enabler zapcore.LevelEnabler) Plugin {
	return zapcore.NewCore(DefaultEncoder(), writer, enabler)
}

func NewStderrPlugin(enabler zapcore.LevelEnabler) Plugin {
	return NewPlugin(zapcore.Lock(zapcore.AddSync(os.Stderr)), enabler)
}

// NewFilePlugin writes to a rotating file. lumberjack has no Sync, so the returned
// closer must be closed before exit to flush everything to disk.
func NewFilePlugin(filePath string, enabler zapcore.LevelEnabler) (Plugin, io.Closer) {
	writer := DefaultLumberjackLogger()
	writer.Filename = filePath
	return NewPlugin(zapcore.AddSync(writer), enabler), writer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup builds the process logger: stderr always, plus a rotating file when filePath is set.
// stdout stays free for command output (bookscout search prints records there).
// level is a zap level name ("debug", "info", ...); empty means info.
func Setup(level string, filePath string) (*zap.Logger, io.Closer, error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, nil, fmt.Errorf("log level %q: %w", level, err)
		}
	}

	plugins := []zapcore.Core{NewStderrPlugin(lvl)}
	var closer io.Closer = nopCloser{}
	if filePath != "" {
		filePlugin, c := NewFilePlugin(filePath, lvl)
		plugins = append(plugins, filePlugin)
		closer = c
	}

	return NewLogger(zapcore.NewTee(plugins...)), closer, nil
}
