package elog

import (
	"io"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFileOption adjusts the rotation of a server log file.
type LogFileOption func(*FileConfig)

// WithMaxSize sets the size, in megabytes, at which the file is
// rotated. Defaults to 100.
func WithMaxSize(mb int) LogFileOption {
	return func(fc *FileConfig) { fc.MaxSizeMB = mb }
}

// WithMaxAge sets how many days rotated files are kept. The default is
// to keep them regardless of age.
func WithMaxAge(days int) LogFileOption {
	return func(fc *FileConfig) { fc.MaxAgeDays = days }
}

// WithMaxBackups sets how many rotated files are kept. The default is
// to keep all of them, subject to WithMaxAge.
func WithMaxBackups(n int) LogFileOption {
	return func(fc *FileConfig) { fc.MaxBackups = n }
}

// EnableLocalTime names rotated files using local time instead of
// UTC.
func EnableLocalTime() LogFileOption {
	return func(fc *FileConfig) { fc.LocalTime = true }
}

// EnableCompression gzips rotated files.
func EnableCompression() LogFileOption {
	return func(fc *FileConfig) { fc.Compress = true }
}

// OpenLogFile returns a rotating writer for the server log file at
// path, suitable for Output.Console. The file is created on the first
// write.
func OpenLogFile(path string, opts ...LogFileOption) io.WriteCloser {
	fc := &FileConfig{Path: path, MaxSizeMB: 100}
	for _, opt := range opts {
		opt(fc)
	}
	return openLogFile(fc)
}

// OpenConfiguredLogFile opens the log file described by Config.LogFile,
// or returns nil when none is configured.
func OpenConfiguredLogFile(cfg *Config) io.WriteCloser {
	if cfg.LogFile == nil || cfg.LogFile.Path == "" {
		return nil
	}
	fc := *cfg.LogFile
	if fc.MaxSizeMB <= 0 {
		fc.MaxSizeMB = 100
	}
	return openLogFile(&fc)
}

func openLogFile(fc *FileConfig) io.WriteCloser {
	return &lumberjack.Logger{
		Filename:   fc.Path,
		MaxSize:    fc.MaxSizeMB,
		MaxAge:     fc.MaxAgeDays,
		MaxBackups: fc.MaxBackups,
		LocalTime:  fc.LocalTime,
		Compress:   fc.Compress,
	}
}
