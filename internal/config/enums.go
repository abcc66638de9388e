package config

import (
	"log/slog"
	"sort"
	"strings"
)

// enumNormalizer maps loosely written values onto a closed set.
type enumNormalizer[T ~string] struct {
	values       map[string]T
	defaultValue T
}

func newEnumNormalizer[T ~string](defaultValue T, values ...T) enumNormalizer[T] {
	m := make(map[string]T, len(values))
	for _, v := range values {
		m[string(v)] = v
	}
	return enumNormalizer[T]{values: m, defaultValue: defaultValue}
}

func (n enumNormalizer[T]) normalize(raw string) T {
	if v, ok := n.values[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return v
	}
	return n.defaultValue
}

func (n enumNormalizer[T]) valid(raw T) bool {
	_, ok := n.values[strings.ToLower(strings.TrimSpace(string(raw)))]
	return ok
}

func (n enumNormalizer[T]) options() []string {
	keys := make([]string, 0, len(n.values))
	for k := range n.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var logLevels = newEnumNormalizer(LogLevelInfo, LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError)

func NormalizeLogLevel(raw string) LogLevel {
	return logLevels.normalize(raw)
}

// SlogLevel converts the level for slog handler options.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

var logFormats = newEnumNormalizer(LogFormatText, LogFormatJSON, LogFormatText)

func NormalizeLogFormat(raw string) LogFormat {
	return logFormats.normalize(raw)
}

// MinifyBackend selects the minifier implementation.
type MinifyBackend string

const (
	MinifyBackendRemote MinifyBackend = "remote"
	MinifyBackendLocal  MinifyBackend = "local"
	MinifyBackendNone   MinifyBackend = "none"
)

var minifyBackends = newEnumNormalizer(MinifyBackendRemote, MinifyBackendRemote, MinifyBackendLocal, MinifyBackendNone)

// PublishBackend selects the git implementation used for publishing.
type PublishBackend string

const (
	PublishBackendExec  PublishBackend = "exec"
	PublishBackendGoGit PublishBackend = "gogit"
)

var publishBackends = newEnumNormalizer(PublishBackendExec, PublishBackendExec, PublishBackendGoGit)
