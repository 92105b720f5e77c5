package ffmpeg

import "strings"

// Log levels as printed by -loglevel level+info, most severe first.
var logLevels = map[string]int{
	"quiet":   -8,
	"panic":   0,
	"fatal":   8,
	"error":   16,
	"warning": 24,
	"info":    32,
	"verbose": 40,
	"debug":   48,
	"trace":   56,
}

// LogLine is one line of ffmpeg stderr split into its parts.
type LogLine struct {
	Level     string
	Component string // e.g. "video4linux2,v4l2 @ 0x5581"; empty for global lines
	Message   string
}

// ParseLine splits "[level] msg" and "[component @ 0x...] [level] msg".
// Lines without a recognised level are reported at info with the text
// untouched.
func ParseLine(line string) LogLine {
	plain := LogLine{Level: "info", Message: line}

	head, rest, ok := cutBracket(line)
	if !ok {
		return plain
	}
	if _, known := logLevels[head]; known {
		return LogLine{Level: head, Message: rest}
	}

	level, msg, ok := cutBracket(rest)
	if _, known := logLevels[level]; !ok || !known {
		return plain
	}
	return LogLine{Level: level, Component: head, Message: msg}
}

// cutBracket splits "[x] rest" into x and rest.
func cutBracket(s string) (inside, rest string, ok bool) {
	if !strings.HasPrefix(s, "[") {
		return "", s, false
	}
	inside, rest, ok = strings.Cut(s[1:], "] ")
	if !ok {
		return "", s, false
	}
	return inside, rest, true
}

// Text returns the message with its component prefix restored.
func (l LogLine) Text() string {
	if l.Component == "" {
		return l.Message
	}
	return "[" + l.Component + "] " + l.Message
}

// IsError reports whether the line is error level or worse.
func (l LogLine) IsError() bool {
	return IsErrorLevel(l.Level)
}

// ParseLogLevel adapts ParseLine to process.LogParser.
func ParseLogLevel(line string) (level, msg string) {
	parsed := ParseLine(line)
	return parsed.Level, parsed.Text()
}

// IsErrorLevel reports whether level is error or worse.
func IsErrorLevel(level string) bool {
	severity, ok := logLevels[level]
	return ok && level != "quiet" && severity <= logLevels["error"]
}
