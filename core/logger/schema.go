package logger

import "strings"

// Closed vocabularies for enum-like fields; see fields.clampEnums.
var (
	allowedStatus  = vocabulary("ok", "fail", "skip", "retry", "rate_limited", "cancelled")
	allowedOutcome = vocabulary("ok", "fail", "cancelled", "rate_limited", "rejected")
)

func vocabulary(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

func normalizeLevel(level string) string {
	switch l := strings.ToUpper(strings.TrimSpace(level)); l {
	case "":
		return "INFO"
	case "WARNING":
		return "WARN"
	default:
		return l
	}
}

func normalizeEnum(value string, allowed map[string]bool) (string, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	return value, value != "" && allowed[value]
}

// defaultKeyOrder puts correlation ids right after the event, then handler
// details, then domain counters, with errors last.
var defaultKeyOrder = []string{
	"ts", "level", "component", "event", "status",
	"rid", "rid_full", "ts_unix_nano",
	"update_id", "user_id", "chat_id", "chat_type",
	"handler", "cb_key", "state", "action", "outcome", "duration_ms",
	"messages", "kb", "entries", "position", "payload", "username",
	"mode", "listen", "public_url", "db", "host", "port",
	"schedule", "next_run", "recipients", "sent", "failed",
	"err", "err_code", "cause", "attempts",
}
