package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/stackbound/task-service/internal/platform/logging"
)

// RedactHeaders flattens an http.Header into slog attributes for debug
// logging. The sensitive set comes from logging.SensitiveHeaders, the same
// set the masq log handler redacts by field name, so the two layers agree on
// what counts as a credential. Multi-value headers are comma joined.
func RedactHeaders(headers http.Header) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(headers))
	for key, vals := range headers {
		value := strings.Join(vals, ",")
		if logging.SensitiveHeaders[strings.ToLower(key)] {
			value = "[REDACTED]"
		}
		attrs = append(attrs, slog.String(key, value))
	}
	return attrs
}
