package commerce

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	sharederrors "github.com/Apurer/storefront-core/internal/shared/errors"
)

const genericFailure = "request failed"

// problem document members that never carry field messages.
var reservedKeys = map[string]bool{
	"type": true, "title": true, "status": true, "instance": true, "code": true,
}

func remoteError(op string, status int, payload []byte) *sharederrors.RemoteError {
	return &sharederrors.RemoteError{
		Operation: op,
		Status:    status,
		Message:   extractMessage(status, payload),
		Payload:   payload,
	}
}

// extractMessage picks the first non-blank detail/message/error string, then
// field-level messages, then a generic fallback. Non-JSON bodies get a status-coded message.
func extractMessage(status int, payload []byte) string {
	payload = bytes.TrimSpace(payload)
	statusMessage := fmt.Sprintf("%s with status %d", genericFailure, status)
	if len(payload) == 0 {
		return statusMessage
	}
	var body map[string]any
	if err := json.Unmarshal(payload, &body); err != nil {
		var list []string
		if json.Unmarshal(payload, &list) == nil {
			if msg := joinNonBlank(list); msg != "" {
				return msg
			}
			return genericFailure
		}
		return statusMessage
	}
	for _, key := range []string{"detail", "message", "error"} {
		if s, ok := body[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	fields := body
	if nested, ok := body["errors"].(map[string]any); ok {
		fields = nested
	}
	if msg := fieldMessages(fields); msg != "" {
		return msg
	}
	return genericFailure
}

func fieldMessages(fields map[string]any) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if !reservedKeys[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	var parts []string
	for _, k := range keys {
		for _, msg := range messagesOf(fields[k]) {
			parts = append(parts, k+": "+msg)
		}
	}
	return strings.Join(parts, "; ")
}

func messagesOf(v any) []string {
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
	case []any:
		var out []string
		for _, item := range t {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	}
	return nil
}

func joinNonBlank(list []string) string {
	var out []string
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, "; ")
}
