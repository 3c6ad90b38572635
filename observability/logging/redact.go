package logging

import (
	"log/slog"
	"strings"
)

// RedactedValue replaces credential material in log output.
const RedactedValue = "[REDACTED]"

// credentialKeys are attribute keys whose values never reach a log sink.
var credentialKeys = map[string]struct{}{
	"authorization": {},
	"bearer":        {},
	"jwt_secret":    {},
	"hmac_secret":   {},
	"passphrase":    {},
	"private_key":   {},
	"token":         {},
}

func isCredentialKey(key string) bool {
	_, ok := credentialKeys[strings.ToLower(strings.TrimSpace(key))]
	return ok
}

// MaskField returns key with value replaced by RedactedValue. Empty values
// are kept so operators can tell a missing credential from a present one.
func MaskField(key, value string) slog.Attr {
	if strings.TrimSpace(value) == "" {
		return slog.String(key, "")
	}
	return slog.String(key, RedactedValue)
}

// redactAttr masks credential keys that were logged without MaskField.
func redactAttr(attr slog.Attr) slog.Attr {
	if !isCredentialKey(attr.Key) || attr.Value.Kind() == slog.KindGroup {
		return attr
	}
	return MaskField(attr.Key, attr.Value.String())
}
