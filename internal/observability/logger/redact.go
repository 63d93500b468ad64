package logger

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

const redacted = "[redacted]"

var patientKeys = []string{"email", "phone", "first_name", "last_name", "dob", "address", "client_secret"}

type redactingCore struct {
	zapcore.Core
}

// NewRedactingCore masks string fields whose keys name patient contact data.
func NewRedactingCore(core zapcore.Core) zapcore.Core {
	return &redactingCore{Core: core}
}

func (c *redactingCore) With(fields []zapcore.Field) zapcore.Core {
	return &redactingCore{Core: c.Core.With(redactFields(fields))}
}

func (c *redactingCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

func (c *redactingCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	return c.Core.Write(entry, redactFields(fields))
}

func redactFields(fields []zapcore.Field) []zapcore.Field {
	var out []zapcore.Field
	for i, f := range fields {
		if !isPatientKey(f.Key) || f.Type != zapcore.StringType || f.String == "" {
			continue
		}
		if out == nil {
			out = make([]zapcore.Field, len(fields))
			copy(out, fields)
		}
		out[i].String = redacted
	}
	if out == nil {
		return fields
	}
	return out
}

func isPatientKey(key string) bool {
	key = strings.ToLower(key)
	for _, k := range patientKeys {
		if strings.Contains(key, k) {
			return true
		}
	}
	return false
}
