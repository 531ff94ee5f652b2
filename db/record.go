package database

import (
	"strconv"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/subhadeepchowdhury41/we-share/metrics"
)

// Props returns the property map of the node stored under key, or nil when
// the column is missing or null.
func Props(record *neo4j.Record, key string) map[string]any {
	value, ok := record.Get(key)
	if !ok || value == nil {
		return nil
	}
	switch node := value.(type) {
	case neo4j.Node:
		return node.Props
	case *neo4j.Node:
		return node.Props
	case map[string]any:
		return node
	}
	return nil
}

// Value returns the raw column value, nil when absent.
func Value(record *neo4j.Record, key string) any {
	value, _ := record.Get(key)
	return value
}

func String(props map[string]any, key string) string {
	if s, ok := props[key].(string); ok {
		return s
	}
	return ""
}

func Int(props map[string]any, key string) int64 {
	return AsInt(props[key])
}

func Bool(props map[string]any, key string) bool {
	return AsBool(props[key])
}

func Strings(props map[string]any, key string) []string {
	return AsStrings(props[key])
}

func AsInt(value any) int64 {
	switch v := value.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

func AsBool(value any) bool {
	b, _ := value.(bool)
	return b
}

func AsStrings(value any) []string {
	switch v := value.(type) {
	case []string:
		return append([]string{}, v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return []string{}
}

// NormalizeTime converts the temporal representations the store may hand
// back into a UTC time. ok is false when the value is not recognised.
func NormalizeTime(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v.UTC(), true
	case neo4j.LocalDateTime:
		return v.Time().UTC(), true
	case neo4j.Date:
		return v.Time().UTC(), true
	case int64:
		return time.UnixMilli(v).UTC(), true
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t.UTC(), true
		}
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
			return time.UnixMilli(ms).UTC(), true
		}
	}
	return time.Time{}, false
}

// Dates normalizes stored dates and substitutes the current time for values
// it cannot read. Every substitution is logged and counted.
type Dates struct {
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewDates(logger *zap.Logger, m *metrics.Metrics) *Dates {
	return &Dates{logger: logger, metrics: m, now: time.Now}
}

func (d *Dates) Time(props map[string]any, field string) time.Time {
	value := props[field]
	if t, ok := NormalizeTime(value); ok {
		return t
	}
	d.logger.Warn("unreadable date, using current time",
		zap.String("field", field),
		zap.Any("value", value),
	)
	d.metrics.DateFallbacks.WithLabelValues(field).Inc()
	return d.now().UTC()
}
