package metrics

import (
	"context"
	"strings"
	"time"
)

// New Relic only charts custom metrics under this prefix
const customMetricPrefix = "Custom/"

func customMetricName(name string) string {
	if strings.HasPrefix(name, customMetricPrefix) {
		return name
	}
	return customMetricPrefix + name
}

// RecordCount adds count to a custom metric. It does nothing when ctx carries
// no application.
func RecordCount(ctx context.Context, name string, count uint64) {
	if app, ok := applicationFromContext(ctx); ok {
		app.RecordCustomMetric(customMetricName(name), float64(count))
	}
}

// RecordDuration records duration in milliseconds
func RecordDuration(ctx context.Context, name string, duration time.Duration) {
	if app, ok := applicationFromContext(ctx); ok {
		app.RecordCustomMetric(customMetricName(name), float64(duration)/float64(time.Millisecond))
	}
}

// RecordEvent reports a custom event with attributes
func RecordEvent(ctx context.Context, eventType string, attributes map[string]interface{}) {
	if app, ok := applicationFromContext(ctx); ok {
		app.RecordCustomEvent(eventType, attributes)
	}
}
