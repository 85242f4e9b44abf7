package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterValue sums a counter family's samples whose labels include want.
func counterValue(t *testing.T, reg *prometheus.Registry, name string, want map[string]string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	total := 0.0
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			labels := map[string]string{}
			for _, pair := range metric.GetLabel() {
				labels[pair.GetName()] = pair.GetValue()
			}
			match := true
			for k, v := range want {
				if labels[k] != v {
					match = false
				}
			}
			if match {
				total += metric.GetCounter().GetValue()
			}
		}
	}
	return total
}

func TestMetricsRecordOperations(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveOperation("flatten", time.Now(), nil)
	m.ObserveOperation("flatten", time.Now(), errors.New("boom"))
	m.FilesMoved("flatten", 3)
	m.ItemsSkipped("flatten", 0)
	m.Classified("image")

	assert.Equal(t, 1.0, counterValue(t, reg, "organizer_operations_total", map[string]string{"operation": "flatten", "status": "success"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "organizer_operations_total", map[string]string{"operation": "flatten", "status": "failed"}))
	assert.Equal(t, 3.0, counterValue(t, reg, "organizer_files_moved_total", map[string]string{"operation": "flatten"}))
	assert.Equal(t, 0.0, counterValue(t, reg, "organizer_items_skipped_total", nil))
	assert.Equal(t, 1.0, counterValue(t, reg, "organizer_files_classified_total", map[string]string{"category": "image"}))
}

func TestMetricsHandlerServesExposition(t *testing.T) {
	t.Parallel()

	m := New(nil)
	m.WatchEvent("file")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "organizer_watch_events_total")
}

func TestNilMetricsIsSafe(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveOperation("undo", time.Now(), nil)
		m.FilesMoved("undo", 1)
		m.ItemsSkipped("undo", 1)
		m.Classified("other")
		m.WatchEvent("dir")
	})
}
