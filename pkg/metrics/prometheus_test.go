package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewWithRegisterer(reg)

	r.RecordLoad("file", true, 0.1)
	r.RecordLoad("file", false, 0.2)
	r.RecordLoad("file", false, 0.2)
	r.RecordSnapshot(4, 9011, 15)
	r.RecordCache("/api/prices", true)
	r.RecordCache("/api/prices", false)
	r.RecordError("reload")

	assert.Equal(t, 1.0, testutil.ToFloat64(r.loadsTotal.WithLabelValues("file", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.loadsTotal.WithLabelValues("file", "failure")))
	assert.Equal(t, 4.0, testutil.ToFloat64(r.generation))
	assert.Equal(t, 9011.0, testutil.ToFloat64(r.rows.WithLabelValues("prices")))
	assert.Equal(t, 15.0, testutil.ToFloat64(r.rows.WithLabelValues("events")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cacheTotal.WithLabelValues("/api/prices", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("reload")))
}
