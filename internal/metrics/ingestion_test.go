package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestion_Counters(t *testing.T) {
	m := NewIngestion()

	m.DayFinished("/src/p", true, 3, 1, 20*time.Millisecond)
	m.DayFinished("/src/p", false, 5, 0, time.Millisecond)
	m.FetchAdvisory("/src/p")
	m.RunFinished("completed")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.daysProcessed.WithLabelValues("succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.daysProcessed.WithLabelValues("failed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.commitsIngested.WithLabelValues("/src/p")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commitsSkipped.WithLabelValues("/src/p")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetchAdvisories.WithLabelValues("/src/p")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("completed")))
}

func TestIngestion_NilIsNoop(t *testing.T) {
	var m *Ingestion
	m.DayFinished("/src/p", true, 1, 0, time.Second)
	m.FetchAdvisory("/src/p")
	m.RunFinished("failed")
	assert.NoError(t, m.WriteToFile(filepath.Join(t.TempDir(), "x.prom")))
}

func TestIngestion_WriteToFile(t *testing.T) {
	m := NewIngestion()
	m.RunFinished("completed")

	path := filepath.Join(t.TempDir(), "gitpulse.prom")
	require.NoError(t, m.WriteToFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `gitpulse_runs_total{status="completed"} 1`)
}
