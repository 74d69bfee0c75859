package observability

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordProviderCall(t *testing.T) {
	ok := DefaultMetrics.ProviderCalls.WithLabelValues("Basescan", "tokeninfo", "success")
	failed := DefaultMetrics.ProviderCalls.WithLabelValues("Basescan", "tokeninfo", "error")
	okBefore := testutil.ToFloat64(ok)
	failedBefore := testutil.ToFloat64(failed)

	RecordProviderCall("Basescan", "tokeninfo", 0.1, nil)
	RecordProviderCall("Basescan", "tokeninfo", 0.2, errors.New("boom"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(ok))
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(failed))
}

func TestScanGauges(t *testing.T) {
	RecordScanStarted(50)
	assert.Equal(t, 1.0, testutil.ToFloat64(DefaultMetrics.ScanRunning))
	assert.Equal(t, 50.0, testutil.ToFloat64(DefaultMetrics.ScanCandidates))

	UpdateScanProgress(10, 2)
	assert.Equal(t, 10.0, testutil.ToFloat64(DefaultMetrics.ScanCompleted))
	assert.Equal(t, 2.0, testutil.ToFloat64(DefaultMetrics.ScanErrors))

	RecordScanFinished("success", 48, 12.5, 1700000000)
	assert.Equal(t, 0.0, testutil.ToFloat64(DefaultMetrics.ScanRunning))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(DefaultMetrics.LastSuccessfulScan))
}
