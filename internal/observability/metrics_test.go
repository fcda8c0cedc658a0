package observability

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordTrade(t *testing.T) {
	m := NewMetrics("test", prometheus.NewRegistry())

	m.RecordTrade("jupiter", "BUY", true, false, 0.02, 0.000005, 1.2)
	m.RecordTrade("jupiter", "BUY", false, false, 0.02, 0, 0.4)

	if got := testutil.ToFloat64(m.TradesTotal.WithLabelValues("jupiter", "BUY", "success")); got != 1 {
		t.Errorf("success trades = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.TradesTotal.WithLabelValues("jupiter", "BUY", "failed")); got != 1 {
		t.Errorf("failed trades = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.TradeVolumeSOL.WithLabelValues("false")); got != 0.02 {
		t.Errorf("volume = %v, want 0.02", got)
	}
}

func TestRecordRPCLatency_CountsErrors(t *testing.T) {
	m := NewMetrics("test", prometheus.NewRegistry())

	m.RecordRPCLatency("getBalance", 0.1, nil)
	m.RecordRPCLatency("getBalance", 0.1, errors.New("boom"))

	if got := testutil.ToFloat64(m.RPCCallErrors.WithLabelValues("getBalance")); got != 1 {
		t.Errorf("rpc errors = %v, want 1", got)
	}
}

func TestRecordFunding(t *testing.T) {
	m := NewMetrics("test", prometheus.NewRegistry())

	m.RecordFunding(0.5, nil)
	m.RecordFunding(0.5, errors.New("fail"))

	if got := testutil.ToFloat64(m.FundedSOL); got != 0.5 {
		t.Errorf("funded = %v, want 0.5", got)
	}
	if got := testutil.ToFloat64(m.FundingTotal.WithLabelValues("failed")); got != 1 {
		t.Errorf("failed fundings = %v, want 1", got)
	}
}
