package metrics

import (
	"math/big"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestVaultMetricsRecordOutcomes(t *testing.T) {
	m := Vault()
	require.Same(t, m, Vault())

	before := testutil.ToFloat64(m.operations.WithLabelValues("bid", "ok"))
	m.ObserveOperation("Bid", "ok", 10*time.Millisecond)
	require.Equal(t, before+1, testutil.ToFloat64(m.operations.WithLabelValues("bid", "ok")))

	m.RecordBidRejected("")
	require.GreaterOrEqual(t, testutil.ToFloat64(m.bidsRejected.WithLabelValues("unknown")), 1.0)

	m.SetSnapshot(Snapshot{
		AveragePrice: big.NewInt(42),
		TotalStaked:  big.NewInt(7),
		ShareSupply:  big.NewInt(105),
		AuctionRound: 3,
		BoughtOut:    true,
	})
	require.Equal(t, 42.0, testutil.ToFloat64(m.averagePrice))
	require.Equal(t, 105.0, testutil.ToFloat64(m.shareSupply))
	require.Equal(t, 1.0, testutil.ToFloat64(m.boughtOut))

	var nilMetrics *VaultMetrics
	nilMetrics.RecordRefundDeferred()
}
