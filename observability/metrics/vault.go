package metrics

import (
	"math"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// VaultMetrics tracks operations executed against the fractional vault.
type VaultMetrics struct {
	operations      *prometheus.CounterVec
	latency         *prometheus.HistogramVec
	bidsRejected    *prometheus.CounterVec
	refundsDeferred prometheus.Counter
	withdrawals     *prometheus.CounterVec
	rewardsDeposit  prometheus.Counter
	averagePrice    prometheus.Gauge
	totalStaked     prometheus.Gauge
	shareSupply     prometheus.Gauge
	auctionRound    prometheus.Gauge
	boughtOut       prometheus.Gauge
}

var (
	vaultOnce     sync.Once
	vaultRegistry *VaultMetrics
)

// Vault returns the lazily registered vault metrics.
func Vault() *VaultMetrics {
	vaultOnce.Do(func() {
		vaultRegistry = &VaultMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "ricks",
				Subsystem: "vault",
				Name:      "operations_total",
				Help:      "Vault operations segmented by operation and outcome class.",
			}, []string{"operation", "outcome"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "ricks",
				Subsystem: "vault",
				Name:      "operation_duration_seconds",
				Help:      "Latency distribution for vault operations.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"operation"}),
			bidsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "ricks",
				Subsystem: "auction",
				Name:      "bids_rejected_total",
				Help:      "Rejected bids segmented by reason.",
			}, []string{"reason"}),
			refundsDeferred: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "ricks",
				Subsystem: "vault",
				Name:      "refunds_deferred_total",
				Help:      "Outbound payments that failed and were credited as withdrawable.",
			}),
			withdrawals: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "ricks",
				Subsystem: "vault",
				Name:      "withdrawals_total",
				Help:      "Withdrawal attempts segmented by outcome.",
			}, []string{"outcome"}),
			rewardsDeposit: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "ricks",
				Subsystem: "staking",
				Name:      "rewards_deposited_total",
				Help:      "Reward token units deposited into the staking pool.",
			}),
			averagePrice: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "ricks",
				Subsystem: "pricing",
				Name:      "average_price",
				Help:      "Rolling average settled price per share.",
			}),
			totalStaked: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "ricks",
				Subsystem: "staking",
				Name:      "total_staked",
				Help:      "Shares currently staked in the reward pool.",
			}),
			shareSupply: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "ricks",
				Subsystem: "vault",
				Name:      "share_supply",
				Help:      "Outstanding share supply.",
			}),
			auctionRound: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "ricks",
				Subsystem: "auction",
				Name:      "round",
				Help:      "Number of auctions started so far.",
			}),
			boughtOut: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "ricks",
				Subsystem: "buyout",
				Name:      "executed",
				Help:      "Set to 1 once the buyout has executed.",
			}),
		}
		prometheus.MustRegister(
			vaultRegistry.operations,
			vaultRegistry.latency,
			vaultRegistry.bidsRejected,
			vaultRegistry.refundsDeferred,
			vaultRegistry.withdrawals,
			vaultRegistry.rewardsDeposit,
			vaultRegistry.averagePrice,
			vaultRegistry.totalStaked,
			vaultRegistry.shareSupply,
			vaultRegistry.auctionRound,
			vaultRegistry.boughtOut,
		)
	})
	return vaultRegistry
}

// ObserveOperation records the outcome class and latency of an operation.
func (m *VaultMetrics) ObserveOperation(operation, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	operation = label(operation)
	m.operations.WithLabelValues(operation, label(outcome)).Inc()
	m.latency.WithLabelValues(operation).Observe(d.Seconds())
}

func (m *VaultMetrics) RecordBidRejected(reason string) {
	if m == nil {
		return
	}
	m.bidsRejected.WithLabelValues(label(reason)).Inc()
}

func (m *VaultMetrics) RecordRefundDeferred() {
	if m == nil {
		return
	}
	m.refundsDeferred.Inc()
}

func (m *VaultMetrics) RecordWithdrawal(outcome string) {
	if m == nil {
		return
	}
	m.withdrawals.WithLabelValues(label(outcome)).Inc()
}

func (m *VaultMetrics) RecordRewardDeposit(amount *big.Int) {
	if m == nil || amount == nil || amount.Sign() <= 0 {
		return
	}
	m.rewardsDeposit.Add(bigToFloat(amount))
}

// Snapshot captures the gauges refreshed after every committed operation.
type Snapshot struct {
	AveragePrice *big.Int
	TotalStaked  *big.Int
	ShareSupply  *big.Int
	AuctionRound uint64
	BoughtOut    bool
}

func (m *VaultMetrics) SetSnapshot(s Snapshot) {
	if m == nil {
		return
	}
	if s.AveragePrice != nil {
		m.averagePrice.Set(bigToFloat(s.AveragePrice))
	}
	m.totalStaked.Set(bigToFloat(s.TotalStaked))
	m.shareSupply.Set(bigToFloat(s.ShareSupply))
	m.auctionRound.Set(float64(s.AuctionRound))
	if s.BoughtOut {
		m.boughtOut.Set(1)
	} else {
		m.boughtOut.Set(0)
	}
}

func label(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return "unknown"
	}
	return value
}

func bigToFloat(value *big.Int) float64 {
	if value == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(value).Float64()
	if math.IsInf(f, 0) {
		return math.MaxFloat64
	}
	return f
}
