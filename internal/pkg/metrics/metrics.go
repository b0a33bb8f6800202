package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "airdrop_farmer"

var (
	// RPCCalls counts JSON-RPC calls per chain, method and result.
	RPCCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rpc_calls_total",
		Help:      "JSON-RPC calls by chain, method and result.",
	}, []string{"chain", "method", "result"})

	TransactionsSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transactions_sent_total",
		Help:      "Signed transactions by chain and receipt status.",
	}, []string{"chain", "status"})

	Withdrawals = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "withdrawals_total",
		Help:      "Exchange withdrawals by exchange and outcome.",
	}, []string{"exchange", "outcome"})

	// AccountOutcomes: итог обработки профиля: success, timeout, error.
	AccountOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "account_outcomes_total",
		Help:      "Per-account activity outcomes.",
	}, []string{"activity", "outcome"})

	GasPriceGwei = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "gas_price_gwei",
		Help:      "Last observed gas price per chain.",
	}, []string{"chain"})

	registerOnce sync.Once
)

// MustRegister registers collectors with the default registry once.
func MustRegister() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RPCCalls, TransactionsSent, Withdrawals, AccountOutcomes, GasPriceGwei)
	})
}

// Result maps an error to a metric label.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
