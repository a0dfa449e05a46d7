package prometheus

import (
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

// Redirect outcomes.
const (
	RedirectServed    = "served"
	RedirectNotFound  = "not_found"
	RedirectFailed    = "failed"
	RedirectQueued    = "queued"
	RedirectDuplicate = "duplicate"
)

var (
	redirectsTotal = promauto.NewCounterVec(
		promclient.CounterOpts{
			Name: "paylink_redirects_total",
			Help: "Short link redirects partitioned by outcome",
		},
		[]string{"result"},
	)

	creditedEarningsTotal = promauto.NewCounterVec(
		promclient.CounterOpts{
			Name: "paylink_credited_earnings_total",
			Help: "Earnings credited to links, by visitor country and device",
		},
		[]string{"country", "device"},
	)

	withdrawalTransitionsTotal = promauto.NewCounterVec(
		promclient.CounterOpts{
			Name: "paylink_withdrawal_transitions_total",
			Help: "Withdrawal status changes partitioned by target status",
		},
		[]string{"status"},
	)

	visitConsumerErrorsTotal = promauto.NewCounter(
		promclient.CounterOpts{
			Name: "paylink_visit_consumer_errors_total",
			Help: "Visits that could not be attributed by the async consumer",
		},
	)
)

// ObserveRedirect counts one redirect outcome.
func ObserveRedirect(result string) {
	redirectsTotal.WithLabelValues(result).Inc()
}

// ObserveCredit adds an attributed credit. The float conversion is for
// reporting only; balances never pass through it.
func ObserveCredit(country, device string, amount decimal.Decimal) {
	creditedEarningsTotal.WithLabelValues(country, device).Add(amount.InexactFloat64())
}

// ObserveWithdrawalTransition counts a withdrawal moving to status.
func ObserveWithdrawalTransition(status string) {
	withdrawalTransitionsTotal.WithLabelValues(status).Inc()
}

// ObserveVisitConsumerError counts a failed async attribution attempt.
func ObserveVisitConsumerError() {
	visitConsumerErrorsTotal.Inc()
}
