package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	lotteryOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raffle_operations_total",
			Help: "Lottery operations by outcome",
		},
		[]string{"operation", "status"},
	)

	ticketsSold = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "raffle_tickets_sold_total",
			Help: "Tickets sold across all lotteries",
		},
	)

	ticketRevenue = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "raffle_ticket_revenue_total",
			Help: "Ticket proceeds moved into custody, in the smallest currency unit",
		},
	)

	saleLockWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "raffle_sale_lock_wait_seconds",
			Help:    "Time spent waiting for the per-lottery sale lock",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)
)

// StatusSuccess labels operations that completed
const StatusSuccess = "success"

// TrackOperation counts one lottery operation. code is the error code, or
// empty on success.
func TrackOperation(operation, code string) {
	status := StatusSuccess
	if code != "" {
		status = code
	}
	lotteryOperations.WithLabelValues(operation, status).Inc()
}

// TrackTicketSale records a sold ticket and its price
func TrackTicketSale(price uint64) {
	ticketsSold.Inc()
	ticketRevenue.Add(float64(price))
}

// TrackSaleLockWait records how long a buyer waited for the sale lock
func TrackSaleLockWait(d time.Duration) {
	saleLockWait.Observe(d.Seconds())
}
