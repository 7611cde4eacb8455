package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	reservationCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cantine",
			Name:      "reservation_created_total",
			Help:      "Count of registration attempts by result.",
		},
		[]string{"result"},
	)

	reservationRemoved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "cantine",
			Name:      "reservation_removed_total",
			Help:      "Count of unregistrations.",
		},
	)

	checkouts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cantine",
			Name:      "checkout_total",
			Help:      "Count of meal checkouts by kind and payment method.",
		},
		[]string{"kind", "method"},
	)

	addOns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cantine",
			Name:      "addon_total",
			Help:      "Count of standalone add-on sales by kind.",
		},
		[]string{"kind"},
	)

	daysClosed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "cantine",
			Name:      "day_closed_total",
			Help:      "Count of till closing operations.",
		},
	)

	notifyFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cantine",
			Name:      "notify_failure_total",
			Help:      "Count of failed closing-summary deliveries by channel.",
		},
		[]string{"channel"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cantine",
			Name:      "http_requests_total",
			Help:      "Count of API requests by handler.",
		},
		[]string{"handler"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			reservationCreated,
			reservationRemoved,
			checkouts,
			addOns,
			daysClosed,
			notifyFailures,
			httpRequests,
		)
	})
}

func IncReservationCreated(result string) {
	reservationCreated.WithLabelValues(result).Inc()
}

func IncReservationRemoved() {
	reservationRemoved.Inc()
}

func IncCheckout(kind, method string) {
	checkouts.WithLabelValues(kind, method).Inc()
}

func IncAddOn(kind string) {
	addOns.WithLabelValues(kind).Inc()
}

func IncDayClosed() {
	daysClosed.Inc()
}

func IncNotifyFailure(channel string) {
	notifyFailures.WithLabelValues(channel).Inc()
}

func IncHTTP(handler string) {
	httpRequests.WithLabelValues(handler).Inc()
}
