package metrics

import (
	"context"
	"strings"

	"github.com/nftswap/swapd/internal/core/ports"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "swapd"

// Notifier counts the trade events by topic.
type Notifier struct {
	events *prometheus.CounterVec
}

// NewNotifier registers the trade event counters with the given registerer,
// or with the default one if nil.
func NewNotifier(registerer prometheus.Registerer) (*Notifier, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	events := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trade_events_total",
			Help:      "Number of committed trade transitions and messages by topic.",
		},
		[]string{"topic"},
	)
	if err := registerer.Register(events); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, err
		}
		events = are.ExistingCollector.(*prometheus.CounterVec)
	}
	return &Notifier{events}, nil
}

func (n *Notifier) Notify(_ context.Context, event ports.TradeEvent) error {
	n.events.WithLabelValues(strings.ToUpper(event.Topic)).Inc()
	return nil
}
