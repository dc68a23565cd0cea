package ports

import "context"

// TradeEvent is a committed change of a trade, ready to be delivered.
type TradeEvent struct {
	Topic   string
	TradeID string
	// Parties are the wallet addresses of initiator and counterparty.
	Parties []string
	// Payload is the JSON serialized event.
	Payload []byte
}

// Notifier delivers trade events outside of the daemon. Delivery is best
// effort and happens after the change is committed.
type Notifier interface {
	Notify(ctx context.Context, event TradeEvent) error
}
