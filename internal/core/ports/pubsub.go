package ports

import (
	"fmt"

	"github.com/nftswap/swapd/internal/core/domain"
)

const AnyTopic = "*"
const UnspecifiedTopic = ""

// ErrSubscriptionNotFound is returned when unsubscribing an unknown id.
var ErrSubscriptionNotFound = fmt.Errorf("%w: subscription not found", domain.ErrNotFound)

type Subscription interface {
	Topic() string
	Id() string
	IsSecured() bool
	NotifyAt() string
}

// PubSub defines the methods of a webhook pubsub service. Trade events
// delivered through Notify are published for their topic.
type PubSub interface {
	Notifier

	// Subscribe adds a new subscription for the requested topic. Subscribing
	// the same endpoint twice for a topic returns the existing subscription.
	Subscribe(topic, endpoint, secret string) (string, error)
	// Unsubscribe removes the subscription with the given id.
	Unsubscribe(id string) error
	// ListSubscriptionsForTopic returns the info of all clients subscribed for
	// a certain topic. UnspecifiedTopic lists all the subscriptions.
	ListSubscriptionsForTopic(topic string) []Subscription
	// Publish publishes a message for a certain topic. All clients subscribed
	// for such topic or for AnyTopic will receive the message.
	Publish(topic string, message string) error
	// Close should be used to gracefully close the connection with the store.
	Close() error
}
