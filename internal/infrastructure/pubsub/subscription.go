package pubsub

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nftswap/swapd/internal/core/ports"
)

const tradeTopicPrefix = "TRADE_"

var (
	ErrMissingTopic    = errors.New("webhook topic is missing")
	ErrInvalidTopic    = errors.New("webhook topic must be * or a TRADE_<ACTION> event")
	ErrInvalidEndpoint = errors.New("webhook endpoint must be an absolute http(s) URL")
)

// Subscription is a webhook notified of the trade events published for
// TradeTopic. The wildcard topic receives every trade event.
type Subscription struct {
	ID         string
	TradeTopic string `badgerhold:"index"`
	Endpoint   string
	Secret     string
	CreatedAt  time.Time
}

type subscriptions []Subscription

func (s subscriptions) toPortable() []ports.Subscription {
	subs := make([]ports.Subscription, 0, len(s))
	for i := range s {
		sub := s[i]
		subs = append(subs, &sub)
	}
	return subs
}

func NewSubscription(topic, endpoint, secret string) (*Subscription, error) {
	if err := validateTopic(topic); err != nil {
		return nil, err
	}
	if err := validateEndpoint(endpoint); err != nil {
		return nil, err
	}
	return &Subscription{
		ID:         uuid.New().String(),
		TradeTopic: topic,
		Endpoint:   endpoint,
		Secret:     secret,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

func (h *Subscription) Topic() string {
	return h.TradeTopic
}

func (h *Subscription) Id() string {
	return h.ID
}

func (h *Subscription) NotifyAt() string {
	return h.Endpoint
}

func (h *Subscription) IsSecured() bool {
	return len(h.Secret) > 0
}

// Matches tells whether the webhook must be notified of an event published
// for the given topic.
func (h *Subscription) Matches(topic string) bool {
	return h.TradeTopic == ports.AnyTopic || h.TradeTopic == topic
}

func validateTopic(topic string) error {
	if topic == ports.UnspecifiedTopic {
		return ErrMissingTopic
	}
	if topic == ports.AnyTopic {
		return nil
	}
	action := strings.TrimPrefix(topic, tradeTopicPrefix)
	if action == topic || action == "" || strings.ToUpper(action) != action {
		return ErrInvalidTopic
	}
	return nil
}

func validateEndpoint(endpoint string) error {
	u, err := url.ParseRequestURI(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidEndpoint
	}
	return nil
}
