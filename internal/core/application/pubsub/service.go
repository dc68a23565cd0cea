package pubsub

import (
	"context"
	"fmt"

	"github.com/nftswap/swapd/internal/core/application/trade"
	"github.com/nftswap/swapd/internal/core/domain"
	"github.com/nftswap/swapd/internal/core/ports"
	"github.com/samber/lo"
)

// WebhookInfo describes a registered webhook, the secret is never exposed.
type WebhookInfo struct {
	ID        string
	Topic     string
	Endpoint  string
	IsSecured bool
}

// Service lets the operator manage the webhooks notified of trade events.
type Service struct {
	pubsub ports.PubSub
}

func NewService(pubsub ports.PubSub) *Service {
	return &Service{pubsub}
}

func (s *Service) AddWebhook(
	_ context.Context, topic, endpoint, secret string,
) (string, error) {
	if !isValidTopic(topic) {
		return "", fmt.Errorf("%w: unknown topic %q", domain.ErrValidation, topic)
	}
	id, err := s.pubsub.Subscribe(topic, endpoint, secret)
	if err != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}
	return id, nil
}

func (s *Service) RemoveWebhook(_ context.Context, id string) error {
	return s.pubsub.Unsubscribe(id)
}

// ListWebhooks returns the webhooks notified for the given topic, including
// those subscribed for any topic. An empty topic lists all of them.
func (s *Service) ListWebhooks(_ context.Context, topic string) ([]WebhookInfo, error) {
	if topic != ports.UnspecifiedTopic && !isValidTopic(topic) {
		return nil, fmt.Errorf("%w: unknown topic %q", domain.ErrValidation, topic)
	}

	subs := s.pubsub.ListSubscriptionsForTopic(topic)
	return lo.Map(subs, func(sub ports.Subscription, _ int) WebhookInfo {
		return WebhookInfo{
			ID:        sub.Id(),
			Topic:     sub.Topic(),
			Endpoint:  sub.NotifyAt(),
			IsSecured: sub.IsSecured(),
		}
	}), nil
}

func (s *Service) Close() {
	//nolint
	s.pubsub.Close()
}

func isValidTopic(topic string) bool {
	return topic == ports.AnyTopic || lo.Contains(trade.Topics(), topic)
}
