package pubsub

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/nftswap/swapd/internal/core/ports"
	"github.com/nftswap/swapd/pkg/circuitbreaker"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"go.uber.org/ratelimit"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultRequestTimeout = 15 * time.Second
	DefaultRateLimit      = 50

	tokenIssuer = "swapd"
)

type service struct {
	store      *store
	httpClient *client
	cb         *gobreaker.CircuitBreaker
	limiter    ratelimit.Limiter
}

// NewService returns a webhook pubsub whose subscriptions are stored in the
// given datadir. Outgoing requests are paced to at most rateLimit per second.
func NewService(
	datadir string, rateLimit int, requestTimeout time.Duration,
	logger badger.Logger,
) (ports.PubSub, error) {
	if rateLimit <= 0 {
		rateLimit = DefaultRateLimit
	}
	if requestTimeout <= 0 {
		requestTimeout = DefaultRequestTimeout
	}

	store, err := newStore(datadir, logger)
	if err != nil {
		return nil, fmt.Errorf("opening webhooks db: %w", err)
	}

	return &service{
		store:      store,
		httpClient: newHTTPClient(requestTimeout),
		cb:         circuitbreaker.NewCircuitBreaker("webhooks"),
		limiter:    ratelimit.New(rateLimit),
	}, nil
}

func (ws *service) Subscribe(topic, endpoint, secret string) (string, error) {
	sub, err := NewSubscription(topic, endpoint, secret)
	if err != nil {
		return "", err
	}

	existing, err := ws.store.findForEndpoint(topic, endpoint)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return existing.ID, nil
	}

	if err := ws.store.add(*sub); err != nil {
		return "", err
	}
	return sub.ID, nil
}

func (ws *service) Unsubscribe(id string) error {
	return ws.store.remove(id)
}

func (ws *service) ListSubscriptionsForTopic(topic string) []ports.Subscription {
	return ws.listSubscriptionsForTopic(topic).toPortable()
}

func (ws *service) Publish(topic string, message string) error {
	return ws.publishForTopic(context.Background(), topic, message)
}

func (ws *service) Notify(ctx context.Context, event ports.TradeEvent) error {
	return ws.publishForTopic(ctx, event.Topic, string(event.Payload))
}

func (ws *service) Close() error {
	return ws.store.close()
}

func (ws *service) listSubscriptionsForTopic(topic string) subscriptions {
	subs := ws.getSubscriptionsForTopic(topic)
	if topic != ports.AnyTopic && topic != ports.UnspecifiedTopic {
		subsForAnyTopic := ws.getSubscriptionsForTopic(ports.AnyTopic)
		subs = append(subs, subsForAnyTopic...)
	}
	return subs
}

func (ws *service) getSubscriptionsForTopic(topic string) subscriptions {
	subs, err := ws.store.listForTopic(topic)
	if err != nil {
		log.WithError(err).Warnf("failed to list subscriptions for topic %s", topic)
		return nil
	}
	sort.SliceStable(subs, func(i, j int) bool {
		if !subs[i].CreatedAt.Equal(subs[j].CreatedAt) {
			return subs[i].CreatedAt.Before(subs[j].CreatedAt)
		}
		return subs[i].ID < subs[j].ID
	})
	return subs
}

func (ws *service) publishForTopic(ctx context.Context, topic, message string) error {
	subs := ws.listSubscriptionsForTopic(topic)

	eg := &errgroup.Group{}
	for i := range subs {
		sub := subs[i]
		if !sub.Matches(topic) {
			continue
		}
		eg.Go(func() error { return ws.doRequest(ctx, sub, message) })
	}
	return eg.Wait()
}

func (ws *service) doRequest(ctx context.Context, sub Subscription, payload string) error {
	ws.limiter.Take()

	_, err := ws.cb.Execute(func() (interface{}, error) {
		headers := map[string]string{
			"Content-Type": "application/json",
		}
		if sub.IsSecured() {
			token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
				Issuer:   tokenIssuer,
				Subject:  sub.ID,
				IssuedAt: jwt.NewNumericDate(time.Now()),
			})
			tokenString, err := token.SignedString([]byte(sub.Secret))
			if err != nil {
				return nil, err
			}
			headers["Authorization"] = fmt.Sprintf("Bearer %s", tokenString)
		}

		status, resp, err := ws.httpClient.post(ctx, sub.Endpoint, payload, headers)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("webhook %s replied with status %d: %s", sub.ID, status, resp)
		}
		return nil, nil
	})

	return err
}
