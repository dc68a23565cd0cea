package pubsub_test

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nftswap/swapd/internal/core/ports"
	"github.com/nftswap/swapd/internal/infrastructure/pubsub"
	"github.com/stretchr/testify/require"
)

var testMessage = `{"topic":"TRADE_FINALIZED","trade":{"id":"a5f0c2c4-9a49-4b36-9d0e-4d2a2f52f6a1","status":"FINALIZED"}}`

func TestPubSubService(t *testing.T) {
	server := newTestWebServer(t)
	pubsubSvc, err := pubsub.NewService("", 100, 5*time.Second, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		server.Close()
		//nolint
		pubsubSvc.Close()
	})

	testSubs := newTestSubs(server)
	for _, sub := range testSubs {
		subID, err := pubsubSvc.Subscribe(sub.Topic(), sub.Endpoint, sub.Secret)
		require.NoError(t, err)
		require.NotEmpty(t, subID)
	}

	// Subscribing twice the same endpoint for a topic is idempotent.
	existing := pubsubSvc.ListSubscriptionsForTopic(ports.AnyTopic)
	require.Len(t, existing, 1)
	subID, err := pubsubSvc.Subscribe(ports.AnyTopic, existing[0].NotifyAt(), "")
	require.NoError(t, err)
	require.Equal(t, existing[0].Id(), subID)

	subs := pubsubSvc.ListSubscriptionsForTopic("TRADE_FINALIZED")
	require.Len(t, subs, len(testSubs))
	for _, sub := range subs {
		require.NotEmpty(t, sub.Id())
		require.NotEmpty(t, sub.NotifyAt())
	}
	require.Len(t, pubsubSvc.ListSubscriptionsForTopic(ports.UnspecifiedTopic), len(testSubs))

	// Should invoke all hooks.
	err = pubsubSvc.Publish("TRADE_FINALIZED", testMessage)
	require.NoError(t, err)
	require.Equal(t, len(testSubs), server.count())
	require.Equal(t, 3, server.countAuthorized())

	// Only the hook subscribed for any topic is invoked.
	err = pubsubSvc.Notify(context.Background(), ports.TradeEvent{
		Topic: "TRADE_CREATED", Payload: []byte(testMessage),
	})
	require.NoError(t, err)
	require.Equal(t, len(testSubs)+1, server.count())

	for i, s := range subs {
		err := pubsubSvc.Unsubscribe(s.Id())
		require.NoError(t, err)

		subs := pubsubSvc.ListSubscriptionsForTopic(ports.UnspecifiedTopic)
		require.Len(t, subs, len(testSubs)-1-i)
	}

	err = pubsubSvc.Unsubscribe(subs[0].Id())
	require.ErrorIs(t, err, ports.ErrSubscriptionNotFound)

	// Checks that it's all ok if there are no hooks to invoke.
	err = pubsubSvc.Publish("TRADE_FINALIZED", testMessage)
	require.NoError(t, err)
}

func TestFailingSubscribe(t *testing.T) {
	pubsubSvc, err := pubsub.NewService("", 0, 0, nil)
	require.NoError(t, err)
	//nolint
	t.Cleanup(func() { pubsubSvc.Close() })

	tests := []struct {
		name          string
		topic         string
		endpoint      string
		expectedError error
	}{
		{"missing_topic", "", "http://localhost:8888/hook", pubsub.ErrMissingTopic},
		{"not_a_trade_topic", "ORDER_CREATED", "http://localhost:8888/hook", pubsub.ErrInvalidTopic},
		{"bare_prefix", "TRADE_", "http://localhost:8888/hook", pubsub.ErrInvalidTopic},
		{"lowercase_action", "TRADE_created", "http://localhost:8888/hook", pubsub.ErrInvalidTopic},
		{"invalid_endpoint", "TRADE_CREATED", "localhost", pubsub.ErrInvalidEndpoint},
		{"unsupported_scheme", "TRADE_CREATED", "ftp://localhost/hook", pubsub.ErrInvalidEndpoint},
		{"missing_host", "TRADE_CREATED", "http:///hook", pubsub.ErrInvalidEndpoint},
	}

	for i := range tests {
		tt := tests[i]
		t.Run(tt.name, func(t *testing.T) {
			subID, err := pubsubSvc.Subscribe(tt.topic, tt.endpoint, "")
			require.ErrorIs(t, err, tt.expectedError)
			require.Empty(t, subID)
		})
	}
}

func TestSubscriptionMatches(t *testing.T) {
	finalized, err := pubsub.NewSubscription(
		"TRADE_FINALIZED", "https://example.com/hook", "",
	)
	require.NoError(t, err)
	require.False(t, finalized.IsSecured())
	require.False(t, finalized.CreatedAt.IsZero())

	wildcard, err := pubsub.NewSubscription(ports.AnyTopic, "https://example.com/all", "secret")
	require.NoError(t, err)
	require.True(t, wildcard.IsSecured())

	tests := []struct {
		topic            string
		finalizedMatches bool
		anyTopicMatches  bool
	}{
		{"TRADE_FINALIZED", true, true},
		{"TRADE_MESSAGE", false, true},
		{ports.AnyTopic, false, true},
	}

	for i := range tests {
		tt := tests[i]
		t.Run(tt.topic, func(t *testing.T) {
			require.Equal(t, tt.finalizedMatches, finalized.Matches(tt.topic))
			require.Equal(t, tt.anyTopicMatches, wildcard.Matches(tt.topic))
		})
	}
}

func newTestSubs(server *testWebServer) []*pubsub.Subscription {
	subsDetails := []struct {
		topic    string
		endpoint string
		secret   string
	}{
		{"TRADE_FINALIZED", server.URL + "/finalized?client=1", randomSecret()},
		{"TRADE_FINALIZED", server.URL + "/finalized?client=2", randomSecret()},
		{"TRADE_FINALIZED", server.URL + "/finalized?client=3", randomSecret()},
		{"*", server.URL + "/allevents", ""},
	}
	subs := make([]*pubsub.Subscription, 0, len(subsDetails))
	for _, d := range subsDetails {
		sub, _ := pubsub.NewSubscription(d.topic, d.endpoint, d.secret)
		subs = append(subs, sub)
	}
	return subs
}

type testWebServer struct {
	*httptest.Server

	lock       sync.Mutex
	requests   int
	authorized int
}

func (s *testWebServer) count() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.requests
}

func (s *testWebServer) countAuthorized() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.authorized
}

func newTestWebServer(t *testing.T) *testWebServer {
	srv := &testWebServer{}
	srv.Server = httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				http.Error(w, "Bad method", http.StatusMethodNotAllowed)
				return
			}
			if r.Header.Get("Content-Type") == "" {
				http.Error(w, "Missing Content-Type header", http.StatusUnsupportedMediaType)
				return
			}
			defer r.Body.Close()
			payload, _ := io.ReadAll(r.Body)
			if string(payload) != testMessage {
				http.Error(w, "Unexpected payload", http.StatusBadRequest)
				return
			}

			srv.lock.Lock()
			srv.requests++
			if bearer := r.Header.Get("Authorization"); bearer != "" {
				tokenString := strings.TrimPrefix(bearer, "Bearer ")
				// Secrets are random, only the structure can be checked here.
				if _, _, err := jwt.NewParser().ParseUnverified(
					tokenString, &jwt.RegisteredClaims{},
				); err == nil {
					srv.authorized++
				}
			}
			srv.lock.Unlock()

			fmt.Fprintf(w, "Done")
		},
	))
	return srv
}

func randomSecret() string {
	b := make([]byte, 32)
	//nolint
	rand.Read(b)
	return hex.EncodeToString(b)
}
