package httpinterface

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/nftswap/swapd/internal/core/application/conversation"
	"github.com/nftswap/swapd/internal/core/application/pubsub"
	"github.com/nftswap/swapd/internal/core/application/trade"
	"github.com/nftswap/swapd/internal/infrastructure/stream"
	"github.com/nftswap/swapd/internal/interfaces"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

type ServiceOpts struct {
	Port int

	TradeSvc        *trade.Service
	ConversationSvc *conversation.Service
	WebhookSvc      *pubsub.Service
	// Hub is optional, the /ws endpoint is served only if set.
	Hub *stream.Hub

	JWTSecret     []byte
	OperatorToken string
	NoMetrics     bool
}

func (o ServiceOpts) validate() error {
	if o.Port <= 0 || o.Port > 65535 {
		return fmt.Errorf("invalid port %d", o.Port)
	}
	return o.validateHandlerOpts()
}

func (o ServiceOpts) validateHandlerOpts() error {
	if o.TradeSvc == nil {
		return fmt.Errorf("missing trade service")
	}
	if o.ConversationSvc == nil {
		return fmt.Errorf("missing conversation service")
	}
	if o.WebhookSvc == nil {
		return fmt.Errorf("missing webhook service")
	}
	if len(o.JWTSecret) <= 0 {
		return fmt.Errorf("missing jwt secret")
	}
	return nil
}

type server struct {
	opts ServiceOpts
}

type service struct {
	httpServer *http.Server
}

// NewService returns the HTTP interface of the daemon.
func NewService(opts ServiceOpts) (interfaces.Service, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid opts: %s", err)
	}
	handler, err := NewHandler(opts)
	if err != nil {
		return nil, err
	}

	return &service{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", opts.Port),
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}, nil
}

func (s *service) Start() error {
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server stopped unexpectedly")
		}
	}()
	log.Infof("http server listening on %s", s.httpServer.Addr)
	return nil
}

func (s *service) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("failed to gracefully stop http server")
		return
	}
	log.Info("http server stopped")
}

// NewHandler returns the router of the HTTP API. The port of the opts is
// ignored.
func NewHandler(opts ServiceOpts) (http.Handler, error) {
	if err := opts.validateHandlerOpts(); err != nil {
		return nil, fmt.Errorf("invalid opts: %s", err)
	}
	s := &server{opts}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if !opts.NoMetrics {
		r.Handle("/metrics", promhttp.Handler())
	}
	if opts.Hub != nil {
		r.Get("/ws", s.streamEvents)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Route("/trades", func(r chi.Router) {
				r.Post("/", s.createTrade)
				r.Get("/", s.listTrades)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.getTrade)
					r.Get("/history", s.getTradeHistory)
					r.Post("/counter", s.counterTrade)
					r.Post("/accept", s.acceptTrade)
					r.Post("/decline-counter", s.declineCounter)
					r.Post("/escrow", s.deployEscrow)
					r.Post("/deposits", s.recordDeposit)
					r.Post("/finalize", s.finalizeTrade)
					r.Post("/cancel", s.cancelTrade)
					r.Post("/messages", s.postMessage)
				})
			})
			r.Get("/conversations/{partner}", s.getConversation)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireOperator)

			r.Post("/webhooks", s.addWebhook)
			r.Get("/webhooks", s.listWebhooks)
			r.Delete("/webhooks/{id}", s.removeWebhook)
		})
	})

	return r, nil
}

// requestLogger logs every request with logrus once it's served.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			log.WithFields(log.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start).String(),
				"request_id": middleware.GetReqID(r.Context()),
			}).Debug("request served")
		}()
		next.ServeHTTP(ww, r)
	})
}
