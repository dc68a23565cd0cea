package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/nftswap/swapd/internal/config"
	"github.com/nftswap/swapd/internal/core/application"
	"github.com/nftswap/swapd/internal/core/ports"
	"github.com/nftswap/swapd/internal/infrastructure/metrics"
	"github.com/nftswap/swapd/internal/infrastructure/pubsub"
	"github.com/nftswap/swapd/internal/infrastructure/stream"
	"github.com/nftswap/swapd/internal/infrastructure/txverifier"
	httpinterface "github.com/nftswap/swapd/internal/interfaces/http"
	"github.com/nftswap/swapd/pkg/stats"
	log "github.com/sirupsen/logrus"
)

func main() {
	if err := config.InitConfig(); err != nil {
		log.WithError(err).Fatal("failed to load config")
	}

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	datadir := config.GetDatadir()
	dbDir := filepath.Join(datadir, config.DbLocation)
	dbType := strings.ToLower(config.GetString(config.DBTypeKey))
	noMetrics := config.GetBool(config.NoMetricsKey)
	profilerEnabled := config.GetBool(config.EnableProfilerKey)

	verifier, err := newTxVerifier()
	if err != nil {
		log.WithError(err).Fatal("failed to initialize tx verifier")
	}

	webhookPubSub, err := pubsub.NewService(
		dbDir,
		config.GetInt(config.WebhookRateLimitKey),
		config.GetDuration(config.WebhookTimeoutKey),
		log.StandardLogger(),
	)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize webhook pubsub")
	}

	hub := stream.NewHub()
	notifiers := []ports.Notifier{hub}
	if !noMetrics {
		notifier, err := metrics.NewNotifier(nil)
		if err != nil {
			log.WithError(err).Fatal("failed to initialize metrics")
		}
		notifiers = append(notifiers, notifier)
	}

	var dbConfig interface{}
	switch dbType {
	case application.DBBadger:
		dbConfig = dbDir
	case application.DBPostgres:
		dbConfig = config.GetString(config.DBDsnKey)
	}

	appConfig := &application.Config{
		DBType:              dbType,
		DBConfig:            dbConfig,
		TxVerifier:          verifier,
		PubSub:              webhookPubSub,
		Notifiers:           notifiers,
		AutoRegisterUsers:   config.GetBool(config.AutoRegisterUsersKey),
		TradeTTL:            config.GetDuration(config.TradeTTLKey),
		ExpirySweepSchedule: config.GetString(config.ExpirySweepScheduleKey),
	}
	if err := appConfig.Validate(); err != nil {
		log.WithError(err).Fatal("invalid application config")
	}

	ctx, cancel := context.WithCancel(context.Background())

	if profilerEnabled {
		interval := time.Duration(config.GetInt(config.StatsIntervalKey)) * time.Second
		stats.EnableMemoryStatistics(
			ctx, interval, filepath.Join(datadir, config.ProfilerLocation),
		)
	}

	sweeper := appConfig.ExpirySweeper()
	sweeper.Start()

	svc, err := httpinterface.NewService(httpinterface.ServiceOpts{
		Port:            config.GetInt(config.HTTPListeningPortKey),
		TradeSvc:        appConfig.TradeService(),
		ConversationSvc: appConfig.ConversationService(),
		WebhookSvc:      appConfig.WebhookService(),
		Hub:             hub,
		JWTSecret:       []byte(config.GetString(config.JWTSecretKey)),
		OperatorToken:   config.GetString(config.OperatorTokenKey),
		NoMetrics:       noMetrics,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to initialize http interface")
	}

	log.RegisterExitHandler(func() {
		cancel()
		sweeper.Stop()
		hub.Close()
		appConfig.WebhookService().Close()
		appConfig.RepoManager().Close()
	})

	if err := svc.Start(); err != nil {
		log.WithError(err).Fatal("failed to start daemon")
	}

	log.Infof("swapd is listening on port %d", config.GetInt(config.HTTPListeningPortKey))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan

	log.Info("shutting down daemon")

	svc.Stop()
	sweeper.Stop()
	hub.Close()
	cancel()
	appConfig.WebhookService().Close()
	appConfig.RepoManager().Close()

	log.Info("exiting")
}

func newTxVerifier() (ports.TxVerifier, error) {
	switch config.GetString(config.TxVerifierKey) {
	case config.TxVerifierEthereum:
		return txverifier.NewEthereumVerifier(
			config.GetString(config.EthRPCURLKey),
			config.GetUint64(config.MinConfirmationsKey),
		)
	default:
		return txverifier.NewTrustingVerifier(), nil
	}
}
