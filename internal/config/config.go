package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/joho/godotenv"
	"github.com/nftswap/swapd/internal/core/application"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

const (
	// DatadirKey is the local data directory to store the internal state of daemon
	DatadirKey = "DATADIR"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// HTTPListeningPortKey is the port where the HTTP interface will listen on
	HTTPListeningPortKey = "HTTP_LISTENING_PORT"
	// DBTypeKey is used to switch database type between those supported
	DBTypeKey = "DB_TYPE"
	// DBDsnKey is the postgres connection string, required when DB_TYPE is postgres
	DBDsnKey = "DB_DSN"
	// JWTSecretKey is the shared secret used to verify the HS256 tokens of the
	// parties
	JWTSecretKey = "JWT_SECRET"
	// OperatorTokenKey is the bearer token required by the operator endpoints
	OperatorTokenKey = "OPERATOR_TOKEN"
	// AutoRegisterUsersKey lets unknown wallet addresses be registered when
	// they take part in a new trade
	AutoRegisterUsersKey = "AUTO_REGISTER_USERS"
	// TradeTTLKey is the inactivity time after which a negotiation expires.
	// Zero disables the expiration
	TradeTTLKey = "TRADE_TTL"
	// ExpirySweepScheduleKey is the cron schedule of the expiration sweep
	ExpirySweepScheduleKey = "EXPIRY_SWEEP_SCHEDULE"
	// TxVerifierKey selects how reported transactions are verified
	TxVerifierKey = "TX_VERIFIER"
	// EthRPCURLKey is the endpoint of the EVM node used by the ethereum verifier
	EthRPCURLKey = "ETH_RPC_URL"
	// MinConfirmationsKey is the number of blocks a transaction must be buried
	// under to be verified
	MinConfirmationsKey = "MIN_CONFIRMATIONS"
	// WebhookRateLimitKey is the max number of webhook requests per second
	WebhookRateLimitKey = "WEBHOOK_RATE_LIMIT"
	// WebhookTimeoutKey is the timeout of every webhook request
	WebhookTimeoutKey = "WEBHOOK_TIMEOUT"
	// NoMetricsKey disables the Prometheus metrics
	NoMetricsKey = "NO_METRICS"
	// EnableProfilerKey enables the periodic logging of memory statistics
	EnableProfilerKey = "ENABLE_PROFILER"
	// StatsIntervalKey defines interval for printing basic swapd statistics
	StatsIntervalKey = "STATS_INTERVAL"

	DbLocation       = "db"
	ProfilerLocation = "stats"

	envPrefix = "SWAPD"
	envFile   = ".env"
)

const (
	TxVerifierTrusting = "trusting"
	TxVerifierEthereum = "ethereum"
)

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("swapd", false)

func InitConfig() error {
	if err := loadEnvFile(envFile); err != nil {
		return fmt.Errorf("error while loading %s file: %s", envFile, err)
	}

	vip = viper.New()
	vip.SetEnvPrefix(envPrefix)
	vip.AutomaticEnv()

	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(HTTPListeningPortKey, 9945)
	vip.SetDefault(DBTypeKey, application.DBBadger)
	vip.SetDefault(AutoRegisterUsersKey, true)
	vip.SetDefault(TradeTTLKey, 72*time.Hour)
	vip.SetDefault(ExpirySweepScheduleKey, "@every 1m")
	vip.SetDefault(TxVerifierKey, TxVerifierTrusting)
	vip.SetDefault(MinConfirmationsKey, 1)
	vip.SetDefault(WebhookRateLimitKey, 50)
	vip.SetDefault(WebhookTimeoutKey, 15*time.Second)
	vip.SetDefault(NoMetricsKey, false)
	vip.SetDefault(EnableProfilerKey, false)
	vip.SetDefault(StatsIntervalKey, 600)

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}

	if err := initDatadir(); err != nil {
		return fmt.Errorf("error while creating datadir: %s", err)
	}

	return nil
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetUint64(key string) uint64 {
	return vip.GetUint64(key)
}

func GetDuration(key string) time.Duration {
	return vip.GetDuration(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("missing datadir")
	}

	dbType := strings.ToLower(GetString(DBTypeKey))
	if _, ok := application.SupportedDBType[dbType]; !ok {
		return fmt.Errorf("unsupported db type %s", dbType)
	}
	if dbType == application.DBPostgres && GetString(DBDsnKey) == "" {
		return fmt.Errorf("%s is required for db type %s", DBDsnKey, dbType)
	}

	if len(GetString(JWTSecretKey)) <= 0 {
		return fmt.Errorf("missing jwt secret")
	}

	if GetDuration(TradeTTLKey) < 0 {
		return fmt.Errorf("%s must not be negative", TradeTTLKey)
	}
	if _, err := cron.ParseStandard(GetString(ExpirySweepScheduleKey)); err != nil {
		return fmt.Errorf("invalid %s: %s", ExpirySweepScheduleKey, err)
	}

	switch GetString(TxVerifierKey) {
	case TxVerifierTrusting:
	case TxVerifierEthereum:
		if GetString(EthRPCURLKey) == "" {
			return fmt.Errorf("%s is required by the ethereum verifier", EthRPCURLKey)
		}
	default:
		return fmt.Errorf("unsupported tx verifier %s", GetString(TxVerifierKey))
	}

	if GetInt(WebhookRateLimitKey) <= 0 {
		return fmt.Errorf("%s must be positive", WebhookRateLimitKey)
	}
	if GetDuration(WebhookTimeoutKey) <= 0 {
		return fmt.Errorf("%s must be positive", WebhookTimeoutKey)
	}
	if GetBool(EnableProfilerKey) && GetInt(StatsIntervalKey) <= 0 {
		return fmt.Errorf("%s must be positive", StatsIntervalKey)
	}

	return nil
}

func initDatadir() error {
	datadir := GetDatadir()
	if err := makeDirectoryIfNotExists(filepath.Join(datadir, DbLocation)); err != nil {
		return err
	}

	profilerEnabled := GetBool(EnableProfilerKey)
	if profilerEnabled {
		if err := makeDirectoryIfNotExists(filepath.Join(datadir, ProfilerLocation)); err != nil {
			return err
		}
	}
	return nil
}

// loadEnvFile loads the variables of the given file, if any, without
// overriding the ones already set in the environment.
func loadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
