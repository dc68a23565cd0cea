package application

import (
	"fmt"
	"time"

	"github.com/nftswap/swapd/internal/core/application/conversation"
	"github.com/nftswap/swapd/internal/core/application/expiry"
	"github.com/nftswap/swapd/internal/core/application/identity"
	"github.com/nftswap/swapd/internal/core/application/pubsub"
	"github.com/nftswap/swapd/internal/core/application/trade"
	"github.com/nftswap/swapd/internal/core/ports"
	dbbadger "github.com/nftswap/swapd/internal/infrastructure/storage/db/badger"
	"github.com/nftswap/swapd/internal/infrastructure/storage/db/inmemory"
	postgresdb "github.com/nftswap/swapd/internal/infrastructure/storage/db/pg"
	log "github.com/sirupsen/logrus"
)

const (
	DBInMemory = "inmemory"
	DBBadger   = "badger"
	DBPostgres = "postgres"
)

var (
	SupportedDBType = map[string]struct{}{
		DBInMemory: {},
		DBBadger:   {},
		DBPostgres: {},
	}
)

// Config lazily builds the application services. DBConfig is the datadir for
// badger and the connection string for postgres.
type Config struct {
	DBType   string
	DBConfig interface{}

	TxVerifier ports.TxVerifier
	PubSub     ports.PubSub
	// Notifiers are notified of every trade event along with PubSub.
	Notifiers []ports.Notifier

	AutoRegisterUsers   bool
	TradeTTL            time.Duration
	ExpirySweepSchedule string

	repo         ports.RepoManager
	identity     ports.IdentityResolver
	trade        *trade.Service
	conversation *conversation.Service
	webhook      *pubsub.Service
	sweeper      *expiry.Sweeper
}

func (c *Config) Validate() error {
	if _, ok := SupportedDBType[c.DBType]; !ok {
		return fmt.Errorf("unsupported db type %s", c.DBType)
	}
	if c.TxVerifier == nil {
		return fmt.Errorf("missing tx verifier")
	}
	if c.PubSub == nil {
		return fmt.Errorf("missing pubsub")
	}
	if _, err := c.repoManager(); err != nil {
		return err
	}
	if _, err := c.tradeService(); err != nil {
		return err
	}
	if _, err := c.conversationService(); err != nil {
		return err
	}
	if _, err := c.expirySweeper(); err != nil {
		return err
	}
	return nil
}

func (c *Config) RepoManager() ports.RepoManager {
	svc, _ := c.repoManager()
	return svc
}

func (c *Config) IdentityResolver() ports.IdentityResolver {
	svc, _ := c.identityResolver()
	return svc
}

func (c *Config) TradeService() *trade.Service {
	svc, _ := c.tradeService()
	return svc
}

func (c *Config) ConversationService() *conversation.Service {
	svc, _ := c.conversationService()
	return svc
}

func (c *Config) WebhookService() *pubsub.Service {
	svc, _ := c.webhookService()
	return svc
}

func (c *Config) ExpirySweeper() *expiry.Sweeper {
	svc, _ := c.expirySweeper()
	return svc
}

func (c *Config) repoManager() (ports.RepoManager, error) {
	if c.repo == nil {
		switch c.DBType {
		case DBInMemory:
			c.repo = inmemory.NewRepoManager()
		case DBBadger:
			datadir, _ := c.DBConfig.(string)
			repoManager, err := dbbadger.NewRepoManager(datadir, log.StandardLogger())
			if err != nil {
				return nil, err
			}
			c.repo = repoManager
		case DBPostgres:
			dsn, _ := c.DBConfig.(string)
			repoManager, err := postgresdb.NewService(dsn)
			if err != nil {
				return nil, err
			}
			c.repo = repoManager
		default:
			return nil, fmt.Errorf("unsupported db type %s", c.DBType)
		}
	}
	return c.repo, nil
}

func (c *Config) identityResolver() (ports.IdentityResolver, error) {
	if c.identity == nil {
		repo, err := c.repoManager()
		if err != nil {
			return nil, err
		}
		resolver, err := identity.NewResolver(repo, c.AutoRegisterUsers)
		if err != nil {
			return nil, err
		}
		c.identity = resolver
	}
	return c.identity, nil
}

func (c *Config) tradeService() (*trade.Service, error) {
	if c.trade == nil {
		repo, err := c.repoManager()
		if err != nil {
			return nil, err
		}
		resolver, err := c.identityResolver()
		if err != nil {
			return nil, err
		}
		notifiers := make([]ports.Notifier, 0, len(c.Notifiers)+1)
		if c.PubSub != nil {
			notifiers = append(notifiers, c.PubSub)
		}
		notifiers = append(notifiers, c.Notifiers...)

		svc, err := trade.NewService(
			repo, resolver, c.TxVerifier, notifiers, c.TradeTTL,
		)
		if err != nil {
			return nil, err
		}
		c.trade = svc
	}
	return c.trade, nil
}

func (c *Config) conversationService() (*conversation.Service, error) {
	if c.conversation == nil {
		repo, err := c.repoManager()
		if err != nil {
			return nil, err
		}
		resolver, err := c.identityResolver()
		if err != nil {
			return nil, err
		}
		svc, err := conversation.NewService(repo, resolver)
		if err != nil {
			return nil, err
		}
		c.conversation = svc
	}
	return c.conversation, nil
}

func (c *Config) webhookService() (*pubsub.Service, error) {
	if c.webhook == nil {
		if c.PubSub == nil {
			return nil, fmt.Errorf("missing pubsub")
		}
		c.webhook = pubsub.NewService(c.PubSub)
	}
	return c.webhook, nil
}

func (c *Config) expirySweeper() (*expiry.Sweeper, error) {
	if c.sweeper == nil {
		svc, err := c.tradeService()
		if err != nil {
			return nil, err
		}
		sweeper, err := expiry.NewSweeper(svc, c.ExpirySweepSchedule)
		if err != nil {
			return nil, err
		}
		c.sweeper = sweeper
	}
	return c.sweeper, nil
}
