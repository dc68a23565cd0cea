package pubsub

import (
	"errors"
	"path/filepath"

	"github.com/dgraph-io/badger/v3"
	"github.com/nftswap/swapd/internal/core/ports"
	"github.com/timshannon/badgerhold/v4"
)

// store persists subscriptions in their own badger db, in memory if no
// datadir is given.
type store struct {
	db *badgerhold.Store
}

func newStore(datadir string, logger badger.Logger) (*store, error) {
	var opts badger.Options
	if len(datadir) <= 0 {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(filepath.Join(datadir, "webhooks"))
	}
	opts.Logger = logger

	db, err := badgerhold.Open(badgerhold.Options{
		Encoder: badgerhold.DefaultEncode,
		Decoder: badgerhold.DefaultDecode,
		Options: opts,
	})
	if err != nil {
		return nil, err
	}
	return &store{db}, nil
}

func (s *store) add(sub Subscription) error {
	return s.db.Insert(sub.ID, sub)
}

func (s *store) remove(id string) error {
	if err := s.db.Delete(id, Subscription{}); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return ports.ErrSubscriptionNotFound
		}
		return err
	}
	return nil
}

func (s *store) findForEndpoint(topic, endpoint string) (*Subscription, error) {
	var subs []Subscription
	query := badgerhold.Where("TradeTopic").Eq(topic).Index("TradeTopic").
		And("Endpoint").Eq(endpoint)
	if err := s.db.Find(&subs, query); err != nil {
		return nil, err
	}
	if len(subs) <= 0 {
		return nil, nil
	}
	return &subs[0], nil
}

// listForTopic returns the subscriptions for the given topic, or all of them
// if the topic is unspecified.
func (s *store) listForTopic(topic string) (subscriptions, error) {
	var query *badgerhold.Query
	if topic != ports.UnspecifiedTopic {
		query = badgerhold.Where("TradeTopic").Eq(topic).Index("TradeTopic")
	}

	var subs []Subscription
	if err := s.db.Find(&subs, query); err != nil {
		return nil, err
	}
	return subs, nil
}

func (s *store) close() error {
	return s.db.Close()
}
