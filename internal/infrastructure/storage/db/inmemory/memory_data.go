package inmemory

import (
	"time"

	"github.com/nftswap/swapd/internal/core/domain"
)

type memoryData struct {
	trades           map[string]domain.Trade
	history          map[string][]domain.TradeHistory
	messages         map[string][]domain.TradeMessage
	users            map[string]domain.User
	userIDsByAddress map[string]string
	seq              uint64
}

func newMemoryData() *memoryData {
	return &memoryData{
		trades:           make(map[string]domain.Trade),
		history:          make(map[string][]domain.TradeHistory),
		messages:         make(map[string][]domain.TradeMessage),
		users:            make(map[string]domain.User),
		userIDsByAddress: make(map[string]string),
	}
}

// clone returns a copy whose maps can be modified without affecting d.
// Values are shared, they are never modified in place.
func (d *memoryData) clone() *memoryData {
	c := &memoryData{
		trades:           make(map[string]domain.Trade, len(d.trades)),
		history:          make(map[string][]domain.TradeHistory, len(d.history)),
		messages:         make(map[string][]domain.TradeMessage, len(d.messages)),
		users:            make(map[string]domain.User, len(d.users)),
		userIDsByAddress: make(map[string]string, len(d.userIDsByAddress)),
		seq:              d.seq,
	}
	for k, v := range d.trades {
		c.trades[k] = v
	}
	for k, v := range d.history {
		c.history[k] = v
	}
	for k, v := range d.messages {
		c.messages[k] = v
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.userIDsByAddress {
		c.userIDsByAddress[k] = v
	}
	return c
}

func (d *memoryData) nextSeq() uint64 {
	d.seq++
	return d.seq
}

func cloneTrade(t domain.Trade) domain.Trade {
	c := t
	c.Items = append(domain.TradeItems(nil), t.Items...)
	if t.Metadata != nil {
		c.Metadata = make(map[string]string, len(t.Metadata))
		for k, v := range t.Metadata {
			c.Metadata[k] = v
		}
	}
	c.EscrowDeployedAt = cloneTime(t.EscrowDeployedAt)
	c.FinalizedAt = cloneTime(t.FinalizedAt)
	c.Deposits.Initiator.DepositedAt = cloneTime(t.Deposits.Initiator.DepositedAt)
	c.Deposits.Counterparty.DepositedAt = cloneTime(t.Deposits.Counterparty.DepositedAt)
	return c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
