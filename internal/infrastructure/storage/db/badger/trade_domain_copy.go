package dbbadger

import (
	"time"

	"github.com/nftswap/swapd/internal/core/domain"
)

// Trade is the stored version of domain.Trade. Items, deposits and metadata
// are stored as they are.
type Trade struct {
	ID                  string
	InitiatorID         string `badgerhold:"index"`
	InitiatorAddress    string
	CounterpartyID      string `badgerhold:"index"`
	CounterpartyAddress string
	Status              string `badgerhold:"index"`
	Items               []domain.TradeItem
	Deposits            domain.Deposits
	EscrowAddress       string
	EscrowDeployedAt    *time.Time
	FinalizedAt         *time.Time
	Metadata            map[string]string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// TradeHistory is the stored version of domain.TradeHistory. The metadata is
// serialized and decoded back according to the action.
type TradeHistory struct {
	Seq       uint64 `badgerhold:"key"`
	ID        string
	TradeID   string `badgerhold:"index"`
	UserID    string
	Action    string
	OldStatus string
	NewStatus string
	Metadata  []byte
	CreatedAt time.Time
}

type TradeMessage struct {
	Seq       uint64 `badgerhold:"key"`
	ID        string
	TradeID   string `badgerhold:"index"`
	UserID    string
	Message   string
	Type      string
	Action    string
	Metadata  []byte
	HistoryID string
	CreatedAt time.Time
}

type User struct {
	ID        string
	Address   string `badgerhold:"index"`
	CreatedAt time.Time
}

func mapDomainTradeToInfraTrade(t domain.Trade) Trade {
	return Trade{
		ID:                  t.ID,
		InitiatorID:         t.InitiatorID,
		InitiatorAddress:    t.InitiatorAddress,
		CounterpartyID:      t.CounterpartyID,
		CounterpartyAddress: t.CounterpartyAddress,
		Status:              t.Status.String(),
		Items:               t.Items,
		Deposits:            t.Deposits,
		EscrowAddress:       t.EscrowAddress,
		EscrowDeployedAt:    t.EscrowDeployedAt,
		FinalizedAt:         t.FinalizedAt,
		Metadata:            t.Metadata,
		CreatedAt:           t.CreatedAt,
		UpdatedAt:           t.UpdatedAt,
	}
}

func mapInfraTradeToDomainTrade(t Trade) *domain.Trade {
	metadata := t.Metadata
	if metadata == nil {
		metadata = make(map[string]string)
	}
	return &domain.Trade{
		ID:                  t.ID,
		InitiatorID:         t.InitiatorID,
		InitiatorAddress:    t.InitiatorAddress,
		CounterpartyID:      t.CounterpartyID,
		CounterpartyAddress: t.CounterpartyAddress,
		Status:              domain.TradeStatus(t.Status),
		Items:               t.Items,
		Deposits:            t.Deposits,
		EscrowAddress:       t.EscrowAddress,
		EscrowDeployedAt:    t.EscrowDeployedAt,
		FinalizedAt:         t.FinalizedAt,
		Metadata:            metadata,
		CreatedAt:           t.CreatedAt,
		UpdatedAt:           t.UpdatedAt,
	}
}

func mapDomainHistoryToInfraHistory(h domain.TradeHistory) (*TradeHistory, error) {
	metadata, err := domain.EncodeTransitionMetadata(h.Metadata)
	if err != nil {
		return nil, err
	}
	return &TradeHistory{
		ID:        h.ID,
		TradeID:   h.TradeID,
		UserID:    h.UserID,
		Action:    h.Action.String(),
		OldStatus: h.OldStatus.String(),
		NewStatus: h.NewStatus.String(),
		Metadata:  metadata,
		CreatedAt: h.CreatedAt,
	}, nil
}

func mapInfraHistoryToDomainHistory(h TradeHistory) (*domain.TradeHistory, error) {
	action := domain.TradeAction(h.Action)
	metadata, err := domain.DecodeTransitionMetadata(action, h.Metadata)
	if err != nil {
		return nil, err
	}
	return &domain.TradeHistory{
		ID:        h.ID,
		Seq:       domainSeq(h.Seq),
		TradeID:   h.TradeID,
		UserID:    h.UserID,
		Action:    action,
		OldStatus: domain.TradeStatus(h.OldStatus),
		NewStatus: domain.TradeStatus(h.NewStatus),
		Metadata:  metadata,
		CreatedAt: h.CreatedAt,
	}, nil
}

func mapDomainMessageToInfraMessage(m domain.TradeMessage) (*TradeMessage, error) {
	metadata, err := domain.EncodeTransitionMetadata(m.Metadata)
	if err != nil {
		return nil, err
	}
	return &TradeMessage{
		ID:        m.ID,
		TradeID:   m.TradeID,
		UserID:    m.UserID,
		Message:   m.Message,
		Type:      string(m.Type),
		Action:    m.Action.String(),
		Metadata:  metadata,
		HistoryID: m.HistoryID,
		CreatedAt: m.CreatedAt,
	}, nil
}

func mapInfraMessageToDomainMessage(m TradeMessage) (*domain.TradeMessage, error) {
	action := domain.TradeAction(m.Action)
	metadata, err := domain.DecodeTransitionMetadata(action, m.Metadata)
	if err != nil {
		return nil, err
	}
	return &domain.TradeMessage{
		ID:        m.ID,
		Seq:       domainSeq(m.Seq),
		TradeID:   m.TradeID,
		UserID:    m.UserID,
		Message:   m.Message,
		Type:      domain.MessageType(m.Type),
		Action:    action,
		Metadata:  metadata,
		HistoryID: m.HistoryID,
		CreatedAt: m.CreatedAt,
	}, nil
}

// domainSeq shifts the badger sequence, which starts at 0, so that entries
// are numbered from 1 like in the other stores.
func domainSeq(key uint64) uint64 {
	return key + 1
}
