package postgresdb

import (
	"time"

	"github.com/nftswap/swapd/internal/core/domain"
	"github.com/shopspring/decimal"
)

type userModel struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Address   string    `gorm:"size:42;uniqueIndex"`
	CreatedAt time.Time `gorm:"autoCreateTime:false"`
}

func (userModel) TableName() string { return "users" }

type tradeModel struct {
	ID                  string           `gorm:"primaryKey;size:36"`
	InitiatorID         string           `gorm:"size:36;index"`
	InitiatorAddress    string           `gorm:"size:42"`
	CounterpartyID      string           `gorm:"size:36;index"`
	CounterpartyAddress string           `gorm:"size:42"`
	Status              string           `gorm:"size:32;index"`
	Items               []tradeItemModel `gorm:"foreignKey:TradeID;constraint:OnDelete:CASCADE"`

	InitiatorDeposited        bool
	InitiatorDepositTxHash    string
	InitiatorDepositedAt      *time.Time
	CounterpartyDeposited     bool
	CounterpartyDepositTxHash string
	CounterpartyDepositedAt   *time.Time

	EscrowAddress    string
	EscrowDeployedAt *time.Time
	FinalizedAt      *time.Time
	Metadata         map[string]string `gorm:"serializer:json"`
	CreatedAt        time.Time         `gorm:"autoCreateTime:false;index"`
	UpdatedAt        time.Time         `gorm:"autoUpdateTime:false;index"`
}

func (tradeModel) TableName() string { return "trades" }

type tradeItemModel struct {
	ID             string          `gorm:"primaryKey;size:36"`
	TradeID        string          `gorm:"size:36;index"`
	Position       int             `gorm:"not null"`
	Side           string          `gorm:"size:16"`
	NftID          string          `gorm:"size:128"`
	TokenAmount    decimal.Decimal `gorm:"type:numeric"`
	TokenAddress   string          `gorm:"size:42"`
	EstimatedValue decimal.Decimal `gorm:"type:numeric"`
}

func (tradeItemModel) TableName() string { return "trade_items" }

type historyModel struct {
	Seq       uint64    `gorm:"primaryKey;autoIncrement"`
	ID        string    `gorm:"size:36;uniqueIndex"`
	TradeID   string    `gorm:"size:36;index"`
	UserID    string    `gorm:"size:36"`
	Action    string    `gorm:"size:32"`
	OldStatus string    `gorm:"size:32"`
	NewStatus string    `gorm:"size:32"`
	Metadata  string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime:false;index"`
}

func (historyModel) TableName() string { return "trade_history" }

type messageModel struct {
	Seq       uint64    `gorm:"primaryKey;autoIncrement"`
	ID        string    `gorm:"size:36;uniqueIndex"`
	TradeID   string    `gorm:"size:36;index"`
	UserID    string    `gorm:"size:36"`
	Message   string    `gorm:"type:text"`
	Type      string    `gorm:"size:16"`
	Action    string    `gorm:"size:32"`
	Metadata  string    `gorm:"type:text"`
	HistoryID string    `gorm:"size:36"`
	CreatedAt time.Time `gorm:"autoCreateTime:false;index"`
}

func (messageModel) TableName() string { return "trade_messages" }

func toTradeModel(t domain.Trade) tradeModel {
	items := make([]tradeItemModel, 0, len(t.Items))
	for i, it := range t.Items {
		items = append(items, tradeItemModel{
			ID:             it.ID,
			TradeID:        t.ID,
			Position:       i,
			Side:           string(it.Side),
			NftID:          it.NftID,
			TokenAmount:    it.TokenAmount,
			TokenAddress:   it.TokenAddress,
			EstimatedValue: it.EstimatedValue,
		})
	}

	return tradeModel{
		ID:                        t.ID,
		InitiatorID:               t.InitiatorID,
		InitiatorAddress:          t.InitiatorAddress,
		CounterpartyID:            t.CounterpartyID,
		CounterpartyAddress:       t.CounterpartyAddress,
		Status:                    t.Status.String(),
		Items:                     items,
		InitiatorDeposited:        t.Deposits.Initiator.Complete,
		InitiatorDepositTxHash:    t.Deposits.Initiator.TxHash,
		InitiatorDepositedAt:      t.Deposits.Initiator.DepositedAt,
		CounterpartyDeposited:     t.Deposits.Counterparty.Complete,
		CounterpartyDepositTxHash: t.Deposits.Counterparty.TxHash,
		CounterpartyDepositedAt:   t.Deposits.Counterparty.DepositedAt,
		EscrowAddress:             t.EscrowAddress,
		EscrowDeployedAt:          t.EscrowDeployedAt,
		FinalizedAt:               t.FinalizedAt,
		Metadata:                  t.Metadata,
		CreatedAt:                 t.CreatedAt,
		UpdatedAt:                 t.UpdatedAt,
	}
}

func (m tradeModel) toDomain() *domain.Trade {
	items := make(domain.TradeItems, 0, len(m.Items))
	for _, it := range m.Items {
		items = append(items, domain.TradeItem{
			ID:             it.ID,
			TradeID:        it.TradeID,
			Side:           domain.Side(it.Side),
			NftID:          it.NftID,
			TokenAmount:    it.TokenAmount,
			TokenAddress:   it.TokenAddress,
			EstimatedValue: it.EstimatedValue,
		})
	}
	metadata := m.Metadata
	if metadata == nil {
		metadata = make(map[string]string)
	}

	return &domain.Trade{
		ID:                  m.ID,
		InitiatorID:         m.InitiatorID,
		InitiatorAddress:    m.InitiatorAddress,
		CounterpartyID:      m.CounterpartyID,
		CounterpartyAddress: m.CounterpartyAddress,
		Status:              domain.TradeStatus(m.Status),
		Items:               items,
		Deposits: domain.Deposits{
			Initiator: domain.SideDeposit{
				Complete:    m.InitiatorDeposited,
				TxHash:      m.InitiatorDepositTxHash,
				DepositedAt: utc(m.InitiatorDepositedAt),
			},
			Counterparty: domain.SideDeposit{
				Complete:    m.CounterpartyDeposited,
				TxHash:      m.CounterpartyDepositTxHash,
				DepositedAt: utc(m.CounterpartyDepositedAt),
			},
		},
		EscrowAddress:    m.EscrowAddress,
		EscrowDeployedAt: utc(m.EscrowDeployedAt),
		FinalizedAt:      utc(m.FinalizedAt),
		Metadata:         metadata,
		CreatedAt:        m.CreatedAt.UTC(),
		UpdatedAt:        m.UpdatedAt.UTC(),
	}
}

func toHistoryModel(h domain.TradeHistory) (*historyModel, error) {
	metadata, err := domain.EncodeTransitionMetadata(h.Metadata)
	if err != nil {
		return nil, err
	}
	return &historyModel{
		ID:        h.ID,
		TradeID:   h.TradeID,
		UserID:    h.UserID,
		Action:    h.Action.String(),
		OldStatus: h.OldStatus.String(),
		NewStatus: h.NewStatus.String(),
		Metadata:  string(metadata),
		CreatedAt: h.CreatedAt,
	}, nil
}

func (m historyModel) toDomain() (*domain.TradeHistory, error) {
	action := domain.TradeAction(m.Action)
	metadata, err := domain.DecodeTransitionMetadata(action, []byte(m.Metadata))
	if err != nil {
		return nil, err
	}
	return &domain.TradeHistory{
		ID:        m.ID,
		Seq:       m.Seq,
		TradeID:   m.TradeID,
		UserID:    m.UserID,
		Action:    action,
		OldStatus: domain.TradeStatus(m.OldStatus),
		NewStatus: domain.TradeStatus(m.NewStatus),
		Metadata:  metadata,
		CreatedAt: m.CreatedAt.UTC(),
	}, nil
}

func toMessageModel(msg domain.TradeMessage) (*messageModel, error) {
	metadata, err := domain.EncodeTransitionMetadata(msg.Metadata)
	if err != nil {
		return nil, err
	}
	return &messageModel{
		ID:        msg.ID,
		TradeID:   msg.TradeID,
		UserID:    msg.UserID,
		Message:   msg.Message,
		Type:      string(msg.Type),
		Action:    msg.Action.String(),
		Metadata:  string(metadata),
		HistoryID: msg.HistoryID,
		CreatedAt: msg.CreatedAt,
	}, nil
}

func (m messageModel) toDomain() (*domain.TradeMessage, error) {
	action := domain.TradeAction(m.Action)
	metadata, err := domain.DecodeTransitionMetadata(action, []byte(m.Metadata))
	if err != nil {
		return nil, err
	}
	return &domain.TradeMessage{
		ID:        m.ID,
		Seq:       m.Seq,
		TradeID:   m.TradeID,
		UserID:    m.UserID,
		Message:   m.Message,
		Type:      domain.MessageType(m.Type),
		Action:    action,
		Metadata:  metadata,
		HistoryID: m.HistoryID,
		CreatedAt: m.CreatedAt.UTC(),
	}, nil
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
