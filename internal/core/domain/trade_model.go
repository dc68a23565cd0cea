package domain

import (
	"strings"
	"time"
)

// TradeStatus represents the different statuses that a trade can assume.
type TradeStatus string

const (
	TradeStatusPending        TradeStatus = "PENDING"
	TradeStatusCountered      TradeStatus = "COUNTERED"
	TradeStatusAgreed         TradeStatus = "AGREED"
	TradeStatusEscrowDeployed TradeStatus = "ESCROW_DEPLOYED"
	TradeStatusDeposited      TradeStatus = "DEPOSITED"
	TradeStatusFinalized      TradeStatus = "FINALIZED"
	TradeStatusCancelled      TradeStatus = "CANCELLED"
	TradeStatusExpired        TradeStatus = "EXPIRED"
)

var (
	// ActiveTradeStatuses are the statuses of trades still in progress.
	ActiveTradeStatuses = []TradeStatus{
		TradeStatusPending, TradeStatusCountered, TradeStatusAgreed,
		TradeStatusEscrowDeployed, TradeStatusDeposited,
	}
	// NegotiatingTradeStatuses are the statuses subject to expiration.
	NegotiatingTradeStatuses = []TradeStatus{
		TradeStatusPending, TradeStatusCountered,
	}

	tradeStatusRank = map[TradeStatus]int{
		TradeStatusPending:        0,
		TradeStatusCountered:      0,
		TradeStatusAgreed:         1,
		TradeStatusEscrowDeployed: 2,
		TradeStatusDeposited:      3,
		TradeStatusFinalized:      4,
		TradeStatusCancelled:      5,
		TradeStatusExpired:        5,
	}
)

// ParseTradeStatus returns the status matching the given string,
// case-insensitive.
func ParseTradeStatus(s string) (TradeStatus, error) {
	status := TradeStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}

func (s TradeStatus) IsValid() bool {
	_, ok := tradeStatusRank[s]
	return ok
}

func (s TradeStatus) IsActive() bool {
	for _, st := range ActiveTradeStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// IsTerminal returns whether no transition can leave the status.
func (s TradeStatus) IsTerminal() bool {
	return s == TradeStatusFinalized ||
		s == TradeStatusCancelled ||
		s == TradeStatusExpired
}

// Rank returns the position of the status along the lifecycle. PENDING and
// COUNTERED share the negotiation rank, terminal exits share the last one.
func (s TradeStatus) Rank() int {
	return tradeStatusRank[s]
}

func (s TradeStatus) String() string {
	return string(s)
}

// Side partitions the items and the deposit obligations of a trade.
type Side string

const (
	SideInitiator    Side = "INITIATOR"
	SideCounterparty Side = "COUNTERPARTY"
)

func (s Side) IsValid() bool {
	return s == SideInitiator || s == SideCounterparty
}

// Other returns the opposite side.
func (s Side) Other() Side {
	if s == SideInitiator {
		return SideCounterparty
	}
	return SideInitiator
}

func (s Side) String() string {
	return string(s)
}

// TradeAction is the verb recorded in the history of a trade.
type TradeAction string

const (
	TradeActionCreated         TradeAction = "CREATED"
	TradeActionCountered       TradeAction = "COUNTERED"
	TradeActionAgreed          TradeAction = "AGREED"
	TradeActionCounterDeclined TradeAction = "COUNTER_DECLINED"
	TradeActionEscrowDeployed  TradeAction = "ESCROW_DEPLOYED"
	TradeActionDepositRecorded TradeAction = "DEPOSIT_RECORDED"
	TradeActionDeposited       TradeAction = "DEPOSITED"
	TradeActionFinalized       TradeAction = "FINALIZED"
	TradeActionCancelled       TradeAction = "CANCELLED"
	TradeActionExpired         TradeAction = "EXPIRED"
)

func (a TradeAction) String() string {
	return string(a)
}

// Keys of the metadata bag written by transitions.
const (
	MetadataEscrowTxHash              = "escrowTxHash"
	MetadataInitiatorDepositTxHash    = "initiatorDepositTxHash"
	MetadataCounterpartyDepositTxHash = "counterpartyDepositTxHash"
	MetadataFinalizeTxHash            = "finalizeTxHash"
	MetadataCancelReason              = "cancelReason"
)

// SideDeposit tracks the deposit of one side into the escrow.
type SideDeposit struct {
	Complete    bool
	TxHash      string
	DepositedAt *time.Time
}

// Deposits holds the deposit state of both sides.
type Deposits struct {
	Initiator    SideDeposit
	Counterparty SideDeposit
}

func (d Deposits) ForSide(side Side) SideDeposit {
	if side == SideInitiator {
		return d.Initiator
	}
	return d.Counterparty
}

func (d *Deposits) setForSide(side Side, deposit SideDeposit) {
	if side == SideInitiator {
		d.Initiator = deposit
		return
	}
	d.Counterparty = deposit
}

// Trade is the aggregate root of a two-party asset swap.
type Trade struct {
	ID                  string
	InitiatorID         string
	InitiatorAddress    string
	CounterpartyID      string
	CounterpartyAddress string
	Status              TradeStatus
	Items               TradeItems
	Deposits            Deposits
	EscrowAddress       string
	EscrowDeployedAt    *time.Time
	FinalizedAt         *time.Time
	Metadata            map[string]string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// StatusChange describes a transition applied to a trade. It is what the
// history recorder persists.
type StatusChange struct {
	Action    TradeAction
	OldStatus TradeStatus
	NewStatus TradeStatus
	Metadata  TransitionMetadata
	At        time.Time
}

// TradeFilter restricts the trades returned when listing.
type TradeFilter struct {
	Status TradeStatus
}

func (f TradeFilter) Match(t *Trade) bool {
	return f.Status == "" || t.Status == f.Status
}
