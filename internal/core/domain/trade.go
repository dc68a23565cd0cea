package domain

import (
	"time"

	"github.com/google/uuid"
)

// NewTrade returns a Pending trade between the given users along with the
// CREATED status change. The initiator must offer at least one item, the
// counterparty may offer none.
func NewTrade(
	initiator, counterparty *User,
	initiatorItems, counterpartyItems []TradeItem,
	metadata map[string]string, now time.Time,
) (*Trade, *StatusChange, error) {
	if initiator == nil || counterparty == nil {
		return nil, nil, ErrUserNotFound
	}
	if initiator.ID == counterparty.ID {
		return nil, nil, ErrSelfTrade
	}
	if len(initiatorItems) <= 0 {
		return nil, nil, ErrMissingInitiatorItems
	}

	tradeID := uuid.New().String()
	items := make(TradeItems, 0, len(initiatorItems)+len(counterpartyItems))
	for _, it := range initiatorItems {
		items = append(items, newItem(tradeID, SideInitiator, it))
	}
	for _, it := range counterpartyItems {
		items = append(items, newItem(tradeID, SideCounterparty, it))
	}
	if err := items.Validate(); err != nil {
		return nil, nil, err
	}
	items.normalize()

	md := make(map[string]string, len(metadata))
	for k, v := range metadata {
		md[k] = v
	}

	trade := &Trade{
		ID:                  tradeID,
		InitiatorID:         initiator.ID,
		InitiatorAddress:    initiator.Address,
		CounterpartyID:      counterparty.ID,
		CounterpartyAddress: counterparty.Address,
		Status:              TradeStatusPending,
		Items:               items,
		Metadata:            md,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	change := &StatusChange{
		Action:    TradeActionCreated,
		NewStatus: TradeStatusPending,
		Metadata: CreatedMeta{
			InitiatorItems:    len(initiatorItems),
			CounterpartyItems: len(counterpartyItems),
		},
		At: now,
	}
	return trade, change, nil
}

// SideOf returns the side of the given user, or ErrCallerNotParty.
func (t *Trade) SideOf(userID string) (Side, error) {
	switch userID {
	case "":
		return "", ErrCallerNotParty
	case t.InitiatorID:
		return SideInitiator, nil
	case t.CounterpartyID:
		return SideCounterparty, nil
	default:
		return "", ErrCallerNotParty
	}
}

func (t *Trade) IsParty(userID string) bool {
	_, err := t.SideOf(userID)
	return err == nil
}

// ItemsForSide returns the items offered by one side of the trade.
func (t *Trade) ItemsForSide(side Side) TradeItems {
	return t.Items.ForSide(side)
}

// Fairness returns the fairness score of the two offers. It is never stored.
func (t *Trade) Fairness() float64 {
	return FairnessScore(
		BasketFromItems(t.ItemsForSide(SideInitiator)),
		BasketFromItems(t.ItemsForSide(SideCounterparty)),
	)
}

// IsDepositComplete returns whether the given side has nothing left to
// deposit. A side that offers no items is complete by definition.
func (t *Trade) IsDepositComplete(side Side) bool {
	return t.Deposits.ForSide(side).Complete || len(t.ItemsForSide(side)) <= 0
}

// IsStale returns whether a negotiating trade went untouched for at least ttl.
func (t *Trade) IsStale(ttl time.Duration, now time.Time) bool {
	if t.Status != TradeStatusPending && t.Status != TradeStatusCountered {
		return false
	}
	return ttl > 0 && !t.UpdatedAt.Add(ttl).After(now)
}

// Counter brings a Pending trade to the Countered status. Only the
// counterparty can counter.
func (t *Trade) Counter(callerID, note string, now time.Time) (*StatusChange, error) {
	side, err := t.SideOf(callerID)
	if err != nil {
		return nil, err
	}
	if side != SideCounterparty {
		return nil, ErrCallerNotCounterparty
	}
	if t.Status != TradeStatusPending {
		return nil, ErrTradeMustBePending
	}

	return t.transition(TradeActionCountered, TradeStatusCountered, CounteredMeta{
		Note: note,
	}, now), nil
}

// Accept brings a trade to the Agreed status. A Pending trade is accepted by
// the counterparty, a Countered one by the initiator.
func (t *Trade) Accept(callerID string, now time.Time) (*StatusChange, error) {
	side, err := t.SideOf(callerID)
	if err != nil {
		return nil, err
	}

	switch t.Status {
	case TradeStatusPending:
		if side != SideCounterparty {
			return nil, ErrCallerNotCounterparty
		}
	case TradeStatusCountered:
		if side != SideInitiator {
			return nil, ErrCallerNotInitiator
		}
	default:
		return nil, ErrTradeMustBePendingOrCountered
	}

	return t.transition(TradeActionAgreed, TradeStatusAgreed, AgreedMeta{}, now), nil
}

// DeclineCounter brings a Countered trade back to Pending, keeping the
// original offer open. Only the initiator can decline a counter.
func (t *Trade) DeclineCounter(callerID, reason string, now time.Time) (*StatusChange, error) {
	side, err := t.SideOf(callerID)
	if err != nil {
		return nil, err
	}
	if side != SideInitiator {
		return nil, ErrCallerNotInitiator
	}
	if t.Status != TradeStatusCountered {
		return nil, ErrTradeMustBeCountered
	}

	return t.transition(TradeActionCounterDeclined, TradeStatusPending, CounterDeclinedMeta{
		Reason: reason,
	}, now), nil
}

// DeployEscrow brings an Agreed trade to the EscrowDeployed status and
// records the escrow contract address. Only the initiator deploys the escrow.
func (t *Trade) DeployEscrow(
	callerID, escrowAddress, txHash string, now time.Time,
) (*StatusChange, error) {
	side, err := t.SideOf(callerID)
	if err != nil {
		return nil, err
	}
	if side != SideInitiator {
		return nil, ErrCallerNotInitiator
	}
	if t.Status != TradeStatusAgreed {
		return nil, ErrTradeMustBeAgreed
	}
	address, err := NormalizeAddress(escrowAddress)
	if err != nil {
		return nil, err
	}
	if !IsValidTxHash(txHash) {
		return nil, ErrInvalidTxHash
	}

	deployedAt := now
	t.EscrowAddress = address
	t.EscrowDeployedAt = &deployedAt
	t.setMetadata(MetadataEscrowTxHash, txHash)

	return t.transition(TradeActionEscrowDeployed, TradeStatusEscrowDeployed, EscrowDeployedMeta{
		EscrowAddress: address,
		TxHash:        txHash,
	}, now), nil
}

// RecordDeposit marks the caller's side as deposited if the proof covers all
// of its items. The trade reaches the Deposited status only once both sides
// are complete, otherwise the status is left untouched and the returned
// change carries the DEPOSIT_RECORDED action.
func (t *Trade) RecordDeposit(
	callerID string, proof DepositProof, txHash string, now time.Time,
) (*StatusChange, error) {
	side, err := t.SideOf(callerID)
	if err != nil {
		return nil, err
	}
	if t.Status != TradeStatusEscrowDeployed {
		return nil, ErrTradeMustBeEscrowDeployed
	}
	if t.Deposits.ForSide(side).Complete {
		return nil, ErrSideAlreadyDeposited
	}
	if !IsValidTxHash(txHash) {
		return nil, ErrInvalidTxHash
	}
	if missing := t.ItemsForSide(side).Missing(proof); len(missing) > 0 {
		return nil, &IncompleteDepositError{Side: side, Missing: missing}
	}

	depositedAt := now
	t.Deposits.setForSide(side, SideDeposit{
		Complete:    true,
		TxHash:      txHash,
		DepositedAt: &depositedAt,
	})
	if side == SideInitiator {
		t.setMetadata(MetadataInitiatorDepositTxHash, txHash)
	} else {
		t.setMetadata(MetadataCounterpartyDepositTxHash, txHash)
	}

	complete := t.IsDepositComplete(side.Other())
	meta := DepositMeta{
		Side:         side,
		NftIDs:       proof.NftIDs,
		TokenAmounts: proof.normalizedAmounts(),
		TxHash:       txHash,
		Complete:     complete,
	}
	if !complete {
		return t.transition(TradeActionDepositRecorded, t.Status, meta, now), nil
	}
	return t.transition(TradeActionDeposited, TradeStatusDeposited, meta, now), nil
}

// Finalize brings a Deposited trade to the Finalized status. Either party can
// finalize.
func (t *Trade) Finalize(callerID, txHash string, now time.Time) (*StatusChange, error) {
	if _, err := t.SideOf(callerID); err != nil {
		return nil, err
	}
	if t.Status != TradeStatusDeposited {
		return nil, ErrTradeMustBeDeposited
	}
	if !IsValidTxHash(txHash) {
		return nil, ErrInvalidTxHash
	}

	finalizedAt := now
	t.FinalizedAt = &finalizedAt
	t.setMetadata(MetadataFinalizeTxHash, txHash)

	return t.transition(TradeActionFinalized, TradeStatusFinalized, FinalizedMeta{
		TxHash: txHash,
	}, now), nil
}

// Cancel brings a trade that has no escrow yet to the Cancelled status.
// Either party can cancel.
func (t *Trade) Cancel(callerID, reason string, now time.Time) (*StatusChange, error) {
	if _, err := t.SideOf(callerID); err != nil {
		return nil, err
	}
	switch t.Status {
	case TradeStatusPending, TradeStatusCountered, TradeStatusAgreed:
	default:
		return nil, ErrTradeNotCancellable
	}

	if reason != "" {
		t.setMetadata(MetadataCancelReason, reason)
	}
	return t.transition(TradeActionCancelled, TradeStatusCancelled, CancelledMeta{
		Reason: reason,
	}, now), nil
}

// Expire brings a negotiating trade untouched for at least ttl to the
// Expired status.
func (t *Trade) Expire(ttl time.Duration, now time.Time) (*StatusChange, error) {
	if t.Status != TradeStatusPending && t.Status != TradeStatusCountered {
		return nil, ErrTradeMustBePendingOrCountered
	}
	if !t.IsStale(ttl, now) {
		return nil, ErrTradeNotStale
	}

	return t.transition(TradeActionExpired, TradeStatusExpired, ExpiredMeta{
		TTLSeconds: int64(ttl / time.Second),
	}, now), nil
}

func (t *Trade) transition(
	action TradeAction, status TradeStatus, meta TransitionMetadata, now time.Time,
) *StatusChange {
	change := &StatusChange{
		Action:    action,
		OldStatus: t.Status,
		NewStatus: status,
		Metadata:  meta,
		At:        now,
	}
	t.Status = status
	t.UpdatedAt = now
	return change
}

func (t *Trade) setMetadata(key, value string) {
	if t.Metadata == nil {
		t.Metadata = make(map[string]string)
	}
	t.Metadata[key] = value
}
