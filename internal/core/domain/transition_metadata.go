package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransitionMetadata is the typed payload attached to a history entry and to
// its SYSTEM message. Each action has its own concrete type.
type TransitionMetadata interface {
	// Summary is the human readable text of the SYSTEM message.
	Summary() string
}

type CreatedMeta struct {
	InitiatorItems    int `json:"initiatorItems"`
	CounterpartyItems int `json:"counterpartyItems"`
}

func (m CreatedMeta) Summary() string {
	return fmt.Sprintf(
		"Trade proposed: %d item(s) offered, %d item(s) requested",
		m.InitiatorItems, m.CounterpartyItems,
	)
}

type CounteredMeta struct {
	Note string `json:"note,omitempty"`
}

func (m CounteredMeta) Summary() string {
	return withDetail("Counter-offer made", m.Note)
}

type AgreedMeta struct{}

func (m AgreedMeta) Summary() string {
	return "Trade terms agreed"
}

type CounterDeclinedMeta struct {
	Reason string `json:"reason,omitempty"`
}

func (m CounterDeclinedMeta) Summary() string {
	return withDetail("Counter-offer declined", m.Reason)
}

type EscrowDeployedMeta struct {
	EscrowAddress string `json:"escrowAddress"`
	TxHash        string `json:"txHash"`
}

func (m EscrowDeployedMeta) Summary() string {
	return fmt.Sprintf("Escrow deployed at %s", m.EscrowAddress)
}

// DepositMeta is attached to both DEPOSIT_RECORDED and DEPOSITED actions.
type DepositMeta struct {
	Side         Side                       `json:"side"`
	NftIDs       []string                   `json:"nftIds,omitempty"`
	TokenAmounts map[string]decimal.Decimal `json:"tokenAmounts,omitempty"`
	TxHash       string                     `json:"txHash"`
	Complete     bool                       `json:"complete"`
}

func (m DepositMeta) Summary() string {
	summary := fmt.Sprintf("%s deposit recorded", strings.ToLower(string(m.Side)))
	summary = strings.ToUpper(summary[:1]) + summary[1:]
	if m.Complete {
		return summary + ", both sides deposited"
	}
	return summary + ", waiting for the other side"
}

type FinalizedMeta struct {
	TxHash string `json:"txHash"`
}

func (m FinalizedMeta) Summary() string {
	return "Trade finalized"
}

type CancelledMeta struct {
	Reason string `json:"reason,omitempty"`
}

func (m CancelledMeta) Summary() string {
	return withDetail("Trade cancelled", m.Reason)
}

type ExpiredMeta struct {
	TTLSeconds int64 `json:"ttlSeconds"`
}

func (m ExpiredMeta) Summary() string {
	ttl := time.Duration(m.TTLSeconds) * time.Second
	return fmt.Sprintf("Trade expired after %s of inactivity", ttl)
}

// EncodeTransitionMetadata serializes the metadata payload. The action stored
// alongside is what allows to decode it back.
func EncodeTransitionMetadata(meta TransitionMetadata) ([]byte, error) {
	if meta == nil {
		return nil, nil
	}
	return json.Marshal(meta)
}

// DecodeTransitionMetadata restores the concrete metadata type of the given
// action from its serialized payload.
func DecodeTransitionMetadata(
	action TradeAction, data []byte,
) (TransitionMetadata, error) {
	if len(data) <= 0 {
		return nil, nil
	}

	switch action {
	case TradeActionCreated:
		return decodeMeta[CreatedMeta](data)
	case TradeActionCountered:
		return decodeMeta[CounteredMeta](data)
	case TradeActionAgreed:
		return decodeMeta[AgreedMeta](data)
	case TradeActionCounterDeclined:
		return decodeMeta[CounterDeclinedMeta](data)
	case TradeActionEscrowDeployed:
		return decodeMeta[EscrowDeployedMeta](data)
	case TradeActionDepositRecorded, TradeActionDeposited:
		return decodeMeta[DepositMeta](data)
	case TradeActionFinalized:
		return decodeMeta[FinalizedMeta](data)
	case TradeActionCancelled:
		return decodeMeta[CancelledMeta](data)
	case TradeActionExpired:
		return decodeMeta[ExpiredMeta](data)
	default:
		return nil, fmt.Errorf("unknown trade action %s", action)
	}
}

func decodeMeta[T TransitionMetadata](data []byte) (TransitionMetadata, error) {
	var meta T
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return meta, nil
}

func withDetail(summary, detail string) string {
	if detail = strings.TrimSpace(detail); detail == "" {
		return summary
	}
	return fmt.Sprintf("%s: %s", summary, detail)
}
