package trade

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nftswap/swapd/internal/core/domain"
	"github.com/nftswap/swapd/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

// TopicMessage is the topic of chat messages posted by parties.
const TopicMessage = "TRADE_MESSAGE"

// TopicForAction returns the topic of the events published for an action.
func TopicForAction(action domain.TradeAction) string {
	return fmt.Sprintf("TRADE_%s", action)
}

// Topics returns all the topics events are published for.
func Topics() []string {
	actions := []domain.TradeAction{
		domain.TradeActionCreated, domain.TradeActionCountered,
		domain.TradeActionAgreed, domain.TradeActionCounterDeclined,
		domain.TradeActionEscrowDeployed, domain.TradeActionDepositRecorded,
		domain.TradeActionDeposited, domain.TradeActionFinalized,
		domain.TradeActionCancelled, domain.TradeActionExpired,
	}
	topics := make([]string, 0, len(actions)+1)
	for _, a := range actions {
		topics = append(topics, TopicForAction(a))
	}
	return append(topics, TopicMessage)
}

type tradePayload struct {
	ID                  string            `json:"id"`
	InitiatorAddress    string            `json:"initiatorAddress"`
	CounterpartyAddress string            `json:"counterpartyAddress"`
	Status              string            `json:"status"`
	EscrowAddress       string            `json:"escrowAddress,omitempty"`
	Fairness            float64           `json:"fairness"`
	Metadata            map[string]string `json:"metadata,omitempty"`
	UpdatedAt           time.Time         `json:"updatedAt"`
}

type messagePayload struct {
	ID      string `json:"id"`
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

type eventPayload struct {
	Topic      string          `json:"topic"`
	Action     string          `json:"action,omitempty"`
	UserID     string          `json:"userId,omitempty"`
	OldStatus  string          `json:"oldStatus,omitempty"`
	NewStatus  string          `json:"newStatus,omitempty"`
	Summary    string          `json:"summary,omitempty"`
	Metadata   interface{}     `json:"metadata,omitempty"`
	Trade      tradePayload    `json:"trade"`
	Message    *messagePayload `json:"message,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
}

func newTradePayload(t *domain.Trade) tradePayload {
	return tradePayload{
		ID:                  t.ID,
		InitiatorAddress:    t.InitiatorAddress,
		CounterpartyAddress: t.CounterpartyAddress,
		Status:              t.Status.String(),
		EscrowAddress:       t.EscrowAddress,
		Fairness:            t.Fairness(),
		Metadata:            t.Metadata,
		UpdatedAt:           t.UpdatedAt,
	}
}

func (s *Service) notifyTransition(
	trade *domain.Trade, change domain.StatusChange, userID string,
) {
	payload := eventPayload{
		Topic:      TopicForAction(change.Action),
		Action:     change.Action.String(),
		UserID:     userID,
		OldStatus:  change.OldStatus.String(),
		NewStatus:  change.NewStatus.String(),
		Metadata:   change.Metadata,
		Trade:      newTradePayload(trade),
		OccurredAt: change.At,
	}
	if change.Metadata != nil {
		payload.Summary = change.Metadata.Summary()
	}
	s.publish(trade, payload)
}

func (s *Service) notifyMessage(trade *domain.Trade, msg *domain.TradeMessage) {
	s.publish(trade, eventPayload{
		Topic:  TopicMessage,
		UserID: msg.UserID,
		Trade:  newTradePayload(trade),
		Message: &messagePayload{
			ID:      msg.ID,
			UserID:  msg.UserID,
			Message: msg.Message,
		},
		OccurredAt: msg.CreatedAt,
	})
}

// publish hands the event to every notifier in background. Failures are only
// logged, the change is already committed.
func (s *Service) publish(trade *domain.Trade, payload eventPayload) {
	if len(s.notifiers) <= 0 {
		return
	}

	message, err := json.Marshal(payload)
	if err != nil {
		log.WithError(err).Warnf("failed to serialize %s event", payload.Topic)
		return
	}
	event := ports.TradeEvent{
		Topic:   payload.Topic,
		TradeID: trade.ID,
		Parties: []string{trade.InitiatorAddress, trade.CounterpartyAddress},
		Payload: message,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), defaultNotifyTimeout)
		defer cancel()

		for _, n := range s.notifiers {
			if err := n.Notify(ctx, event); err != nil {
				log.WithError(err).Warnf(
					"an error occured while publishing message for topic %s",
					event.Topic,
				)
			}
		}
	}()
}
