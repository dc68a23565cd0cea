package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxMessageLength is the max number of characters of a chat message.
const MaxMessageLength = 2000

// MessageType distinguishes chat messages written by parties from the ones
// generated by transitions.
type MessageType string

const (
	MessageTypeText   MessageType = "TEXT"
	MessageTypeSystem MessageType = "SYSTEM"
)

// TradeHistory is an append-only audit entry of a trade transition.
type TradeHistory struct {
	ID string
	// Seq is assigned by the store and breaks ties between entries with the
	// same creation time.
	Seq       uint64
	TradeID   string
	UserID    string
	Action    TradeAction
	OldStatus TradeStatus
	NewStatus TradeStatus
	Metadata  TransitionMetadata
	CreatedAt time.Time
}

// NewTradeHistory returns the history entry recording the given change made
// by userID. An empty userID marks a change driven by the system.
func NewTradeHistory(tradeID, userID string, change StatusChange) *TradeHistory {
	return &TradeHistory{
		ID:        uuid.New().String(),
		TradeID:   tradeID,
		UserID:    userID,
		Action:    change.Action,
		OldStatus: change.OldStatus,
		NewStatus: change.NewStatus,
		Metadata:  change.Metadata,
		CreatedAt: change.At,
	}
}

// TradeMessage is a chat entry scoped to a trade.
type TradeMessage struct {
	ID        string
	Seq       uint64
	TradeID   string
	UserID    string
	Message   string
	Type      MessageType
	// Action, Metadata and HistoryID are set only for SYSTEM messages.
	Action    TradeAction
	Metadata  TransitionMetadata
	HistoryID string
	CreatedAt time.Time
}

// NewTextMessage returns a chat message posted by a party.
func NewTextMessage(tradeID, userID, text string, now time.Time) (*TradeMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" || utf8.RuneCountInString(text) > MaxMessageLength {
		return nil, ErrInvalidMessage
	}
	return &TradeMessage{
		ID:        uuid.New().String(),
		TradeID:   tradeID,
		UserID:    userID,
		Message:   text,
		Type:      MessageTypeText,
		CreatedAt: now,
	}, nil
}

// NewSystemMessage returns the SYSTEM message mirroring a history entry.
func NewSystemMessage(h *TradeHistory) *TradeMessage {
	msg := &TradeMessage{
		ID:        uuid.New().String(),
		TradeID:   h.TradeID,
		UserID:    h.UserID,
		Type:      MessageTypeSystem,
		Action:    h.Action,
		Metadata:  h.Metadata,
		HistoryID: h.ID,
		CreatedAt: h.CreatedAt,
	}
	if h.Metadata != nil {
		msg.Message = h.Metadata.Summary()
	} else {
		msg.Message = strings.ToLower(string(h.Action))
	}
	return msg
}

func (m *TradeMessage) IsSystem() bool {
	return m.Type == MessageTypeSystem
}
