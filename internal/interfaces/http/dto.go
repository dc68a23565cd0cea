package httpinterface

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nftswap/swapd/internal/core/application/conversation"
	"github.com/nftswap/swapd/internal/core/application/pubsub"
	"github.com/nftswap/swapd/internal/core/application/trade"
	"github.com/nftswap/swapd/internal/core/domain"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const maxBodySize = 1 << 20

var validate = validator.New()

// **** Requests ****

type itemRequest struct {
	NftID          string          `json:"nftId" validate:"required_without=TokenAddress,excluded_with=TokenAddress"`
	TokenAddress   string          `json:"tokenAddress" validate:"omitempty,eth_addr"`
	TokenAmount    decimal.Decimal `json:"tokenAmount"`
	EstimatedValue decimal.Decimal `json:"estimatedValue"`
}

func (i itemRequest) toDomain() domain.TradeItem {
	return domain.TradeItem{
		NftID:          i.NftID,
		TokenAddress:   i.TokenAddress,
		TokenAmount:    i.TokenAmount,
		EstimatedValue: i.EstimatedValue,
	}
}

type createTradeRequest struct {
	CounterpartyAddress string            `json:"counterpartyAddress" validate:"required,eth_addr"`
	InitiatorItems      []itemRequest     `json:"initiatorItems" validate:"dive"`
	CounterpartyItems   []itemRequest     `json:"counterpartyItems" validate:"dive"`
	Metadata            map[string]string `json:"metadata" validate:"max=32"`
}

type noteRequest struct {
	Note string `json:"note" validate:"max=500"`
}

type reasonRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type escrowRequest struct {
	EscrowAddress string `json:"escrowAddress" validate:"required,eth_addr"`
	TxHash        string `json:"txHash" validate:"required,len=66,hexadecimal"`
}

type depositRequest struct {
	NftIDs       []string                   `json:"nftIds" validate:"dive,required"`
	TokenAmounts map[string]decimal.Decimal `json:"tokenAmounts"`
	TxHash       string                     `json:"txHash" validate:"required,len=66,hexadecimal"`
}

type finalizeRequest struct {
	TxHash string `json:"txHash" validate:"required,len=66,hexadecimal"`
}

type messageRequest struct {
	Message string `json:"message" validate:"required"`
}

type webhookRequest struct {
	Topic    string `json:"topic" validate:"required"`
	Endpoint string `json:"endpoint" validate:"required,url"`
	Secret   string `json:"secret"`
}

// decodeRequest parses and validates the JSON body into req. An empty body is
// accepted when optional is set.
func decodeRequest(r *http.Request, req interface{}, optional bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil {
		if !(optional && errors.Is(err, io.EOF)) {
			return fmt.Errorf("%w: invalid body: %s", domain.ErrValidation, err)
		}
	}
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}
	return nil
}

// parsePage reads the page and limit query params.
func parsePage(r *http.Request) (domain.Page, error) {
	number, err := queryInt(r, "page")
	if err != nil {
		return domain.Page{}, err
	}
	size, err := queryInt(r, "limit")
	if err != nil {
		return domain.Page{}, err
	}
	return domain.NewPage(number, size), nil
}

func queryInt(r *http.Request, key string) (int, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non negative integer", domain.ErrValidation, key)
	}
	return n, nil
}

// **** Responses ****

type itemResponse struct {
	ID             string           `json:"id"`
	Side           string           `json:"side"`
	NftID          string           `json:"nftId,omitempty"`
	TokenAddress   string           `json:"tokenAddress,omitempty"`
	TokenAmount    *decimal.Decimal `json:"tokenAmount,omitempty"`
	EstimatedValue decimal.Decimal  `json:"estimatedValue"`
}

type depositResponse struct {
	Complete    bool       `json:"complete"`
	TxHash      string     `json:"txHash,omitempty"`
	DepositedAt *time.Time `json:"depositedAt,omitempty"`
}

type tradeResponse struct {
	ID                  string            `json:"id"`
	InitiatorAddress    string            `json:"initiatorAddress"`
	CounterpartyAddress string            `json:"counterpartyAddress"`
	Status              string            `json:"status"`
	InitiatorItems      []itemResponse    `json:"initiatorItems"`
	CounterpartyItems   []itemResponse    `json:"counterpartyItems"`
	InitiatorDeposit    depositResponse   `json:"initiatorDeposit"`
	CounterpartyDeposit depositResponse   `json:"counterpartyDeposit"`
	EscrowAddress       string            `json:"escrowAddress,omitempty"`
	EscrowDeployedAt    *time.Time        `json:"escrowDeployedAt,omitempty"`
	FinalizedAt         *time.Time        `json:"finalizedAt,omitempty"`
	Fairness            float64           `json:"fairness"`
	Metadata            map[string]string `json:"metadata,omitempty"`
	CreatedAt           time.Time         `json:"createdAt"`
	UpdatedAt           time.Time         `json:"updatedAt"`
}

type paginationResponse struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type tradeListResponse struct {
	Trades     []tradeResponse    `json:"trades"`
	Pagination paginationResponse `json:"pagination"`
}

type historyResponse struct {
	ID        string      `json:"id"`
	UserID    string      `json:"userId,omitempty"`
	Action    string      `json:"action"`
	OldStatus string      `json:"oldStatus,omitempty"`
	NewStatus string      `json:"newStatus"`
	Summary   string      `json:"summary,omitempty"`
	Metadata  interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

type messageResponse struct {
	ID        string      `json:"id"`
	TradeID   string      `json:"tradeId"`
	UserID    string      `json:"userId,omitempty"`
	Message   string      `json:"message"`
	Type      string      `json:"type"`
	Action    string      `json:"action,omitempty"`
	Metadata  interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

type userResponse struct {
	ID      string `json:"id"`
	Address string `json:"address"`
}

type entryResponse struct {
	Type      string           `json:"type"`
	TradeID   string           `json:"tradeId"`
	Timestamp time.Time        `json:"timestamp"`
	Trade     *tradeResponse   `json:"trade,omitempty"`
	Message   *messageResponse `json:"message,omitempty"`
	Event     *historyResponse `json:"event,omitempty"`
}

type statsResponse struct {
	TotalTrades     int `json:"totalTrades"`
	ActiveTrades    int `json:"activeTrades"`
	FinalizedTrades int `json:"finalizedTrades"`
}

type conversationResponse struct {
	User       userResponse       `json:"user"`
	Partner    userResponse       `json:"partner"`
	Timeline   []entryResponse    `json:"timeline"`
	Stats      statsResponse      `json:"stats"`
	Pagination paginationResponse `json:"pagination"`
}

type webhookResponse struct {
	ID        string `json:"id"`
	Topic     string `json:"topic"`
	Endpoint  string `json:"endpoint"`
	IsSecured bool   `json:"isSecured"`
}

func newTradeResponse(t domain.Trade, fairness float64) tradeResponse {
	return tradeResponse{
		ID:                  t.ID,
		InitiatorAddress:    t.InitiatorAddress,
		CounterpartyAddress: t.CounterpartyAddress,
		Status:              t.Status.String(),
		InitiatorItems:      newItemsResponse(t.ItemsForSide(domain.SideInitiator)),
		CounterpartyItems:   newItemsResponse(t.ItemsForSide(domain.SideCounterparty)),
		InitiatorDeposit:    newDepositResponse(t.Deposits.Initiator),
		CounterpartyDeposit: newDepositResponse(t.Deposits.Counterparty),
		EscrowAddress:       t.EscrowAddress,
		EscrowDeployedAt:    t.EscrowDeployedAt,
		FinalizedAt:         t.FinalizedAt,
		Fairness:            fairness,
		Metadata:            t.Metadata,
		CreatedAt:           t.CreatedAt,
		UpdatedAt:           t.UpdatedAt,
	}
}

func newTradeInfoResponse(info *trade.TradeInfo) tradeResponse {
	return newTradeResponse(info.Trade, info.Fairness)
}

func newItemsResponse(items domain.TradeItems) []itemResponse {
	return lo.Map(items, func(it domain.TradeItem, _ int) itemResponse {
		res := itemResponse{
			ID:             it.ID,
			Side:           it.Side.String(),
			NftID:          it.NftID,
			TokenAddress:   it.TokenAddress,
			EstimatedValue: it.EstimatedValue,
		}
		if it.IsToken() {
			amount := it.TokenAmount
			res.TokenAmount = &amount
		}
		return res
	})
}

func newDepositResponse(d domain.SideDeposit) depositResponse {
	return depositResponse{
		Complete:    d.Complete,
		TxHash:      d.TxHash,
		DepositedAt: d.DepositedAt,
	}
}

func newPaginationResponse(p domain.Pagination) paginationResponse {
	return paginationResponse{
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      p.Total,
		TotalPages: p.TotalPages,
	}
}

func newTradeListResponse(list *trade.TradeList) tradeListResponse {
	return tradeListResponse{
		Trades: lo.Map(list.Trades, func(info trade.TradeInfo, _ int) tradeResponse {
			return newTradeInfoResponse(&info)
		}),
		Pagination: newPaginationResponse(list.Pagination),
	}
}

func newHistoryResponse(h *domain.TradeHistory) historyResponse {
	res := historyResponse{
		ID:        h.ID,
		UserID:    h.UserID,
		Action:    h.Action.String(),
		OldStatus: h.OldStatus.String(),
		NewStatus: h.NewStatus.String(),
		Metadata:  h.Metadata,
		CreatedAt: h.CreatedAt,
	}
	if h.Metadata != nil {
		res.Summary = h.Metadata.Summary()
	}
	return res
}

func newMessageResponse(m *domain.TradeMessage) messageResponse {
	res := messageResponse{
		ID:        m.ID,
		TradeID:   m.TradeID,
		UserID:    m.UserID,
		Message:   m.Message,
		Type:      string(m.Type),
		Action:    m.Action.String(),
		CreatedAt: m.CreatedAt,
	}
	if m.Metadata != nil {
		res.Metadata = m.Metadata
	}
	return res
}

func newConversationResponse(c *conversation.Conversation) conversationResponse {
	timeline := lo.Map(c.Timeline, func(e conversation.Entry, _ int) entryResponse {
		res := entryResponse{
			Type:      string(e.Type),
			TradeID:   e.TradeID,
			Timestamp: e.Timestamp,
		}
		if e.Trade != nil {
			t := newTradeResponse(*e.Trade, e.Trade.Fairness())
			res.Trade = &t
		}
		if e.Message != nil {
			m := newMessageResponse(e.Message)
			res.Message = &m
		}
		if e.Event != nil {
			h := newHistoryResponse(e.Event)
			res.Event = &h
		}
		return res
	})

	return conversationResponse{
		User:     userResponse{c.User.ID, c.User.Address},
		Partner:  userResponse{c.Partner.ID, c.Partner.Address},
		Timeline: timeline,
		Stats: statsResponse{
			TotalTrades:     c.Stats.TotalTrades,
			ActiveTrades:    c.Stats.ActiveTrades,
			FinalizedTrades: c.Stats.FinalizedTrades,
		},
		Pagination: newPaginationResponse(c.Pagination),
	}
}

func newWebhookResponse(info pubsub.WebhookInfo) webhookResponse {
	return webhookResponse{
		ID:        info.ID,
		Topic:     info.Topic,
		Endpoint:  info.Endpoint,
		IsSecured: info.IsSecured,
	}
}
