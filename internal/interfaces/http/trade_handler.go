package httpinterface

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/nftswap/swapd/internal/core/application/trade"
	"github.com/nftswap/swapd/internal/core/domain"
	"github.com/samber/lo"
)

func (s *server) createTrade(w http.ResponseWriter, r *http.Request) {
	req := createTradeRequest{}
	if err := decodeRequest(r, &req, false); err != nil {
		handleError(w, r, err)
		return
	}

	info, err := s.opts.TradeSvc.CreateTrade(r.Context(), trade.CreateTradeArgs{
		InitiatorAddress:    callerFromContext(r.Context()),
		CounterpartyAddress: req.CounterpartyAddress,
		InitiatorItems:      lo.Map(req.InitiatorItems, toDomainItem),
		CounterpartyItems:   lo.Map(req.CounterpartyItems, toDomainItem),
		Metadata:            req.Metadata,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newTradeInfoResponse(info))
}

func (s *server) listTrades(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	list, err := s.opts.TradeSvc.ListTrades(
		r.Context(), callerFromContext(r.Context()),
		r.URL.Query().Get("status"), page,
	)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTradeListResponse(list))
}

func (s *server) getTrade(w http.ResponseWriter, r *http.Request) {
	info, err := s.opts.TradeSvc.GetTrade(
		r.Context(), chi.URLParam(r, "id"), callerFromContext(r.Context()),
	)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTradeInfoResponse(info))
}

func (s *server) getTradeHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.opts.TradeSvc.GetTradeHistory(
		r.Context(), chi.URLParam(r, "id"), callerFromContext(r.Context()),
	)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"history": lo.Map(history, func(h *domain.TradeHistory, _ int) historyResponse {
			return newHistoryResponse(h)
		}),
	})
}

func (s *server) counterTrade(w http.ResponseWriter, r *http.Request) {
	req := noteRequest{}
	if err := decodeRequest(r, &req, true); err != nil {
		handleError(w, r, err)
		return
	}
	s.writeTrade(w, r)(s.opts.TradeSvc.CounterTrade(
		r.Context(), chi.URLParam(r, "id"), callerFromContext(r.Context()), req.Note,
	))
}

func (s *server) acceptTrade(w http.ResponseWriter, r *http.Request) {
	s.writeTrade(w, r)(s.opts.TradeSvc.AcceptTrade(
		r.Context(), chi.URLParam(r, "id"), callerFromContext(r.Context()),
	))
}

func (s *server) declineCounter(w http.ResponseWriter, r *http.Request) {
	req := reasonRequest{}
	if err := decodeRequest(r, &req, true); err != nil {
		handleError(w, r, err)
		return
	}
	s.writeTrade(w, r)(s.opts.TradeSvc.DeclineCounter(
		r.Context(), chi.URLParam(r, "id"), callerFromContext(r.Context()), req.Reason,
	))
}

func (s *server) deployEscrow(w http.ResponseWriter, r *http.Request) {
	req := escrowRequest{}
	if err := decodeRequest(r, &req, false); err != nil {
		handleError(w, r, err)
		return
	}
	s.writeTrade(w, r)(s.opts.TradeSvc.DeployEscrow(
		r.Context(), chi.URLParam(r, "id"), callerFromContext(r.Context()),
		req.EscrowAddress, req.TxHash,
	))
}

func (s *server) recordDeposit(w http.ResponseWriter, r *http.Request) {
	req := depositRequest{}
	if err := decodeRequest(r, &req, false); err != nil {
		handleError(w, r, err)
		return
	}
	proof := domain.DepositProof{
		NftIDs:       req.NftIDs,
		TokenAmounts: req.TokenAmounts,
	}
	s.writeTrade(w, r)(s.opts.TradeSvc.RecordDeposit(
		r.Context(), chi.URLParam(r, "id"), callerFromContext(r.Context()),
		proof, req.TxHash,
	))
}

func (s *server) finalizeTrade(w http.ResponseWriter, r *http.Request) {
	req := finalizeRequest{}
	if err := decodeRequest(r, &req, false); err != nil {
		handleError(w, r, err)
		return
	}
	s.writeTrade(w, r)(s.opts.TradeSvc.FinalizeTrade(
		r.Context(), chi.URLParam(r, "id"), callerFromContext(r.Context()), req.TxHash,
	))
}

func (s *server) cancelTrade(w http.ResponseWriter, r *http.Request) {
	req := reasonRequest{}
	if err := decodeRequest(r, &req, true); err != nil {
		handleError(w, r, err)
		return
	}
	s.writeTrade(w, r)(s.opts.TradeSvc.CancelTrade(
		r.Context(), chi.URLParam(r, "id"), callerFromContext(r.Context()), req.Reason,
	))
}

func (s *server) postMessage(w http.ResponseWriter, r *http.Request) {
	req := messageRequest{}
	if err := decodeRequest(r, &req, false); err != nil {
		handleError(w, r, err)
		return
	}
	msg, err := s.opts.TradeSvc.PostMessage(
		r.Context(), chi.URLParam(r, "id"), callerFromContext(r.Context()), req.Message,
	)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newMessageResponse(msg))
}

// writeTrade returns a function writing the outcome of a transition.
func (s *server) writeTrade(
	w http.ResponseWriter, r *http.Request,
) func(*trade.TradeInfo, error) {
	return func(info *trade.TradeInfo, err error) {
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newTradeInfoResponse(info))
	}
}

func toDomainItem(item itemRequest, _ int) domain.TradeItem {
	return item.toDomain()
}
