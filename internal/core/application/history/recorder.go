package history

import (
	"context"
	"fmt"

	"github.com/nftswap/swapd/internal/core/domain"
	"github.com/nftswap/swapd/internal/core/ports"
)

// Recorder appends the audit trail of trades. Every entry is mirrored by a
// SYSTEM message so that conversations can render transitions inline.
type Recorder struct {
	repoManager ports.RepoManager
}

func NewRecorder(repoManager ports.RepoManager) (*Recorder, error) {
	if repoManager == nil {
		return nil, fmt.Errorf("missing repo manager")
	}
	return &Recorder{repoManager}, nil
}

// Append writes the history entry of the given change along with its SYSTEM
// message. It must be called with the context of the transaction that
// persists the trade status, so that status and history never diverge.
func (r *Recorder) Append(
	ctx context.Context, tradeID, userID string, change domain.StatusChange,
) (*domain.TradeHistory, *domain.TradeMessage, error) {
	entry := domain.NewTradeHistory(tradeID, userID, change)
	if err := r.repoManager.HistoryRepository().AddHistory(ctx, entry); err != nil {
		return nil, nil, fmt.Errorf("failed to append %s history: %w", change.Action, err)
	}

	msg := domain.NewSystemMessage(entry)
	if err := r.repoManager.MessageRepository().AddMessage(ctx, msg); err != nil {
		return nil, nil, fmt.Errorf("failed to add %s system message: %w", change.Action, err)
	}
	return entry, msg, nil
}
