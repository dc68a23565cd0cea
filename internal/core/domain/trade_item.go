package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TradeItem is one asset offered by one side of a trade: either an NFT
// reference or an amount of a fungible token.
type TradeItem struct {
	ID           string
	TradeID      string
	Side         Side
	NftID        string
	TokenAmount  decimal.Decimal
	TokenAddress string
	// EstimatedValue is the value used to score the fairness of the trade.
	EstimatedValue decimal.Decimal
}

func (i TradeItem) IsNft() bool {
	return i.NftID != ""
}

func (i TradeItem) IsToken() bool {
	return i.TokenAddress != ""
}

func (i TradeItem) validate() error {
	if i.IsNft() == i.IsToken() {
		return fmt.Errorf(
			"%w: item must reference either an nft or a token amount", ErrInvalidItem,
		)
	}
	if i.IsToken() {
		if !i.TokenAmount.IsPositive() {
			return fmt.Errorf("%w: token amount must be positive", ErrInvalidItem)
		}
		if _, err := NormalizeAddress(i.TokenAddress); err != nil {
			return fmt.Errorf("%w: token address %s", ErrInvalidItem, i.TokenAddress)
		}
	}
	if i.EstimatedValue.IsNegative() {
		return fmt.Errorf("%w: estimated value must not be negative", ErrInvalidItem)
	}
	if !i.Side.IsValid() {
		return fmt.Errorf("%w: unknown side %s", ErrInvalidItem, i.Side)
	}
	return nil
}

func newItem(tradeID string, side Side, item TradeItem) TradeItem {
	item.ID = uuid.New().String()
	item.TradeID = tradeID
	item.Side = side
	return item
}

// TradeItems is the item ledger of a trade.
type TradeItems []TradeItem

// ForSide returns the items of the given side, in offer order.
func (items TradeItems) ForSide(side Side) TradeItems {
	filtered := make(TradeItems, 0, len(items))
	for _, it := range items {
		if it.Side == side {
			filtered = append(filtered, it)
		}
	}
	return filtered
}

func (items TradeItems) Validate() error {
	for _, it := range items {
		if err := it.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (items TradeItems) normalize() {
	for i := range items {
		if items[i].IsToken() {
			items[i].TokenAddress = strings.ToLower(items[i].TokenAddress)
		}
	}
}

// IsDepositComplete returns true only if every item is covered by the proof.
func (items TradeItems) IsDepositComplete(proof DepositProof) bool {
	return len(items.Missing(proof)) <= 0
}

// Missing returns the items not covered by the proof. An NFT item is covered
// if its id is listed in the proof. Token items are covered if, for their
// token address, the proof supplies at least the sum of the amounts required
// by the items.
func (items TradeItems) Missing(proof DepositProof) TradeItems {
	nfts := make(map[string]struct{}, len(proof.NftIDs))
	for _, id := range proof.NftIDs {
		nfts[id] = struct{}{}
	}
	supplied := proof.normalizedAmounts()

	required := make(map[string]decimal.Decimal)
	for _, it := range items {
		if it.IsToken() {
			addr := strings.ToLower(it.TokenAddress)
			required[addr] = required[addr].Add(it.TokenAmount)
		}
	}

	missing := make(TradeItems, 0)
	for _, it := range items {
		if it.IsNft() {
			if _, ok := nfts[it.NftID]; !ok {
				missing = append(missing, it)
			}
			continue
		}
		addr := strings.ToLower(it.TokenAddress)
		amount, ok := supplied[addr]
		if !ok || amount.LessThan(required[addr]) {
			missing = append(missing, it)
		}
	}
	return missing
}

// DepositProof is what a party reports to have deposited into the escrow.
type DepositProof struct {
	NftIDs       []string
	TokenAmounts map[string]decimal.Decimal
}

func (p DepositProof) normalizedAmounts() map[string]decimal.Decimal {
	amounts := make(map[string]decimal.Decimal, len(p.TokenAmounts))
	for addr, amount := range p.TokenAmounts {
		key := strings.ToLower(strings.TrimSpace(addr))
		amounts[key] = amounts[key].Add(amount)
	}
	return amounts
}

// IncompleteDepositError lists the items a deposit proof failed to cover.
type IncompleteDepositError struct {
	Side    Side
	Missing TradeItems
}

func (e *IncompleteDepositError) Error() string {
	ids := make([]string, 0, len(e.Missing))
	for _, it := range e.Missing {
		if it.IsNft() {
			ids = append(ids, it.NftID)
		} else {
			ids = append(ids, fmt.Sprintf("%s %s", it.TokenAmount, it.TokenAddress))
		}
	}
	return fmt.Sprintf(
		"%s: %s side is missing %s",
		ErrIncompleteDeposit, strings.ToLower(string(e.Side)), strings.Join(ids, ", "),
	)
}

func (e *IncompleteDepositError) Unwrap() error {
	return ErrIncompleteDeposit
}
