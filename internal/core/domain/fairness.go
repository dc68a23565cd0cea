package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

const fairnessExponent = 0.7

// BasketItem is a valued entry of a basket.
type BasketItem struct {
	ItemID string
	Value  decimal.Decimal
}

// Basket is what one side offers, reduced to values.
type Basket struct {
	Items       []BasketItem
	TokenAmount decimal.Decimal
}

// Value is the sum of the item values plus the token amount.
func (b Basket) Value() decimal.Decimal {
	total := b.TokenAmount
	for _, it := range b.Items {
		total = total.Add(it.Value)
	}
	return total
}

// BasketFromItems converts a side of the ledger into a basket. NFTs count for
// their estimated value, tokens for their estimated value if any, otherwise
// for their raw amount.
func BasketFromItems(items TradeItems) Basket {
	basket := Basket{TokenAmount: decimal.Zero}
	for _, it := range items {
		if it.IsToken() && it.EstimatedValue.IsZero() {
			basket.TokenAmount = basket.TokenAmount.Add(it.TokenAmount)
			continue
		}
		basket.Items = append(basket.Items, BasketItem{
			ItemID: it.ID,
			Value:  it.EstimatedValue,
		})
	}
	return basket
}

// FairnessScore returns a symmetric score in [0, 1] estimating how balanced
// two baskets are. Two empty baskets are perfectly fair, an empty basket
// against a non empty one is not fair at all.
func FairnessScore(a, b Basket) float64 {
	va, _ := a.Value().Float64()
	vb, _ := b.Value().Float64()
	if va <= 0 && vb <= 0 {
		return 1
	}
	if va <= 0 || vb <= 0 {
		return 0
	}

	ratio := math.Min(va, vb) / math.Max(va, vb)
	return math.Pow(ratio, fairnessExponent)
}
