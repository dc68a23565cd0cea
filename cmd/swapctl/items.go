package main

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type item struct {
	NftID          string          `json:"nftId,omitempty"`
	TokenAddress   string          `json:"tokenAddress,omitempty"`
	TokenAmount    decimal.Decimal `json:"tokenAmount"`
	EstimatedValue decimal.Decimal `json:"estimatedValue"`
}

// parseItem parses either nft:<id>[:<value>] or
// token:<address>:<amount>[:<value>].
func parseItem(str string) (item, error) {
	parts := strings.Split(str, ":")
	switch parts[0] {
	case "nft":
		if len(parts) < 2 || len(parts) > 3 || parts[1] == "" {
			return item{}, fmt.Errorf("invalid nft item %q", str)
		}
		it := item{NftID: parts[1]}
		if len(parts) == 3 {
			value, err := decimal.NewFromString(parts[2])
			if err != nil {
				return item{}, fmt.Errorf("invalid value of item %q", str)
			}
			it.EstimatedValue = value
		}
		return it, nil
	case "token":
		if len(parts) < 3 || len(parts) > 4 || parts[1] == "" {
			return item{}, fmt.Errorf("invalid token item %q", str)
		}
		amount, err := decimal.NewFromString(parts[2])
		if err != nil {
			return item{}, fmt.Errorf("invalid amount of item %q", str)
		}
		it := item{TokenAddress: parts[1], TokenAmount: amount}
		if len(parts) == 4 {
			value, err := decimal.NewFromString(parts[3])
			if err != nil {
				return item{}, fmt.Errorf("invalid value of item %q", str)
			}
			it.EstimatedValue = value
		}
		return it, nil
	default:
		return item{}, fmt.Errorf("unknown item kind in %q, must be nft or token", str)
	}
}

func parseItems(list []string) ([]item, error) {
	items := make([]item, 0, len(list))
	for _, str := range list {
		it, err := parseItem(str)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

// parseTokenAmounts parses a list of <address>:<amount>.
func parseTokenAmounts(list []string) (map[string]decimal.Decimal, error) {
	amounts := make(map[string]decimal.Decimal, len(list))
	for _, str := range list {
		parts := strings.Split(str, ":")
		if len(parts) != 2 || parts[0] == "" {
			return nil, fmt.Errorf("invalid token amount %q", str)
		}
		amount, err := decimal.NewFromString(parts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid token amount %q", str)
		}
		amounts[parts[0]] = amounts[parts[0]].Add(amount)
	}
	return amounts, nil
}
