package domain

import "github.com/shopspring/decimal"

type InventoryItem struct {
	ID       int64
	StoreID  int64
	Name     string
	Quantity int
	Price    decimal.Decimal
}

// StoreCheck is the outcome of asking the store service whether a store exists.
type StoreCheck int

const (
	StoreFound StoreCheck = iota
	StoreMissing
	StoreUnreachable
)

func (c StoreCheck) String() string {
	switch c {
	case StoreFound:
		return "found"
	case StoreMissing:
		return "missing"
	default:
		return "unreachable"
	}
}
