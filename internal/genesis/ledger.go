package genesis

import (
	"errors"
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// ErrSupplyExceeded is returned when credited balances exceed the max supply.
var ErrSupplyExceeded = errors.New("genesis credits exceed max supply")

// Credit is a single balance seeded into genesis.
type Credit struct {
	Account string   `json:"account"`
	Amount  math.Int `json:"amount"`
}

// Ledger accumulates genesis credits. The genesis supply is the sum of every
// credit, validator stake credits included.
type Ledger struct {
	denom     string
	maxSupply math.Int
	credits   []Credit
}

// NewLedger creates an empty ledger for denom capped at maxSupply.
func NewLedger(denom string, maxSupply math.Int) *Ledger {
	return &Ledger{denom: denom, maxSupply: maxSupply}
}

// Credit records amount for account.
func (l *Ledger) Credit(account string, amount math.Int) {
	l.credits = append(l.credits, Credit{Account: account, Amount: amount})
}

// Credits returns the recorded credits in insertion order.
func (l *Ledger) Credits() []Credit {
	return append([]Credit(nil), l.credits...)
}

// Total returns the sum of all credits.
func (l *Ledger) Total() math.Int {
	total := math.ZeroInt()
	for _, c := range l.credits {
		total = total.Add(c.Amount)
	}
	return total
}

// BalanceOf returns the summed credits of account.
func (l *Ledger) BalanceOf(account string) math.Int {
	total := math.ZeroInt()
	for _, c := range l.credits {
		if c.Account == account {
			total = total.Add(c.Amount)
		}
	}
	return total
}

// Check verifies every credit is positive and the total fits the max supply.
func (l *Ledger) Check() error {
	for _, c := range l.credits {
		if !c.Amount.IsPositive() {
			return fmt.Errorf("non-positive credit %s for %s", c.Amount, c.Account)
		}
	}
	if total := l.Total(); total.GT(l.maxSupply) {
		return fmt.Errorf("%w: total %s > max %s", ErrSupplyExceeded, l.Coin(total), l.Coin(l.maxSupply))
	}
	return nil
}

// Coin renders amount in the ledger denom as the daemon expects it.
func (l *Ledger) Coin(amount math.Int) string {
	return sdk.Coin{Denom: l.denom, Amount: amount}.String()
}
