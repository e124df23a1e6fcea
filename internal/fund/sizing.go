package fund

import (
	"math"

	"OptionSentinel/internal/model"
)

// DefaultAllocation is the share of available cash committed per trade.
const DefaultAllocation = 0.2

// Size computes how many contracts of the selected candidate fit in
// cash*allocation. A non-positive or non-finite price sizes to zero.
func Size(account model.AccountState, selected *model.ScoredCandidate, allocation float64) model.TradeDecision {
	d := model.TradeDecision{
		Selected:         selected,
		AvailableFunds:   account.Cash,
		Allocation:       allocation,
		InvestmentAmount: account.Cash * allocation,
	}
	if selected == nil {
		return d
	}

	price := selected.Candidate.OptionPrice
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return d
	}
	if d.InvestmentAmount <= 0 || math.IsNaN(d.InvestmentAmount) {
		return d
	}

	perContract := price * model.ContractMultiplier
	d.ContractCount = int64(math.Floor(d.InvestmentAmount / perContract))
	return d
}
