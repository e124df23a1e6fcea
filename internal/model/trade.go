package model

import "time"

// ContractMultiplier is the number of shares controlled by one option contract.
const ContractMultiplier = 100

// AccountState is the brokerage account view used for sizing.
type AccountState struct {
	Cash float64
}

// TradeDecision is the sizing result for the selected candidate.
type TradeDecision struct {
	Selected         *ScoredCandidate
	AvailableFunds   float64
	Allocation       float64
	InvestmentAmount float64
	ContractCount    int64
}

// OrderResult is the brokerage acknowledgement of a submitted order.
type OrderResult struct {
	ID          string
	Status      string
	Symbol      string
	Qty         int64
	LimitPrice  float64
	SubmittedAt time.Time
}

// Stage is a step of the trading cycle.
type Stage string

const (
	StageIdle         Stage = "IDLE"
	StageFetchingData Stage = "FETCHING_DATA"
	StageScoring      Stage = "SCORING"
	StageSelecting    Stage = "SELECTING"
	StageSizing       Stage = "SIZING"
	StageSubmitting   Stage = "SUBMITTING"
	StageSkipped      Stage = "SKIPPED"
	StageNotifying    Stage = "NOTIFYING"
)

// OutcomeStatus summarizes how a cycle ended.
type OutcomeStatus string

const (
	OutcomeOrdered OutcomeStatus = "ORDERED"
	OutcomeSkipped OutcomeStatus = "SKIPPED"
	OutcomeFailed  OutcomeStatus = "FAILED"
)

// CycleOutcome is the result of one trading cycle.
type CycleOutcome struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Stage      Stage // last stage reached before returning to idle
	Status     OutcomeStatus
	Reason     string
	Scored     []ScoredCandidate
	Decision   *TradeDecision
	Order      *OrderResult
	Err        error
}
