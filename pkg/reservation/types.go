package reservation

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of a reservation. Pending moves to
// Confirmed, Partial or Failed; Confirmed and Partial move to Released or
// Expired. Released and Expired are terminal.
type Status int

const (
	statusUndefined Status = iota
	StatusPending
	StatusConfirmed
	StatusPartial
	StatusFailed
	StatusReleased
	StatusExpired
)

var statusNames = map[Status]string{
	StatusPending:   "pending",
	StatusConfirmed: "confirmed",
	StatusPartial:   "partial",
	StatusFailed:    "failed",
	StatusReleased:  "released",
	StatusExpired:   "expired",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "undefined"
}

// IsTerminal reports whether the status can never change again.
func (s Status) IsTerminal() bool {
	return s == StatusReleased || s == StatusExpired
}

func ParseStatus(s string) (Status, error) {
	for status := StatusPending; status <= StatusExpired; status++ {
		if strings.EqualFold(status.String(), strings.TrimSpace(s)) {
			return status, nil
		}
	}
	return statusUndefined, fmt.Errorf("invalid reservation status: %s", s)
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) (err error) {
	*s, err = ParseStatus(string(text))
	return
}

// Strategy selects the resource-matching algorithm used when creating a
// reservation.
type Strategy int

const (
	strategyUndefined Strategy = iota
	// StrategyGreedy takes the candidate with the most free capacity.
	StrategyGreedy
	// StrategyBalanced spreads load by preferring the least utilized candidate.
	StrategyBalanced
	// StrategyOptimized scores candidates by utilization and preference.
	StrategyOptimized
	// StrategyPriority processes requirements most urgent first and favors
	// preferred resources.
	StrategyPriority
)

var strategyNames = map[Strategy]string{
	StrategyGreedy:    "greedy",
	StrategyBalanced:  "balanced",
	StrategyOptimized: "optimized",
	StrategyPriority:  "priority",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return "undefined"
}

func ParseStrategy(s string) (Strategy, error) {
	for strategy := StrategyGreedy; strategy <= StrategyPriority; strategy++ {
		if strings.EqualFold(strategy.String(), strings.TrimSpace(s)) {
			return strategy, nil
		}
	}
	return strategyUndefined, fmt.Errorf("invalid reservation strategy: %s", s)
}

func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Strategy) UnmarshalText(text []byte) (err error) {
	*s, err = ParseStrategy(string(text))
	return
}
