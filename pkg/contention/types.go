package contention

import (
	"fmt"
	"strings"
)

// Severity grades how far demand outstrips supply for one resource type.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

var severityNames = map[Severity]string{
	SeverityNone:     "none",
	SeverityLow:      "low",
	SeverityMedium:   "medium",
	SeverityHigh:     "high",
	SeverityCritical: "critical",
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return "none"
}

func ParseSeverity(s string) (Severity, error) {
	for severity := SeverityNone; severity <= SeverityCritical; severity++ {
		if strings.EqualFold(severity.String(), strings.TrimSpace(s)) {
			return severity, nil
		}
	}
	return SeverityNone, fmt.Errorf("invalid contention severity: %s", s)
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(text []byte) (err error) {
	*s, err = ParseSeverity(string(text))
	return
}

// ResolutionStrategy is the approach used to resolve a contention event.
type ResolutionStrategy int

const (
	strategyUndefined ResolutionStrategy = iota
	// StrategyWait lets the contention clear itself as holds are released.
	StrategyWait
	// StrategyPriority serves the highest priority competitor first.
	StrategyPriority
	// StrategyPreempt takes capacity back from lower priority holders.
	StrategyPreempt
	// StrategyScale brings additional capacity online.
	StrategyScale
	// StrategyRedistribute rebalances existing holds across resources.
	StrategyRedistribute
)

var resolutionStrategyNames = map[ResolutionStrategy]string{
	StrategyWait:         "wait",
	StrategyPriority:     "priority",
	StrategyPreempt:      "preempt",
	StrategyScale:        "scale",
	StrategyRedistribute: "redistribute",
}

func (s ResolutionStrategy) String() string {
	if name, ok := resolutionStrategyNames[s]; ok {
		return name
	}
	return "undefined"
}

func ParseResolutionStrategy(s string) (ResolutionStrategy, error) {
	for strategy := StrategyWait; strategy <= StrategyRedistribute; strategy++ {
		if strings.EqualFold(strategy.String(), strings.TrimSpace(s)) {
			return strategy, nil
		}
	}
	return strategyUndefined, fmt.Errorf("invalid resolution strategy: %s", s)
}

func (s ResolutionStrategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *ResolutionStrategy) UnmarshalText(text []byte) (err error) {
	*s, err = ParseResolutionStrategy(string(text))
	return
}
