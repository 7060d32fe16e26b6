package pooling

import (
	"fmt"
	"strings"
)

// Strategy controls how a pool manages its membership over time.
type Strategy int

const (
	strategyUndefined Strategy = iota
	// StrategyStatic pools keep a fixed membership.
	StrategyStatic
	// StrategyDynamic pools accept new members up to their maximum size.
	StrategyDynamic
	// StrategyElastic pools grow and shrink with demand, evicting idle
	// members down to their minimum size.
	StrategyElastic
)

var strategyNames = map[Strategy]string{
	StrategyStatic:  "static",
	StrategyDynamic: "dynamic",
	StrategyElastic: "elastic",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return "undefined"
}

func ParseStrategy(s string) (Strategy, error) {
	for strategy := StrategyStatic; strategy <= StrategyElastic; strategy++ {
		if strings.EqualFold(strategy.String(), strings.TrimSpace(s)) {
			return strategy, nil
		}
	}
	return strategyUndefined, fmt.Errorf("invalid pool strategy: %s", s)
}

func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Strategy) UnmarshalText(text []byte) (err error) {
	*s, err = ParseStrategy(string(text))
	return
}
