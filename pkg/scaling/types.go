package scaling

import (
	"fmt"
	"strings"
)

// Direction is which way a scaling decision moves capacity.
type Direction int

const (
	DirectionNone Direction = iota
	DirectionUp
	DirectionDown
)

var directionNames = map[Direction]string{
	DirectionNone: "none",
	DirectionUp:   "up",
	DirectionDown: "down",
}

func (d Direction) String() string {
	if name, ok := directionNames[d]; ok {
		return name
	}
	return "none"
}

func ParseDirection(s string) (Direction, error) {
	for direction := DirectionNone; direction <= DirectionDown; direction++ {
		if strings.EqualFold(direction.String(), strings.TrimSpace(s)) {
			return direction, nil
		}
	}
	return DirectionNone, fmt.Errorf("invalid scaling direction: %s", s)
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(text []byte) (err error) {
	*d, err = ParseDirection(string(text))
	return
}

// TriggerKind records what prompted a scaling action.
type TriggerKind int

const (
	triggerUndefined TriggerKind = iota
	TriggerUtilization
	TriggerContention
	TriggerWaitTime
	TriggerManual
	TriggerScheduled
)

var triggerKindNames = map[TriggerKind]string{
	TriggerUtilization: "utilization",
	TriggerContention:  "contention",
	TriggerWaitTime:    "wait_time",
	TriggerManual:      "manual",
	TriggerScheduled:   "scheduled",
}

func (t TriggerKind) String() string {
	if name, ok := triggerKindNames[t]; ok {
		return name
	}
	return "undefined"
}

func ParseTriggerKind(s string) (TriggerKind, error) {
	for kind := TriggerUtilization; kind <= TriggerScheduled; kind++ {
		if strings.EqualFold(kind.String(), strings.TrimSpace(s)) {
			return kind, nil
		}
	}
	return triggerUndefined, fmt.Errorf("invalid scaling trigger: %s", s)
}

func (t TriggerKind) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TriggerKind) UnmarshalText(text []byte) (err error) {
	*t, err = ParseTriggerKind(string(text))
	return
}
