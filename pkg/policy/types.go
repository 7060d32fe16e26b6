package policy

import (
	"fmt"
	"strings"
)

// Type identifies an allocation policy flavor.
type Type int

const (
	typeUndefined Type = iota
	TypeFair
	TypePriority
	TypeQuota
	TypeWeighted
	TypeCustom
)

var typeNames = map[Type]string{
	TypeFair:     "fair",
	TypePriority: "priority",
	TypeQuota:    "quota",
	TypeWeighted: "weighted",
	TypeCustom:   "custom",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "undefined"
}

func ParseType(s string) (Type, error) {
	for t := TypeFair; t <= TypeCustom; t++ {
		if strings.EqualFold(t.String(), strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return typeUndefined, fmt.Errorf("invalid policy type: %s", s)
}

func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Type) UnmarshalText(text []byte) (err error) {
	*t, err = ParseType(string(text))
	return
}
