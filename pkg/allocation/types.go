package allocation

import (
	"fmt"
	"strings"
)

// Status is the outcome of an allocation attempt. Deferred means the request
// was parked for retry; Queued means it is waiting in a priority queue.
type Status int

const (
	statusUndefined Status = iota
	StatusSuccess
	StatusPartial
	StatusFailed
	StatusDeferred
	StatusQueued
)

var statusNames = map[Status]string{
	StatusSuccess:  "success",
	StatusPartial:  "partial",
	StatusFailed:   "failed",
	StatusDeferred: "deferred",
	StatusQueued:   "queued",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "undefined"
}

func ParseStatus(s string) (Status, error) {
	for status := StatusSuccess; status <= StatusQueued; status++ {
		if strings.EqualFold(status.String(), strings.TrimSpace(s)) {
			return status, nil
		}
	}
	return statusUndefined, fmt.Errorf("invalid allocation status: %s", s)
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) (err error) {
	*s, err = ParseStatus(string(text))
	return
}
