package scaling

import (
	"time"

	"github.com/google/uuid"

	"github.com/reservoir-project/reservoir/pkg/models"
)

// ActionStatus is the execution state of a scaling action.
type ActionStatus int

const (
	ActionPending ActionStatus = iota
	ActionSuccess
	ActionFailed
)

var actionStatusNames = map[ActionStatus]string{
	ActionPending: "pending",
	ActionSuccess: "success",
	ActionFailed:  "failed",
}

func (s ActionStatus) String() string {
	if name, ok := actionStatusNames[s]; ok {
		return name
	}
	return "pending"
}

func (s ActionStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Action records one scaling decision and its outcome.
type Action struct {
	ID           string              `json:"ID"`
	PolicyName   string              `json:"PolicyName"`
	ResourceType models.ResourceType `json:"ResourceType"`
	Direction    Direction           `json:"Direction"`
	Trigger      TriggerKind         `json:"Trigger"`
	Count        int                 `json:"Count"`
	Status       ActionStatus        `json:"Status"`
	Message      string              `json:"Message,omitempty"`
	CreatedAt    time.Time           `json:"CreatedAt"`
	CompletedAt  time.Time           `json:"CompletedAt,omitempty"`
}

func newAction(
	policyName string,
	resourceType models.ResourceType,
	direction Direction,
	trigger TriggerKind,
	count int,
	now time.Time,
) *Action {
	return &Action{
		ID:           uuid.NewString(),
		PolicyName:   policyName,
		ResourceType: resourceType,
		Direction:    direction,
		Trigger:      trigger,
		Count:        count,
		Status:       ActionPending,
		CreatedAt:    now,
	}
}

// MarkSuccess records the action as completed.
func (a *Action) MarkSuccess(message string, now time.Time) {
	a.Status = ActionSuccess
	a.Message = message
	a.CompletedAt = now
}

// MarkFailed records the action as failed.
func (a *Action) MarkFailed(message string, now time.Time) {
	a.Status = ActionFailed
	a.Message = message
	a.CompletedAt = now
}
