package dto

import (
	"encoding/json"

	"github.com/playtesthq/jobbox/internal/entity"
)

// PublishRequest triggers an async unit of work. OnSuccess, when present,
// schedules a continuation that republishes the follow-up event once the job
// succeeds.
type PublishRequest struct {
	RoutingKey     string            `json:"routing_key"`
	Payload        json.RawMessage   `json:"payload"`
	Headers        map[string]string `json:"headers,omitempty"`
	IdempotencyKey string            `json:"idempotency_key,omitempty"`
	OnSuccess      *entity.FollowUp  `json:"on_success,omitempty"`
}
