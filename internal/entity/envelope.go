package entity

import (
	"encoding/json"

	"github.com/google/uuid"
)

const (
	// HeaderIdempotencyKey carries the application idempotency key a consumer
	// must claim before acting on the message.
	HeaderIdempotencyKey = "X-Idempotency-Key"

	// HeaderTestMode, when set to TestModeEnabled, makes the publisher skip
	// all I/O and return a synthetic succeeded status.
	HeaderTestMode = "X-Test-Mode"

	// HeaderOriginJob is added to follow-on events published by the
	// continuation runner, pointing back at the job that triggered them.
	HeaderOriginJob = "X-Origin-Job-Id"

	TestModeEnabled = "1"
)

// Envelope is the wire-level message handed to the broker. CorrelationID is
// always the id of the job row created alongside the publish.
type Envelope struct {
	RoutingKey    string
	CorrelationID uuid.UUID
	Headers       map[string]string
	Body          []byte
}

// FollowUp describes the secondary event a continuation publishes once its
// originating job succeeds.
type FollowUp struct {
	RoutingKey string          `json:"routing_key"`
	Payload    json.RawMessage `json:"payload"`
}
