package validate

import (
	"errors"
	"fmt"
	"regexp"
)

const (
	MaxRoutingKeyLen = 255

	DefaultWaitSeconds = 30
	MaxWaitSeconds     = 60
)

// Routing keys are dot-separated words, e.g. "api.map.create".
var routingKeyPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+(\.[a-zA-Z0-9_-]+)*$`)

var ErrInvalidRoutingKey = errors.New("invalid routing key")

func RoutingKey(key string) error {
	if key == "" || len(key) > MaxRoutingKeyLen {
		return fmt.Errorf("routing key must be 1-%d characters: %w", MaxRoutingKeyLen, ErrInvalidRoutingKey)
	}

	if !routingKeyPattern.MatchString(key) {
		return ErrInvalidRoutingKey
	}

	return nil
}
