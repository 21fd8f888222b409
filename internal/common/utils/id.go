// Package utils provides small helpers shared across webhookmq: consumer
// identity generation and bounded retry.
package utils

import (
	"fmt"

	"github.com/google/uuid"
)

// GenerateConsumerName generates a unique consumer identity for a Redis
// consumer group, in the format "prefix-uuid". Consumer names must be unique
// per process so that concurrently running consumers do not steal each
// other's pending entries.
func GenerateConsumerName(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}
