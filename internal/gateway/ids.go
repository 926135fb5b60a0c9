package gateway

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UUIDSource issues order ids and gateway receipt ids. Receipts combine a
// timestamp with a short owner suffix so they stay unique per attempt
// without a central sequence.
type UUIDSource struct{}

// NewUUIDSource returns the production id source.
func NewUUIDSource() UUIDSource {
	return UUIDSource{}
}

// OrderID returns a fresh opaque order identifier.
func (UUIDSource) OrderID() string {
	return uuid.NewString()
}

// ReceiptID returns a receipt identifier unique to this attempt.
func (UUIDSource) ReceiptID(ownerID string) string {
	suffix := ownerID
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return fmt.Sprintf("rcpt_%d_%s", time.Now().UnixNano(), suffix)
}
