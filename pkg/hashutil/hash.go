// Package hashutil computes the stable fingerprints the workflow's hash
// guards compare: requirements, offer line items, and whole events.
// Hashes must be deterministic across processes and restarts, so the key
// is fixed for the life of the schema.
package hashutil

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/minio/highwayhash"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
)

// Fixed 32-byte HighwayHash key. Changing it invalidates every persisted
// hash guard, forcing re-evaluation on all open events.
var hashKey, _ = hex.DecodeString("9d2f4c81a6e35b07c4d9128e6f0a37b5518ec0d2a94f6b38071c5e92d3a84f60")

// Sum hashes raw bytes to a fixed-width hex string.
func Sum(data []byte) string {
	return fmt.Sprintf("%016x", highwayhash.Sum64(data, hashKey))
}

// canonical renders v as JSON with object keys sorted, so structurally
// equal values always serialize to the same bytes.
func canonical(v any) []byte {
	raw, err := json.Marshal(v)
	if err != nil {
		return []byte(fmt.Sprintf("!marshal:%v", err))
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return raw
	}
	out, err := json.Marshal(generic)
	if err != nil {
		return raw
	}
	return out
}

// SumCanonical hashes any JSON-serializable value in canonical form.
func SumCanonical(v any) string {
	return Sum(canonical(v))
}

// RequirementsHash fingerprints the client-stated requirements. Equal
// requirements always produce equal hashes regardless of how they were
// assembled.
func RequirementsHash(r models.Requirements) string {
	return SumCanonical(r)
}

// OfferHash fingerprints an offer's line items in order.
func OfferHash(items []models.LineItem) string {
	return SumCanonical(items)
}

// EventFingerprint hashes the whole persisted form of an event. Two
// fingerprints are equal iff no field differs.
func EventFingerprint(e *models.Event) string {
	return SumCanonical(e)
}
