package fusion

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content fingerprints.
// Version suffix enables future algorithm migration.
const (
	DomainMeasurement = "madgwhat/measurement/v1"
	DomainOutcomes    = "madgwhat/outcomes/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// MeasurementFingerprint identifies a measurement by content. Two runs with
// equal fingerprints fed their modules bit-identical input.
func MeasurementFingerprint(m Measurement) string {
	// A Measurement is always encodable: float32 fields only.
	data, err := MarshalCanonical(m)
	if err != nil {
		panic(fmt.Sprintf("MeasurementFingerprint: %v", err))
	}
	return hashWithDomain(DomainMeasurement, data)
}

// OutcomesFingerprint identifies a sorted list of outcome records (as produced
// by the aggregator's canonical form). Callers must pass records in their
// final presentation order; the fingerprint is order-sensitive.
func OutcomesFingerprint(records []any) (string, error) {
	data, err := MarshalCanonical(records)
	if err != nil {
		return "", fmt.Errorf("OutcomesFingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainOutcomes, data), nil
}
