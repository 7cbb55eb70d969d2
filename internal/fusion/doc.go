// Package fusion defines the value types exchanged with native filter modules.
//
// Axis, Measurement and Quaternion mirror the C structures of the filter ABI
// field for field: float32 components in declaration order with no padding.
// This package imports nothing internal; every other package builds on it.
//
// Key design constraints:
//   - Values are immutable once produced; pass them by value
//   - JSON tags use snake_case
//   - Non-finite components (NaN, ±Inf) are legal filter output and must survive
//     encoding, so they are written as the strings "NaN", "+Inf" and "-Inf"
//   - Deterministic encoding (MarshalCanonical) is the only input to fingerprints
package fusion
