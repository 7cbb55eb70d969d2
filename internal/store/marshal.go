package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/roach88/madgwhat/internal/fusion"
)

// marshalMeasurement converts a Measurement to canonical JSON TEXT for storage.
func marshalMeasurement(m fusion.Measurement) (string, error) {
	data, err := fusion.MarshalCanonical(m)
	if err != nil {
		return "", fmt.Errorf("marshal measurement: %w", err)
	}
	return string(data), nil
}

func unmarshalMeasurement(data string) (fusion.Measurement, error) {
	var m fusion.Measurement
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return fusion.Measurement{}, fmt.Errorf("unmarshal measurement: %w", err)
	}
	return m, nil
}

// marshalQuaternion returns NULL for an absent result.
func marshalQuaternion(q *fusion.Quaternion) (sql.NullString, error) {
	if q == nil {
		return sql.NullString{}, nil
	}
	data, err := fusion.MarshalCanonical(*q)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal quaternion: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalQuaternion(data sql.NullString) (*fusion.Quaternion, error) {
	if !data.Valid {
		return nil, nil
	}
	var q fusion.Quaternion
	if err := json.Unmarshal([]byte(data.String), &q); err != nil {
		return nil, fmt.Errorf("unmarshal quaternion: %w", err)
	}
	return &q, nil
}

// Seeds are uint64 and SQLite integers are signed, so they are stored as
// decimal text.
func marshalSeed(seed *uint64) sql.NullString {
	if seed == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: strconv.FormatUint(*seed, 10), Valid: true}
}

func unmarshalSeed(data sql.NullString) (*uint64, error) {
	if !data.Valid {
		return nil, nil
	}
	seed, err := strconv.ParseUint(data.String, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("unmarshal seed: %w", err)
	}
	return &seed, nil
}
