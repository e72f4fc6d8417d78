package persistence

import (
	"encoding/json"
	"fmt"
)

// MarshalCachedCommitment serializes a CachedCommitment to JSON bytes.
func MarshalCachedCommitment(cc *CachedCommitment) ([]byte, error) {
	if cc == nil {
		return nil, fmt.Errorf("cannot marshal nil CachedCommitment")
	}
	return json.Marshal(cc)
}

// UnmarshalCachedCommitment deserializes a CachedCommitment from JSON bytes.
func UnmarshalCachedCommitment(data []byte) (*CachedCommitment, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot unmarshal empty data")
	}

	var cc CachedCommitment
	if err := json.Unmarshal(data, &cc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON to CachedCommitment: %w", err)
	}

	return &cc, nil
}
