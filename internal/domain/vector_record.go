package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// JSONMap is a custom type for storing arbitrary key-value metadata as JSONB.
type JSONMap map[string]any

// Value implements the driver.Valuer interface for database serialization.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (m *JSONMap) Scan(value any) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan JSONMap")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, m)
}

// VectorRecord represents one embedded text unit inside a collection's
// physical table. The owning collection is implicit in the table the record
// lives in; there is no cross-collection foreign key. The vector length
// always equals the collection dimension, enforced before any insert.
type VectorRecord struct {
	ID            uint      `json:"id"`
	Content       string    `json:"content"`
	Vector        []float32 `json:"vector,omitempty"`
	ExtraMetadata JSONMap   `json:"extra_metadata,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ScoredRecord is a vector record paired with a similarity score in [0, 1].
type ScoredRecord struct {
	VectorRecord
	Similarity float64 `json:"similarity"`
}
