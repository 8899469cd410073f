package models

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/supportos/complaintstack/internal/enum"
)

// JSONMap represents a JSON object that can be stored in PostgreSQL
type JSONMap map[string]interface{}

// Value implements the driver.Valuer interface for JSONMap
func (j JSONMap) Value() (driver.Value, error) {
	return json.Marshal(j)
}

// Scan implements the sql.Scanner interface for JSONMap
func (j *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSONMap)
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Entity is one typed value the analyzer extracted from message text
type Entity struct {
	Type  enum.EntityType `json:"type"`
	Value string          `json:"value"`
}

// EntityList stores extracted entities as a JSONB column
type EntityList []Entity

func (e EntityList) Value() (driver.Value, error) {
	return json.Marshal(e)
}

func (e *EntityList) Scan(value interface{}) error {
	if value == nil {
		*e = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, e)
}
