// Package schema validates imported activity tables against a JSON schema
// before they reach the model layer.
package schema

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const activityTableSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name", "activities"],
  "properties": {
    "name": {"type": "string", "minLength": 3},
    "description": {"type": "string"},
    "pool_name": {"type": "string"},
    "activities": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "name", "sequence_index"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string", "minLength": 1},
          "description": {"type": "string"},
          "responsible": {"type": "string"},
          "duration_minutes": {"type": "number", "minimum": 0},
          "automated": {"type": "boolean"},
          "sequence_index": {"type": "integer", "minimum": 0},
          "decision": {
            "type": "object",
            "required": ["question", "branches"],
            "properties": {
              "question": {"type": "string", "minLength": 1},
              "branches": {
                "type": "array",
                "minItems": 2,
                "items": {"type": "string", "minLength": 1}
              }
            }
          }
        }
      }
    }
  }
}`

// ValidateActivityTable checks an imported process document against the
// activity table schema.
func ValidateActivityTable(document map[string]any) error {
	schemaLoader := gojsonschema.NewStringLoader(activityTableSchema)
	dataLoader := gojsonschema.NewGoLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	if !result.Valid() {
		descriptions := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			descriptions = append(descriptions, desc.String())
		}

		return fmt.Errorf("validation errors: %s", strings.Join(descriptions, "; "))
	}

	return nil
}
