// Package cischema validates raw CI build-result payloads against a JSON
// schema before they are bound into typed DTOs, so malformed notifications are
// rejected up front with a retryable error for the CI connector.
package cischema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const buildResultSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["participation_id", "commit_hash", "build_timestamp", "test_results"],
  "properties": {
    "participation_id": {"type": "integer", "minimum": 1},
    "commit_hash": {"type": "string", "minLength": 7, "maxLength": 40, "pattern": "^[0-9a-fA-F]+$"},
    "build_timestamp": {"type": "string", "format": "date-time"},
    "test_results": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "passed"],
        "properties": {
          "name": {"type": "string", "minLength": 1, "maxLength": 255},
          "passed": {"type": "boolean"},
          "message": {"type": "string"}
        }
      }
    },
    "static_analysis_issues": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["tool", "rule", "file_path"],
        "properties": {
          "tool": {"type": "string", "minLength": 1},
          "rule": {"type": "string", "minLength": 1},
          "file_path": {"type": "string", "minLength": 1},
          "start_line": {"type": "integer", "minimum": 0},
          "end_line": {"type": "integer", "minimum": 0},
          "message": {"type": "string"},
          "category": {"type": "string"}
        }
      }
    },
    "build_logs": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "time": {"type": "string", "format": "date-time"},
          "log": {"type": "string"}
        }
      }
    }
  }
}`

var compiled = jsonschema.MustCompileString("build_result.json", buildResultSchema)

// ValidateBuildResult checks a raw notification body against the schema.
func ValidateBuildResult(body []byte) error {
	var payload interface{}
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil {
		return fmt.Errorf("notification is not valid json: %w", err)
	}

	if err := compiled.Validate(payload); err != nil {
		return fmt.Errorf("notification does not match schema: %w", err)
	}

	return nil
}
