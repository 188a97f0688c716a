package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/abhisek/leveliz/internal/features"
)

// recordSchema validates a JSON dataset before decoding. Score and
// time may be null or absent (imputed later); identity fields may not.
const recordSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["user_id", "grade"],
    "properties": {
      "user_id": {"type": "string", "minLength": 1},
      "avg_score": {"type": ["number", "null"]},
      "avg_time": {"type": ["number", "null"]},
      "grade": {"type": "integer", "minimum": 1},
      "level": {"type": "integer", "minimum": 1, "maximum": 3}
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func datasetSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(recordSchema))
		if err != nil {
			schemaErr = fmt.Errorf("parse dataset schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("dataset.json", doc); err != nil {
			schemaErr = fmt.Errorf("add dataset schema: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile("dataset.json")
	})
	return compiledSchema, schemaErr
}

// LoadJSON reads a JSON array of records, validating the document
// against the dataset schema first.
func LoadJSON(path string, requireLabels bool) ([]features.RawRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}

	schema, err := datasetSchema()
	if err != nil {
		return nil, err
	}

	parsed, err := jsonschema.UnmarshalJSON(strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("dataset is not valid JSON: %w", err)
	}
	if err := schema.Validate(parsed); err != nil {
		return nil, fmt.Errorf("dataset schema validation failed: %w", err)
	}

	var records []features.RawRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}

	if requireLabels {
		for i := range records {
			if records[i].Level == 0 {
				return nil, fmt.Errorf("dataset: row %d (%s) has no level label", i, records[i].UserID)
			}
		}
	}
	return records, nil
}
