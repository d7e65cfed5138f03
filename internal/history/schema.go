package history

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// entrySchema describes the persisted list
const entrySchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "text", "lang", "date"],
    "properties": {
      "id":   {"type": "integer"},
      "text": {"type": "string"},
      "lang": {"type": "string", "minLength": 1},
      "date": {"type": "string"}
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(entrySchema)

// decode validates data against entrySchema and unmarshals it
func decode(data []byte) ([]Entry, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("schema violation: %s", strings.Join(msgs, "; "))
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode: %w", err)
	}
	return entries, nil
}
