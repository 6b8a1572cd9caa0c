// internal/scraper/json.go
package scraper

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// decodeJSON decodes a payload keeping numbers as json.Number, so field
// values render exactly as the API sent them
func decodeJSON(body []byte) (interface{}, error) {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	var data interface{}
	if err := decoder.Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode JSON payload: %w", err)
	}
	if _, err := decoder.Token(); err != io.EOF {
		return nil, fmt.Errorf("failed to decode JSON payload: trailing data")
	}
	return data, nil
}
