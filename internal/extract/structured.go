// internal/extract/structured.go
package extract

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/valpere/tatooine/pkg/types"
)

// ExtractItem extracts one field from a decoded item. Falsy values (nil,
// false, "", zero) are reported as missing, so a genuine 0 or empty string
// cannot be told apart from an absent path.
func ExtractItem(item interface{}, rule types.FieldRule) (string, bool) {
	value, ok := Resolve(rule.Value, item)
	if !ok || IsFalsy(value) {
		return "", false
	}
	return rule.Format(Stringify(value)), true
}

// IsFalsy reports whether value counts as empty when extracting fields
func IsFalsy(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case bool:
		return !v
	case string:
		return v == ""
	case json.Number:
		f, err := v.Float64()
		return err == nil && (f == 0 || math.IsNaN(f))
	case float64:
		return v == 0 || math.IsNaN(v)
	case float32:
		return v == 0 || math.IsNaN(float64(v))
	case int:
		return v == 0
	case int64:
		return v == 0
	case int32:
		return v == 0
	case uint64:
		return v == 0
	case uint:
		return v == 0
	default:
		return false
	}
}

// Stringify renders a decoded value as field text. Scalars keep their
// natural text form, objects and lists are encoded as compact JSON.
func Stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int, int64, int32, uint, uint64:
		return fmt.Sprintf("%d", v)
	case map[string]interface{}, []interface{}:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// CollectItems maps every item to a record using the structured extractor
func CollectItems(items []interface{}, rules types.Selectors) []types.Record {
	records := make([]types.Record, 0, len(items))
	for _, item := range items {
		record := types.Record{}
		for name, rule := range rules {
			if content, ok := ExtractItem(item, rule); ok && content != "" {
				record[name] = content
			}
		}
		records = append(records, record)
	}
	return records
}
