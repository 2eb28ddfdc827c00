package tool

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// LineRequest is a line as the model phrased it: either a variant id or a
// product name that still has to be grounded.
type LineRequest struct {
	MerchandiseID string
	ProductName   string
	Quantity      int
}

var (
	merchandiseKeys = []string{"merchandiseId", "variantId", "merchandise_id", "variant_id", "id"}
	productNameKeys = []string{"productName", "product", "title", "name", "product_name"}
)

// StringParam returns the first non-empty string among keys.
func StringParam(params map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := params[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				return s
			}
		case json.Number:
			return t.String()
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64)
		case int:
			return strconv.Itoa(t)
		}
	}
	return ""
}

// StringsParam accepts a list or a single string.
func StringsParam(params map[string]any, key string) []string {
	v, ok := params[key]
	if !ok || v == nil {
		return nil
	}
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
	case []string:
		return trimAll(t)
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return trimAll(out)
	}
	return nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// MaxIntParam caps IntParam so oversized model output cannot overflow int.
const MaxIntParam = 1 << 20

// IntParam returns a positive integer or def, capped at MaxIntParam.
func IntParam(params map[string]any, key string, def int) int {
	v, ok := params[key]
	if !ok || v == nil {
		return def
	}
	var n float64
	switch t := v.(type) {
	case float64:
		n = t
	case int:
		n = float64(t)
	case int64:
		n = float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return def
		}
		n = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return def
		}
		n = f
	default:
		return def
	}
	if n < 1 || math.IsNaN(n) {
		return def
	}
	if n > MaxIntParam {
		return MaxIntParam
	}
	return int(n)
}

// LinesParam reads "lines" and falls back to a single line described by
// top-level keys, which models often produce for one item.
func LinesParam(params map[string]any) ([]LineRequest, error) {
	raw, ok := params["lines"]
	if !ok || raw == nil {
		line := lineFromMap(params)
		if line.MerchandiseID == "" && line.ProductName == "" {
			return nil, nil
		}
		return []LineRequest{line}, nil
	}

	items, ok := raw.([]any)
	if !ok {
		if m, isMap := raw.(map[string]any); isMap {
			items = []any{m}
		} else {
			return nil, fmt.Errorf("lines must be a list, got %T", raw)
		}
	}

	out := make([]LineRequest, 0, len(items))
	for i, item := range items {
		switch t := item.(type) {
		case map[string]any:
			line := lineFromMap(t)
			if line.MerchandiseID == "" && line.ProductName == "" {
				return nil, fmt.Errorf("line %d has neither merchandiseId nor productName", i)
			}
			out = append(out, line)
		case string:
			if s := strings.TrimSpace(t); s != "" {
				out = append(out, LineRequest{ProductName: s, Quantity: 1})
			}
		default:
			return nil, fmt.Errorf("line %d has unsupported type %T", i, item)
		}
	}
	return out, nil
}

func lineFromMap(m map[string]any) LineRequest {
	line := LineRequest{
		MerchandiseID: StringParam(m, merchandiseKeys...),
		ProductName:   StringParam(m, productNameKeys...),
		Quantity:      IntParam(m, "quantity", 1),
	}
	// A model sometimes puts the product title in the id slot.
	if line.MerchandiseID != "" && !LooksLikeID(line.MerchandiseID) {
		if line.ProductName == "" {
			line.ProductName = line.MerchandiseID
		}
		line.MerchandiseID = ""
	}
	return line
}

// LooksLikeID reports whether s is a global id or a bare numeric id.
func LooksLikeID(s string) bool {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "gid://") {
		return true
	}
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
