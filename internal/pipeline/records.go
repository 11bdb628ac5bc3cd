package pipeline

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/Veraticus/inventory-mapper/internal/remote"
)

// NotAvailable is shown in place of missing, empty or NaN values.
const NotAvailable = "N/A"

// Renderings of non-finite scores, spelled as the service sends them.
const (
	PositiveInfinity = "Infinity"
	NegativeInfinity = "-Infinity"
)

// Mapped product columns in display order.
const (
	ColumnExternal              = "External"
	ColumnInternal              = "Internal"
	ColumnMethod                = "Method"
	ColumnSemanticScore         = "Semantic_Score"
	ColumnFallbackInternal      = "Fallback_Internal"
	ColumnFallbackSemanticScore = "Fallback_Semantic_Score"
)

// RecordColumns is the fixed column order for mapped products.
var RecordColumns = []string{
	ColumnExternal,
	ColumnInternal,
	ColumnMethod,
	ColumnSemanticScore,
	ColumnFallbackInternal,
	ColumnFallbackSemanticScore,
}

// ColumnHeader returns the display header for a record column.
func ColumnHeader(column string) string {
	if column == ColumnInternal {
		return "Predicted Internal"
	}
	return column
}

// MappedProductRecord is one row produced by the matching stage. Any field
// may be absent.
type MappedProductRecord map[string]any

// Value returns the display text for column.
func (r MappedProductRecord) Value(column string) string {
	return FormatValue(r[column])
}

// Row returns the display text for every column in RecordColumns order.
func (r MappedProductRecord) Row() []string {
	row := make([]string, len(RecordColumns))
	for i, col := range RecordColumns {
		row[i] = r.Value(col)
	}
	return row
}

// FormatValue renders a decoded JSON value. nil, "", and NaN become
// NotAvailable; infinities render as Infinity and -Infinity.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return NotAvailable
	case string:
		if val == "" {
			return NotAvailable
		}
		return val
	case json.Number:
		if val == "" {
			return NotAvailable
		}
		if f, err := remote.NumberValue(val); err == nil && math.IsInf(f, 0) {
			return formatFloat(f, 64)
		}
		return val.String()
	case float64:
		return formatFloat(val, 64)
	case float32:
		return formatFloat(float64(val), 32)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

func formatFloat(f float64, bitSize int) string {
	switch {
	case math.IsNaN(f):
		return NotAvailable
	case math.IsInf(f, 1):
		return PositiveInfinity
	case math.IsInf(f, -1):
		return NegativeInfinity
	default:
		return strconv.FormatFloat(f, 'f', -1, bitSize)
	}
}
