package pipeline

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/Veraticus/inventory-mapper/internal/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, NotAvailable},
		{"empty string", "", NotAvailable},
		{"nan", math.NaN(), NotAvailable},
		{"positive infinity", math.Inf(1), PositiveInfinity},
		{"negative infinity", math.Inf(-1), NegativeInfinity},
		{"overflowing literal", json.Number("1e999"), PositiveInfinity},
		{"string", "Widget", "Widget"},
		{"number literal", json.Number("0.91"), "0.91"},
		{"float", 0.5, "0.5"},
		{"whole float", 3.0, "3"},
		{"bool", true, "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatValue(tt.in))
		})
	}
}

func TestMappedProductRecord_Row(t *testing.T) {
	var rec MappedProductRecord
	require.NoError(t, remote.DecodeJSON([]byte(`{
		"External": "Acme Bolt",
		"Internal": "BOLT-01",
		"Method": "semantic",
		"Semantic_Score": 0.87,
		"Fallback_Internal": null,
		"Fallback_Semantic_Score": NaN
	}`), &rec))

	assert.Equal(t, []string{"Acme Bolt", "BOLT-01", "semantic", "0.87", NotAvailable, NotAvailable}, rec.Row())
}

func TestMappedProductRecord_MissingFields(t *testing.T) {
	rec := MappedProductRecord{"External": "Only"}
	row := rec.Row()
	require.Len(t, row, len(RecordColumns))
	assert.Equal(t, "Only", row[0])
	for _, cell := range row[1:] {
		assert.Equal(t, NotAvailable, cell)
	}
}

func TestColumnHeader(t *testing.T) {
	assert.Equal(t, "Predicted Internal", ColumnHeader(ColumnInternal))
	assert.Equal(t, ColumnMethod, ColumnHeader(ColumnMethod))
}
