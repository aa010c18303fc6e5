package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lineFixture struct {
	Description    string `json:"description"`
	Quantity       int64  `json:"quantity" validate:"required,gt=0"`
	UnitPriceCents int64  `json:"unit_price_cents" validate:"gte=0"`
}

type argsFixture struct {
	Title string        `json:"title" validate:"required,max=10"`
	Lines []lineFixture `json:"lines" validate:"required,min=1,dive"`
}

func TestDecodeArgs(t *testing.T) {
	var dest argsFixture
	err := DecodeArgs(map[string]any{
		"title": "widgets",
		"lines": []any{
			map[string]any{"description": "Widget", "quantity": float64(2), "unit_price_cents": float64(100)},
		},
		"customer_name": "Acme Corp",
	}, &dest)
	require.NoError(t, err)

	assert.Equal(t, "widgets", dest.Title)
	require.Len(t, dest.Lines, 1)
	assert.Equal(t, int64(2), dest.Lines[0].Quantity)
}

func TestDecodeArgsViolations(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{
			name: "missing required field",
			args: map[string]any{"lines": []any{map[string]any{"quantity": float64(1)}}},
			want: "title is required",
		},
		{
			name: "empty lines",
			args: map[string]any{"title": "t", "lines": []any{}},
			want: "lines must have at least 1 entries",
		},
		{
			name: "zero quantity",
			args: map[string]any{"title": "t", "lines": []any{map[string]any{"quantity": float64(0)}}},
			want: "quantity",
		},
		{
			name: "negative price",
			args: map[string]any{"title": "t", "lines": []any{
				map[string]any{"quantity": float64(1), "unit_price_cents": float64(-5)},
			}},
			want: "unit_price_cents must be at least 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dest argsFixture
			err := DecodeArgs(tt.args, &dest)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDecodeArgsTypeMismatch(t *testing.T) {
	var dest argsFixture
	err := DecodeArgs(map[string]any{"title": 42}, &dest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid arguments")
}
