package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberUnmarshalForgiving(t *testing.T) {
	cases := []struct {
		name string
		json string
		want Number
	}{
		{"number", `{"current_price": 49.5}`, Num(49.5)},
		{"numeric string", `{"current_price": "49.5"}`, Num(49.5)},
		{"padded string", `{"current_price": "  12 "}`, Num(12)},
		{"empty string", `{"current_price": ""}`, Number{}},
		{"null", `{"current_price": null}`, Number{}},
		{"missing", `{}`, Number{}},
		{"garbage string", `{"current_price": "abc"}`, Number{}},
		{"zero", `{"current_price": 0}`, Num(0)},
		{"negative", `{"current_price": -3}`, Num(-3)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var in CalculatorInputs
			require.NoError(t, json.Unmarshal([]byte(tc.json), &in))
			assert.Equal(t, tc.want, in.CurrentPrice)
		})
	}
}

func TestNumberOr(t *testing.T) {
	assert.Equal(t, 5.0, Number{}.Or(5))
	assert.Equal(t, 0.0, Num(0).Or(5))
	assert.Equal(t, 7.0, Num(7).Or(5))
}

func TestNumberMarshal(t *testing.T) {
	raw, err := json.Marshal(CalculatorInputs{CurrentPrice: Num(49.5)})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"current_price":49.5`)
	assert.Contains(t, string(raw), `"competitor_price":null`)
}
