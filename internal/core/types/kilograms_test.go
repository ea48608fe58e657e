package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKilogramsLenient(t *testing.T) {
	tests := []struct {
		in   string
		want Kilograms
	}{
		{"10", 10_000},
		{"10.5", 10_500},
		{"10,25", 10_250},
		{" 0.0004 ", 0},
		{"0.0005", 1},
		{"", 0},
		{"abc", 0},
		{"-3.2", -3_200},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseKilograms(tt.in))
		})
	}
}

func TestKilogramsJSON(t *testing.T) {
	var payload struct {
		A Kilograms `json:"a"`
		B Kilograms `json:"b"`
		C Kilograms `json:"c"`
		D Kilograms `json:"d"`
		E Kilograms `json:"e"`
	}
	err := json.Unmarshal([]byte(`{"a": 12.345, "b": "7,5", "c": null, "d": "x", "e": true}`), &payload)
	require.NoError(t, err)
	assert.Equal(t, Kilograms(12_345), payload.A)
	assert.Equal(t, Kilograms(7_500), payload.B)
	assert.Zero(t, payload.C)
	assert.Zero(t, payload.D)
	assert.Zero(t, payload.E)

	out, err := json.Marshal(Kilograms(25_000))
	require.NoError(t, err)
	assert.JSONEq(t, `25`, string(out))
	assert.Equal(t, "25.000", Kilograms(25_000).String())
}

func TestKilogramsArithmeticIsExact(t *testing.T) {
	a := NewKilograms(0.1)
	b := NewKilograms(0.2)
	assert.Equal(t, NewKilograms(0.3), a+b)
	assert.Equal(t, Kilograms(5_000), NewKilograms(100).MulFraction(0.05))
	assert.Equal(t, Kilograms(1_000), NewKilograms(50).MulFraction(0.01).Max(Kilograms(1_000)))
}

func TestKilogramsScan(t *testing.T) {
	var k Kilograms
	require.NoError(t, k.Scan(float64(1.25)))
	assert.Equal(t, Kilograms(1_250), k)
	require.NoError(t, k.Scan("3.5"))
	assert.Equal(t, Kilograms(3_500), k)
	require.NoError(t, k.Scan(int64(4)))
	assert.Equal(t, Kilograms(4_000), k)
	require.NoError(t, k.Scan(nil))
	assert.Zero(t, k)
	assert.Error(t, k.Scan(struct{}{}))
}

func TestLooseTypes(t *testing.T) {
	var payload struct {
		N  LooseInt    `json:"n"`
		S  LooseInt    `json:"s"`
		F  LooseInt    `json:"f"`
		X  LooseInt    `json:"x"`
		B  LooseBool   `json:"b"`
		B1 LooseBool   `json:"b1"`
		ID LooseString `json:"id"`
	}
	err := json.Unmarshal([]byte(`{"n": 4, "s": "12", "f": 2.0, "x": "?", "b": "true", "b1": 1, "id": 1234}`), &payload)
	require.NoError(t, err)
	assert.Equal(t, LooseInt(4), payload.N)
	assert.Equal(t, LooseInt(12), payload.S)
	assert.Equal(t, LooseInt(2), payload.F)
	assert.Equal(t, LooseInt(0), payload.X)
	assert.True(t, bool(payload.B))
	assert.True(t, bool(payload.B1))
	assert.Equal(t, "1234", payload.ID.String())
}

func TestLooseIntOutOfRangeIsZero(t *testing.T) {
	for _, raw := range []string{`1e300`, `"-1e300"`, `"NaN"`, `"Inf"`} {
		var n LooseInt = 9
		require.NoError(t, json.Unmarshal([]byte(raw), &n), raw)
		assert.Equal(t, LooseInt(0), n, raw)
	}

	var n LooseInt
	require.NoError(t, json.Unmarshal([]byte(`"-7.9"`), &n))
	assert.Equal(t, LooseInt(-7), n)
}
