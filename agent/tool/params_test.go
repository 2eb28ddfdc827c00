package tool

import (
	"encoding/json"
	"math"
	"testing"
)

func TestIntParam(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		v    any
		want int
	}{
		{name: "float", v: float64(3), want: 3},
		{name: "string", v: " 2 ", want: 2},
		{name: "number", v: json.Number("4"), want: 4},
		{name: "zero", v: float64(0), want: 1},
		{name: "negative", v: float64(-5), want: 1},
		{name: "nan", v: math.NaN(), want: 1},
		{name: "huge", v: 1e300, want: MaxIntParam},
		{name: "huge string", v: "1e300", want: MaxIntParam},
		{name: "infinity", v: math.Inf(1), want: MaxIntParam},
		{name: "negative infinity", v: math.Inf(-1), want: 1},
		{name: "garbage", v: "lots", want: 1},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := IntParam(map[string]any{"quantity": tc.v}, "quantity", 1); got != tc.want {
				t.Fatalf("IntParam(%v) = %d, want %d", tc.v, got, tc.want)
			}
		})
	}
}
