package mathx

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCeilDiv_Table(t *testing.T) {
	tests := []struct {
		name string
		a, b int
		want int
	}{
		{"zero total", 0, 50, 0},
		{"exact", 100, 50, 2},
		{"remainder", 75, 50, 2},
		{"less than one page", 3, 50, 1},
		{"one per page", 7, 1, 7},
		{"bad divisor", 10, 0, 0},
		{"negative", -4, 2, 0},
		{"max int", math.MaxInt, math.MaxInt, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, CeilDiv(tt.a, tt.b))
		})
	}
}

func TestOffset(t *testing.T) {
	require.Equal(t, 0, Offset(1, 50))
	require.Equal(t, 50, Offset(2, 50))
	require.Equal(t, 20, Offset(3, 10))
	require.Equal(t, 0, Offset(0, 10))
	require.Equal(t, math.MaxInt, Offset(92233720368547760, 100))
	require.Equal(t, math.MaxInt, Offset(math.MaxInt, math.MaxInt))
}

func TestPastEnd(t *testing.T) {
	require.False(t, PastEnd(75, 2, 50))
	require.True(t, PastEnd(75, 3, 50))
	require.True(t, PastEnd(0, 1, 50))
	require.True(t, PastEnd(3, 92233720368547760, 100))
	require.False(t, PastEnd(3, 1, math.MaxInt))
}

func TestWindow(t *testing.T) {
	tests := []struct {
		n, page, size int
		lo, hi        int
	}{
		{75, 1, 50, 0, 50},
		{75, 2, 50, 50, 75},
		{75, 3, 50, 75, 75},
		{0, 1, 50, 0, 0},
		{10, 5, 3, 10, 10},
		{3, 92233720368547760, 100, 3, 3},
		{3, math.MaxInt, math.MaxInt, 3, 3},
		{3, 1, math.MaxInt, 0, 3},
		{10, 1, -5, 0, 0},
		{10, 1, 0, 0, 0},
		{10, 0, 4, 0, 4},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("n%d_p%d_s%d", tt.n, tt.page, tt.size), func(t *testing.T) {
			lo, hi := Window(tt.n, tt.page, tt.size)
			require.Equal(t, tt.lo, lo)
			require.Equal(t, tt.hi, hi)
		})
	}
}

func BenchmarkWindow(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = Window(10_000, i%300+1, 50)
	}
}
