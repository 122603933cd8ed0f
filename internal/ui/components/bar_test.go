package components

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderStorageBar(t *testing.T) {
	out := RenderStorageBar("local", 0.42, 62277025792, 80)

	require.Contains(t, out, "local [")
	require.Contains(t, out, " 42.0%")
	require.Contains(t, out, "(58.0 GB free)")
}

func TestRenderStorageBarClamps(t *testing.T) {
	require.Contains(t, RenderStorageBar("full", 1.7, 0, 80), "100.0%")
	require.Contains(t, RenderStorageBar("odd", -0.3, 1024, 80), "  0.0%")
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{500, "500 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{2147483648, "2.0 GB"},
		{5629499534213120, "5.0 PB"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, FormatBytes(tt.in))
	}
}
