package stringsx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClip_Table(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short", "hello", 10, "hello"},
		{"equal", "hello", 5, "hello"},
		{"clip", "hello", 3, "hel"},
		{"zero", "hello", 0, ""},
		{"neg", "hello", -1, ""},
		{"empty", "", 3, ""},
		{"multibyte", "héllo", 2, "hé"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Clip(tt.in, tt.max))
		})
	}
}

func TestNormalize_And_IsEmpty(t *testing.T) {
	require.Equal(t, "hello", Normalize("  HeLLo  "))
	require.Equal(t, "", Normalize(" \t\n "))
	require.True(t, IsEmpty("   \n\t  "))
	require.False(t, IsEmpty(" x "))
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, s := range []string{"", " ", " Work ", "URGENT", "MiXeD case ", "ÄÖÜ", "\tTab\n"} {
		once := Normalize(s)
		require.Equal(t, once, Normalize(once), "input %q", s)
	}
}

func TestLen_CountsCodePoints(t *testing.T) {
	require.Equal(t, 0, Len(""))
	require.Equal(t, 5, Len("hello"))
	require.Equal(t, 5, Len("héllo"))
	require.Equal(t, 2, Len("日本"))
}

func TestContainsFold(t *testing.T) {
	tests := []struct {
		s, sub string
		want   bool
	}{
		{"Advanced Django web development", "django", true},
		{"Advanced Django web development", "DEVELOPMENT", true},
		{"Learn Python programming basics", "django", false},
		{"anything", "", true},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, ContainsFold(tt.s, tt.sub), "%q in %q", tt.sub, tt.s)
	}
}
