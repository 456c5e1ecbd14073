package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"
)

func TestOverlayCenterKeepsSurroundingText(t *testing.T) {
	base := strings.Join([]string{
		"aaaaaaaaaa",
		"bbbbbbbbbb",
		"cccccccccc",
	}, "\n")
	out := overlayCenter(base, "XX", 10)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "aaaaaaaaaa", lines[0])
	require.Equal(t, "bbbbXXbbbb", lines[1])
	require.Equal(t, "cccccccccc", lines[2])
}

func TestOverlayTallerThanBase(t *testing.T) {
	out := overlayCenter("ab", "1\n2\n3", 0)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "1b", lines[0])
	require.Equal(t, "2", strings.TrimSpace(lines[1]))
}

func TestClipUsesDisplayWidth(t *testing.T) {
	require.Equal(t, "short", clip("short", 10))
	got := clip("葛飾北斎 Katsushika Hokusai", 6)
	require.LessOrEqual(t, ansi.StringWidth(got), 6)
	require.True(t, strings.HasSuffix(got, "…"))
}
