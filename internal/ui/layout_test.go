package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestContentHeight(t *testing.T) {
	assert.Equal(t, 22, NewLayout(80, 24).ContentHeight())
	assert.Equal(t, 0, NewLayout(80, 1).ContentHeight())
}

func TestRenderHeaderFillsWidth(t *testing.T) {
	l := NewLayout(60, 24)

	header := l.RenderHeader("Mail Chat", "idle")
	assert.GreaterOrEqual(t, lipgloss.Width(header), 60)
	assert.True(t, strings.Contains(header, "Mail Chat"))
	assert.True(t, strings.Contains(header, "idle"))
}

func TestRenderWithFrameStacksSections(t *testing.T) {
	l := NewLayout(40, 10)

	out := l.RenderWithFrame("top", "middle", "bottom")
	assert.Equal(t, []string{"top", "middle", "bottom"}, strings.Split(stripTrailing(out), "\n"))
}

func stripTrailing(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return strings.Join(lines, "\n")
}
