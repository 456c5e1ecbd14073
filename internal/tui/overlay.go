package tui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// overlayCenter draws box over the middle of base. Lines of base hidden by
// the box keep their text on both sides of it.
func overlayCenter(base, box string, width int) string {
	baseLines := strings.Split(base, "\n")
	boxLines := strings.Split(box, "\n")
	boxWidth := maxLineWidth(boxLines)
	if width <= 0 {
		width = maxLineWidth(baseLines)
	}
	x := max((width-boxWidth)/2, 0)
	y := max((len(baseLines)-len(boxLines))/2, 0)
	return overlayAt(baseLines, boxLines, x, y, width)
}

func overlayAt(baseLines, boxLines []string, x, y, width int) string {
	boxWidth := maxLineWidth(boxLines)
	for i, line := range boxLines {
		row := y + i
		if row >= len(baseLines) {
			baseLines = append(baseLines, "")
		}
		target := padRight(baseLines[row], width)
		left := ansi.Truncate(target, x, "")
		if w := ansi.StringWidth(left); w < x {
			left += strings.Repeat(" ", x-w)
		}
		right := ansi.TruncateLeft(target, x+boxWidth, "")
		baseLines[row] = left + padRight(line, boxWidth) + right
	}
	return strings.Join(baseLines, "\n")
}

func maxLineWidth(lines []string) int {
	m := 0
	for _, line := range lines {
		if w := ansi.StringWidth(line); w > m {
			m = w
		}
	}
	return m
}

// padRight pads s with spaces to the visual width.
func padRight(s string, width int) string {
	if w := ansi.StringWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
