package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	criticalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	emptyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// RenderStorageBar renders a pool's usage as a colored bar with the free
// space appended, e.g. `local [████░░] 42.0% (58.2 GB free)`. usedFraction
// is clamped to [0, 1]; width is the total line budget.
func RenderStorageBar(name string, usedFraction float64, avail int64, width int) string {
	percent := usedFraction * 100
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	// Room for the label, brackets, percentage and free-space suffix
	barWidth := width - len(name) - 28
	if barWidth < 10 {
		barWidth = 10
	}
	filled := int(float64(barWidth) * percent / 100)

	style := okStyle
	switch {
	case percent >= 90:
		style = criticalStyle
	case percent >= 75:
		style = warningStyle
	}

	bar := style.Render(strings.Repeat("█", filled)) +
		emptyStyle.Render(strings.Repeat("░", barWidth-filled))

	return fmt.Sprintf("%s [%s] %5.1f%% (%s free)", name, bar, percent, FormatBytes(avail))
}

// FormatBytes converts bytes to human-readable form, e.g. 2147483648 -> "2.0 GB"
func FormatBytes(n int64) string {
	const unit = 1024.0
	size := float64(n)
	for _, suffix := range []string{"B", "KB", "MB", "GB", "TB"} {
		if size < unit {
			if suffix == "B" {
				return fmt.Sprintf("%d B", n)
			}
			return fmt.Sprintf("%.1f %s", size, suffix)
		}
		size /= unit
	}
	return fmt.Sprintf("%.1f PB", size)
}
