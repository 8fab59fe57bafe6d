package hub

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/terminator-ger/skorch/internal/downloader"
)

var (
	progressLabelStyle = lipgloss.NewStyle().Bold(true)
	progressBarStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("36"))
	progressDimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

const progressBarWidth = 30

// ProgressBar returns a callback that renders a terminal progress bar for
// the named file on stderr. Pass it to Repo.WithProgressCallback.
func ProgressBar(fileName string) downloader.ProgressCallback {
	return func(downloadedBytes, totalBytes int64) {
		label := progressLabelStyle.Render(fileName)
		if totalBytes <= 0 {
			fmt.Fprintf(os.Stderr, "\r%s %s", label, progressDimStyle.Render(humanBytes(downloadedBytes)))
			return
		}

		filled := int(float64(progressBarWidth) * float64(downloadedBytes) / float64(totalBytes))
		if filled > progressBarWidth {
			filled = progressBarWidth
		}
		bar := progressBarStyle.Render(strings.Repeat("█", filled)) +
			progressDimStyle.Render(strings.Repeat("░", progressBarWidth-filled))
		fmt.Fprintf(os.Stderr, "\r%s %s %s/%s", label, bar,
			humanBytes(downloadedBytes), humanBytes(totalBytes))
		if downloadedBytes >= totalBytes {
			fmt.Fprintln(os.Stderr)
		}
	}
}

func humanBytes(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.1fGiB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.1fMiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fKiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%dB", n)
	}
}
