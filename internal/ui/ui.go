// Package ui renders stage banners and builds the structured logger.
package ui

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	ColorPrimary = lipgloss.Color("#7C3AED")
	ColorMuted   = lipgloss.Color("#6B7280")
)

var (
	// StageStyle is for top-level stages.
	StageStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	// SubStageStyle is for the steps within a stage.
	SubStageStyle = lipgloss.NewStyle().Foreground(ColorMuted)
)

// DefaultWidth is used when no terminal width is configured.
const DefaultWidth = 80

// Banners prints stage banners to a writer.
type Banners struct {
	w     io.Writer
	width int
}

// NewBanners returns a printer that pads banners to width columns.
func NewBanners(w io.Writer, width int) *Banners {
	if width <= 0 {
		width = DefaultWidth
	}
	return &Banners{w: w, width: width}
}

// Stage prints a top-level banner.
func (b *Banners) Stage(title string) {
	b.Print(title, '=', StageStyle)
}

// SubStage prints a banner for a step within a stage.
func (b *Banners) SubStage(title string) {
	b.Print(title, '-', SubStageStyle)
}

// Print writes title centered in a line of fill, rendered with style.
func (b *Banners) Print(title string, fill rune, style lipgloss.Style) {
	fmt.Fprintln(b.w, style.Render(Banner(title, fill, b.width)))
}

// Banner returns the unstyled banner text.
func Banner(title string, fill rune, width int) string {
	title = " " + strings.TrimSpace(title) + " "
	pad := width - utf8.RuneCountInString(title)
	if pad < 6 {
		pad = 6
	}
	left := pad / 2
	right := pad - left
	return strings.Repeat(string(fill), left) + title + strings.Repeat(string(fill), right)
}

// NewLogger returns the process logger; verbose lowers the level to Debug.
func NewLogger(w io.Writer, verbose bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Prefix:          "nanoci",
		ReportTimestamp: false,
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}
