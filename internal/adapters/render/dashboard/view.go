package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/aeye-cli/internal/domain"
)

type RenderOptions struct {
	Now        time.Time
	Subject    string
	Role       domain.Role
	Interval   time.Duration
	StaleAfter time.Duration
	// Spinner is drawn next to sources still waiting for their first frame.
	Spinner string
	Footer  string
}

func renderView(frames []Frame, opts RenderOptions, s styles) string {
	header := fmt.Sprintf("cameras: %d", len(frames))
	if opts.Interval > 0 {
		header += fmt.Sprintf("  every %s", opts.Interval)
	}
	if opts.Subject != "" {
		header += fmt.Sprintf("  user: %s", opts.Subject)
		if opts.Role != "" {
			header += fmt.Sprintf(" (%s)", opts.Role.Short())
		}
	}

	lines := []string{
		s.title.Render("Aeye Live Feed"),
		s.header.Render(header),
	}

	if len(frames) == 0 {
		lines = append(lines, s.empty.Render("No feed sources configured."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, frame := range frames {
		lines = append(lines, s.section.Render(renderFrame(frame, opts, s)))
	}

	if opts.Footer != "" {
		lines = append(lines, s.footer.Render(opts.Footer))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderFrame(frame Frame, opts RenderOptions, s styles) string {
	title := s.camera.Render(fmt.Sprintf("%s (%s)", frame.Label, frame.SourceID))

	var status string
	switch {
	case frame.Withdrawn:
		status = s.stopped.Render("stopped")
	case !frame.Live:
		status = s.waiting.Render(strings.TrimSpace(opts.Spinner + " waiting for first frame"))
	case isStale(frame, opts):
		status = s.warning.Render(fmt.Sprintf("stale %s", formatAge(opts.Now.Sub(frame.ReceivedAt))))
	default:
		status = s.live.Render("LIVE")
	}

	parts := []string{lipgloss.JoinHorizontal(lipgloss.Left, title, "  ", status)}
	if frame.Info.Ref != "" {
		age := ""
		if !opts.Now.IsZero() && !frame.ReceivedAt.IsZero() {
			age = " " + formatAge(opts.Now.Sub(frame.ReceivedAt)) + " ago"
		}
		detail := fmt.Sprintf("frame #%d  %s  %s  updates: %d%s",
			frame.Info.Seq,
			formatBytes(frame.Info.Size),
			contentTypeLabel(frame.Info.ContentType),
			frame.Updates,
			age,
		)
		parts = append(parts, lipgloss.NewStyle().Foreground(ageColor(frame, opts)).Render(detail))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func isStale(frame Frame, opts RenderOptions) bool {
	if opts.StaleAfter <= 0 || opts.Now.IsZero() || frame.ReceivedAt.IsZero() {
		return false
	}
	return opts.Now.Sub(frame.ReceivedAt) > opts.StaleAfter
}

func formatAge(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return d.Truncate(time.Second).String()
	}
}

func formatBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func contentTypeLabel(contentType string) string {
	mediaType, _, _ := strings.Cut(contentType, ";")
	mediaType = strings.TrimSpace(mediaType)
	if mediaType == "" {
		return "unknown"
	}
	return mediaType
}

// ageColor fades a frame's detail line from bright to grey as it ages
// towards the stale threshold.
func ageColor(frame Frame, opts RenderOptions) lipgloss.Color {
	if opts.StaleAfter <= 0 || opts.Now.IsZero() || frame.ReceivedAt.IsZero() {
		return lipgloss.Color("252")
	}
	age := opts.Now.Sub(frame.ReceivedAt).Seconds()
	return interpolateColor(opts.StaleAfter.Seconds()-age, 0, opts.StaleAfter.Seconds())
}

func interpolateColor(value, min, max float64) lipgloss.Color {
	if max == min {
		return lipgloss.Color("255")
	}

	normalized := (value - min) / (max - min)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}

	// ANSI 256 greyscale: 240 faded, 255 bright
	baseColor := 240.0
	targetColor := 255.0
	return lipgloss.Color(fmt.Sprintf("%d", int(baseColor+(targetColor-baseColor)*normalized)))
}
