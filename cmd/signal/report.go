package main

import (
	"fmt"
	"strings"
	"time"

	"trade-signal/internal/domain"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA"))
	subtextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	borderStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#555555")).Padding(0, 1)

	ratingBuyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")).Bold(true)
	ratingSellStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)
	ratingHoldStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00"))

	passedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	penaltyHit  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
)

func ratingStyle(r domain.Rating) lipgloss.Style {
	switch r {
	case domain.RatingBuy:
		return ratingBuyStyle
	case domain.RatingSell:
		return ratingSellStyle
	default:
		return ratingHoldStyle
	}
}

// renderReport formats one evaluation for the terminal. With styled=false the
// output is plain text suitable for piping.
func renderReport(e domain.Evaluation, styled bool) string {
	style := func(s lipgloss.Style, text string) string {
		if !styled {
			return text
		}
		return s.Render(text)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s  %s  confidence %d%%\n",
		style(headerStyle, e.Symbol), e.Interval,
		style(ratingStyle(e.Result.Rating), string(e.Result.Rating)),
		e.Result.Confidence,
	)
	asOf := "n/a"
	if !e.BarTime.IsZero() {
		asOf = e.BarTime.UTC().Format(time.RFC3339)
	}
	b.WriteString(style(subtextStyle, fmt.Sprintf("%d bars, last bar %s", e.Bars, asOf)))
	b.WriteString("\n")

	if !e.Result.Levels.Computed {
		b.WriteString(style(subtextStyle, "not enough history for rules or levels"))
		return wrap(b.String(), styled)
	}

	rows := make([][]string, 0, len(e.Result.Flags))
	for _, f := range e.Result.Flags {
		mark := "no"
		if f.Passed {
			mark = "yes"
			if f.Weight < 0 {
				mark = style(penaltyHit, mark)
			} else {
				mark = style(passedStyle, mark)
			}
		}
		rows = append(rows, []string{f.ID, fmt.Sprintf("%+.2f", f.Weight), mark, f.Note})
	}
	t := table.New().
		Headers("rule", "weight", "fired", "note").
		Rows(rows...)
	if styled {
		t = t.Border(lipgloss.NormalBorder()).BorderStyle(subtextStyle)
	} else {
		t = t.Border(lipgloss.HiddenBorder())
	}
	b.WriteString(t.Render())
	b.WriteString("\n")

	l := e.Result.Levels
	fmt.Fprintf(&b, "entry %.2f - %.2f  stop %.2f  targets %.2f / %.2f / %.2f",
		l.Entry[0], l.Entry[1], l.Stop, l.TakeProfit[0], l.TakeProfit[1], l.TakeProfit[2])
	return wrap(b.String(), styled)
}

func wrap(body string, styled bool) string {
	if !styled {
		return body
	}
	return borderStyle.Render(body)
}
