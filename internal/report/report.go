// Package report renders an end-of-run summary for the terminal.
package report

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/ndrandal/stocksim/internal/sim"
)

var (
	titleColor = lipgloss.Color("#7C3AED")
	upColor    = lipgloss.Color("#10B981")
	downColor  = lipgloss.Color("#EF4444")
	mutedColor = lipgloss.Color("#9CA3AF")
)

// Summary writes a styled run summary to w. It implements sim.Exporter.
type Summary struct {
	w io.Writer

	title  lipgloss.Style
	header lipgloss.Style
	muted  lipgloss.Style
	up     lipgloss.Style
	down   lipgloss.Style
	panel  lipgloss.Style
}

// NewSummary styles for w; colors are dropped when w is not a terminal.
func NewSummary(w io.Writer) *Summary {
	r := lipgloss.NewRenderer(w)
	return &Summary{
		w:      w,
		title:  r.NewStyle().Bold(true).Foreground(titleColor),
		header: r.NewStyle().Bold(true).Foreground(mutedColor),
		muted:  r.NewStyle().Foreground(mutedColor),
		up:     r.NewStyle().Foreground(upColor),
		down:   r.NewStyle().Foreground(downColor),
		panel:  r.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(mutedColor).Padding(0, 1),
	}
}

func (s *Summary) Export(_ context.Context, res *sim.Result) error {
	if _, err := io.WriteString(s.w, s.Render(res)+"\n"); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// Render returns the summary text without writing it.
func (s *Summary) Render(res *sim.Result) string {
	var b strings.Builder
	b.WriteString(s.title.Render(fmt.Sprintf("Run %s  %s  %d steps", res.RunID(), res.Config.Strategy, res.Config.Steps)))
	b.WriteString("\n\n")

	nameWidth := len("Stock")
	for _, st := range res.Market.Stocks() {
		nameWidth = max(nameWidth, len(st.Name()))
	}
	row := fmt.Sprintf("%%-%ds %%14s %%14s %%9s", nameWidth)

	b.WriteString(s.header.Render(fmt.Sprintf(row, "Stock", "Open", "Close", "Change")))
	b.WriteString("\n")
	for _, st := range res.Market.Stocks() {
		h := st.History()
		first, last := h[0], h[len(h)-1]
		b.WriteString(fmt.Sprintf(row, st.Name(), Money(first), Money(last), s.change(first, last)))
		b.WriteString("\n")
	}

	inv := res.Investor
	var accepted, rejected int
	for _, o := range inv.Orders() {
		if o.Accepted {
			accepted++
		} else {
			rejected++
		}
	}
	lines := []string{
		s.header.Render(inv.Name()),
		fmt.Sprintf("cash      %s", Money(inv.Cash())),
		fmt.Sprintf("asset     %s  %s", Money(inv.Asset()), s.change(inv.InitialAsset(), inv.Asset())),
		fmt.Sprintf("holdings  %d", len(inv.Holdings())),
		fmt.Sprintf("orders    %d accepted, %d rejected", accepted, rejected),
	}
	b.WriteString("\n")
	b.WriteString(s.panel.Render(strings.Join(lines, "\n")))
	b.WriteString("\n")
	b.WriteString(s.muted.Render(fmt.Sprintf("finished in %s", res.FinishedAt.Sub(res.StartedAt).Round(time.Millisecond))))
	return b.String()
}

// change formats the relative move from a to b as a colored percentage.
func (s *Summary) change(a, b float64) string {
	pct := Percent(a, b)
	text := pct.StringFixed(2) + "%"
	switch pct.Sign() {
	case 1:
		return s.up.Render("+" + text)
	case -1:
		return s.down.Render(text)
	}
	return text
}

// Money formats v with two decimals and thousands separators.
func Money(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	s := d.StringFixed(2)
	whole, frac, _ := strings.Cut(s, ".")
	var out []byte
	for i, c := range []byte(whole) {
		if i > 0 && (len(whole)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	return sign + string(out) + "." + frac
}

// Percent returns (b-a)/a*100, or zero when a is zero.
func Percent(a, b float64) decimal.Decimal {
	da := decimal.NewFromFloat(a)
	if da.IsZero() {
		return decimal.Zero
	}
	return decimal.NewFromFloat(b).Sub(da).Div(da).Mul(decimal.NewFromInt(100)).Round(2)
}
