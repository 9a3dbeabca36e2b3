package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/rohankatakam/gitpulse/internal/errors"
	"github.com/rohankatakam/gitpulse/internal/git"
	"github.com/rohankatakam/gitpulse/internal/ingestion"
	"github.com/rohankatakam/gitpulse/internal/models"
	"github.com/rohankatakam/gitpulse/internal/statistics"
)

const msgNoActivity = "No activity found for the specified period."

func (p *Printer) table(v interface{}) (string, error) {
	switch r := v.(type) {
	case *statistics.DayTotals:
		return p.totals("Day "+r.Day, r.Totals), nil
	case *statistics.PeriodTotals:
		title := fmt.Sprintf("Period %s to %s", r.From, r.To)
		if r.ExcludeAI {
			title += " (AI authors excluded)"
		}
		return p.totals(title, r.Totals), nil
	case *statistics.DailyBreakdown:
		return p.daily(r), nil
	case *statistics.AuthorBreakdown:
		return p.authors(r), nil
	case *statistics.AIAssistance:
		return p.aiAssistance(r), nil
	case *statistics.RepositoryStatus:
		return p.status(r), nil
	case *ingestion.RunReport:
		return p.runReport(r), nil
	case []*ingestion.RunReport:
		parts := make([]string, 0, len(r))
		for _, report := range r {
			if report != nil {
				parts = append(parts, p.runReport(report))
			}
		}
		return strings.Join(parts, "\n\n"), nil
	case *git.RangeStat:
		return p.rangeStat(r), nil
	default:
		return "", errors.InternalErrorf("no table layout for %T", v)
	}
}

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Format.Footer = text.FormatDefault
	return tbl
}

func (p *Printer) paint(attr color.Attribute, s string) string {
	c := color.New(attr)
	if p.color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.Sprint(s)
}

// net renders a signed line delta, green when growing and red when shrinking
func (p *Printer) net(n int) string {
	switch {
	case n > 0:
		return p.paint(color.FgGreen, "+"+humanize.Comma(int64(n)))
	case n < 0:
		return p.paint(color.FgRed, humanize.Comma(int64(n)))
	default:
		return "0"
	}
}

func comma(n int) string {
	return humanize.Comma(int64(n))
}

func (p *Printer) heading(s string) string {
	return p.paint(color.Bold, "--- "+s+" ---")
}

func (p *Printer) totals(title string, t statistics.Totals) string {
	tbl := newTable()
	tbl.AppendRows([]table.Row{
		{"Commits", comma(t.Commits)},
		{"Authors", comma(t.Authors)},
		{"Files changed", comma(t.FilesChanged)},
		{"Lines added", comma(t.Added)},
		{"Lines deleted", comma(t.Deleted)},
		{"Net change", p.net(t.NetChange())},
		{"Total activity", comma(t.Added + t.Deleted)},
	})
	return p.heading(title) + "\n" + tbl.Render()
}

func (p *Printer) daily(b *statistics.DailyBreakdown) string {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"Day", "Commits", "Authors", "Files", "Added", "Deleted", "Net"})
	for _, d := range b.Days {
		tbl.AppendRow(table.Row{
			d.Day, comma(d.Commits), comma(d.Authors), comma(d.FilesChanged),
			comma(d.Added), comma(d.Deleted), p.net(d.NetChange()),
		})
	}
	tbl.AppendFooter(table.Row{
		fmt.Sprintf("%d/%d active", b.DaysWithActivity, len(b.Days)),
		comma(b.Totals.Commits), comma(b.Totals.Authors), comma(b.Totals.FilesChanged),
		comma(b.Totals.Added), comma(b.Totals.Deleted), p.net(b.Totals.NetChange()),
	})
	return p.heading(fmt.Sprintf("Daily statistics %s to %s", b.From, b.To)) + "\n" + tbl.Render()
}

func (p *Printer) authors(b *statistics.AuthorBreakdown) string {
	title := fmt.Sprintf("Author statistics %s to %s", b.From, b.To)
	if b.ExcludeAI {
		title += " (AI authors excluded)"
	}
	if len(b.Authors) == 0 {
		return p.heading(title) + "\n" + msgNoActivity
	}

	tbl := newTable()
	tbl.AppendHeader(table.Row{"Author", "Commits", "Co-authored", "Files", "Added", "Deleted", "Net", "Activity", "Days"})
	for _, a := range b.Authors {
		name := fmt.Sprintf("%s <%s>", a.Name, a.Email)
		if a.IsAI {
			name += " " + p.paint(color.FgCyan, "[AI]")
		}
		tbl.AppendRow(table.Row{
			name, comma(a.Commits), comma(a.CoAuthoredCommits), comma(a.FilesChanged),
			comma(a.Added), comma(a.Deleted), p.net(a.NetChange), comma(a.TotalActivity), a.ActiveDays,
		})
	}
	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d authors", len(b.Authors))})
	return p.heading(title) + "\n" + tbl.Render()
}

func (p *Printer) aiAssistance(a *statistics.AIAssistance) string {
	scope := "all repositories"
	if a.Scope.Repository != "" {
		scope = a.Scope.Repository
	}
	if a.Scope.AuthorEmail != "" {
		scope += ", author " + a.Scope.AuthorEmail
	}

	tbl := newTable()
	tbl.AppendHeader(table.Row{"", "Total", "AI-assisted", "Share"})
	tbl.AppendRows([]table.Row{
		{"Commits", comma(a.TotalCommits), comma(a.AssistedCommits), fmt.Sprintf("%.1f%%", a.CommitPercentage)},
		{"Lines", comma(a.TotalLines), comma(a.AssistedLines), fmt.Sprintf("%.1f%%", a.LinePercentage)},
	})
	return p.heading(fmt.Sprintf("AI assistance %s to %s (%s)", a.From, a.To, scope)) + "\n" + tbl.Render()
}

func (p *Printer) status(s *statistics.RepositoryStatus) string {
	if s.Repository == nil {
		return "Repository has not been ingested yet."
	}

	tbl := newTable()
	tbl.AppendRow(table.Row{"Repository", s.Repository.Path})
	tbl.AppendRow(table.Row{"Last analyzed", humanTime(s.Repository.LastAnalyzedAt)})

	if run := s.LastRun; run != nil {
		tbl.AppendRow(table.Row{"Last run", run.ID})
		tbl.AppendRow(table.Row{"Status", p.runStatus(run.Status)})
		tbl.AppendRow(table.Row{"Window", fmt.Sprintf("%s to %s (%s)", run.DateFrom, run.DateTo, run.Kind)})
		tbl.AppendRow(table.Row{"Days", fmt.Sprintf("%d processed, %d failed", run.DaysProcessed, run.DaysFailed)})
		tbl.AppendRow(table.Row{"Commits", fmt.Sprintf("%s ingested, %s skipped", comma(run.CommitsIngested), comma(run.CommitsSkipped))})
		tbl.AppendRow(table.Row{"Finished", humanTime(run.CompletedAt)})
		if run.Advisory != "" {
			tbl.AppendRow(table.Row{"Advisory", run.Advisory})
		}
		if run.ErrorMessage != "" {
			tbl.AppendRow(table.Row{"Error", p.paint(color.FgRed, run.ErrorMessage)})
		}
	}
	return p.heading("Repository status") + "\n" + tbl.Render()
}

func (p *Printer) runStatus(s models.RunStatus) string {
	switch s {
	case models.RunStatusCompleted:
		return p.paint(color.FgGreen, string(s))
	case models.RunStatusFailed:
		return p.paint(color.FgRed, string(s))
	default:
		return p.paint(color.FgYellow, string(s))
	}
}

func (p *Printer) runReport(r *ingestion.RunReport) string {
	var sb strings.Builder
	sb.WriteString(p.heading(fmt.Sprintf("Ingestion %s to %s", r.From, r.To)))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Repository: %s\nRun: %s (%s) in %s\n", r.Repository, r.RunID, p.runStatus(r.Status), r.Duration.Round(time.Millisecond))
	if r.Advisory != "" {
		sb.WriteString(p.paint(color.FgYellow, "Advisory: "+r.Advisory) + "\n")
	}
	if r.Error != "" {
		sb.WriteString(p.paint(color.FgRed, "Error: "+r.Error) + "\n")
	}
	if len(r.Days) == 0 {
		return strings.TrimRight(sb.String(), "\n")
	}

	tbl := newTable()
	tbl.AppendHeader(table.Row{"Day", "Status", "Seen", "Ingested", "Skipped", "Took", "Error"})
	for _, d := range r.Days {
		status := p.paint(color.FgGreen, string(d.Status))
		if d.Status == ingestion.DayFailed {
			status = p.paint(color.FgRed, string(d.Status))
		}
		tbl.AppendRow(table.Row{
			d.Day, status, comma(d.CommitsSeen), comma(d.CommitsIngested), comma(d.CommitsSkipped),
			d.Duration.Round(time.Millisecond), d.Error,
		})
	}
	ingested, skipped := r.Totals()
	tbl.AppendFooter(table.Row{
		fmt.Sprintf("%d days", len(r.Days)),
		fmt.Sprintf("%d failed", len(r.FailedDays())),
		"", comma(ingested), comma(skipped),
	})
	sb.WriteString(tbl.Render())
	return sb.String()
}

func (p *Printer) rangeStat(r *git.RangeStat) string {
	tbl := newTable()
	tbl.AppendRows([]table.Row{
		{"Commits", comma(r.Commits)},
		{"Files changed", comma(r.FilesChanged)},
		{"Lines added", comma(r.Insertions)},
		{"Lines deleted", comma(r.Deletions)},
		{"Net change", p.net(r.Insertions - r.Deletions)},
	})
	return p.heading(fmt.Sprintf("Live statistics %s..%s", shortRev(r.From), shortRev(r.To))) + "\n" + tbl.Render()
}

func humanTime(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return fmt.Sprintf("%s (%s)", t.Local().Format("2006-01-02 15:04:05"), humanize.Time(*t))
}

func shortRev(rev string) string {
	if len(rev) == 40 {
		return rev[:12]
	}
	return rev
}
