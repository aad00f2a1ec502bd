package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/garnizeh/jobtrail/internal/analytics"
	"github.com/garnizeh/jobtrail/internal/followup"
	"github.com/garnizeh/jobtrail/internal/pipeline"
	"github.com/garnizeh/jobtrail/pkg/models"
)

var stageColors = map[models.Stage]lipgloss.Color{
	models.StageTagged:       lipgloss.Color("#999999"),
	models.StageApplying:     lipgloss.Color("#5B8DEF"),
	models.StageInterviewing: lipgloss.Color("#F7B801"),
	models.StageOffer:        lipgloss.Color("#4CAF50"),
	models.StageAccepted:     lipgloss.Color("#2E7D32"),
	models.StageWithdrawn:    lipgloss.Color("#A0AEC0"),
	models.StageRejected:     lipgloss.Color("#FF6B6B"),
	models.StageGhosting:     lipgloss.Color("#B57EDC"),
}

// theme renders through a renderer bound to the output writer, so colors are
// dropped when the output is not a terminal.
type theme struct {
	r       *lipgloss.Renderer
	title   lipgloss.Style
	section lipgloss.Style
	muted   lipgloss.Style
	ok      lipgloss.Style
	warn    lipgloss.Style
	danger  lipgloss.Style
	column  lipgloss.Style
	card    lipgloss.Style
}

func newTheme(w io.Writer) theme {
	r := lipgloss.NewRenderer(w)
	return theme{
		r:       r,
		title:   r.NewStyle().Bold(true),
		section: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")).MarginTop(1),
		muted:   r.NewStyle().Foreground(lipgloss.Color("#A0AEC0")),
		ok:      r.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true),
		warn:    r.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true),
		danger:  r.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		column:  r.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).Width(30),
		card:    r.NewStyle().MarginBottom(1),
	}
}

func (t theme) stage(s models.Stage) string {
	c, ok := stageColors[s]
	if !ok {
		return s.Label()
	}
	return t.r.NewStyle().Foreground(c).Bold(true).Render(s.Label())
}

func (t theme) sectionTitle(s string) string { return t.section.Render(s) }

func (t theme) newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(t.muted).
		Headers(headers...)
}

func (t theme) urgency(u followup.Urgency) lipgloss.Style {
	switch u.Status {
	case followup.StatusDanger:
		return t.danger
	case followup.StatusWarning:
		return t.warn
	}
	return t.ok
}

func (t theme) notification(n pipeline.Notification) string {
	style := t.ok
	switch n.Level {
	case pipeline.LevelError:
		style = t.danger
	case pipeline.LevelWarning:
		style = t.warn
	}
	return style.Render(n.Title+":") + " " + n.Message
}

func (t theme) jobTable(jobs []models.Job) string {
	tbl := t.newTable("ID", "COMPANY", "ROLE", "STAGE", "INTEREST", "WORK", "FOLLOW-UP")
	for _, j := range jobs {
		tbl.Row(j.ID, j.Company, j.Role, t.stage(j.Stage), stars(j.InterestScore), j.LocationType.Label(), followup.Badge(j).Label())
	}
	return tbl.String()
}

func (t theme) board(jobs []models.Job) string {
	cols := make([]string, 0, len(models.KanbanStages()))
	for _, st := range models.KanbanStages() {
		var cards []string
		for _, j := range jobs {
			if j.IsArchived || j.Stage != st {
				continue
			}
			lines := []string{t.title.Render(j.Company), j.Role, stars(j.InterestScore)}
			if b := followup.Badge(j); b != followup.BadgeNone {
				lines = append(lines, t.muted.Render(b.Label()))
			}
			cards = append(cards, t.card.Render(strings.Join(lines, "\n")))
		}
		head := fmt.Sprintf("%s (%d)", t.stage(st), len(cards))
		body := strings.Join(cards, "\n")
		if body == "" {
			body = t.muted.Render("empty")
		}
		cols = append(cols, t.column.Render(head+"\n\n"+body))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (t theme) stats(s analytics.Stats) string {
	tbl := t.newTable("TOTAL", "INTERVIEWING", "OFFERS", "RESPONSE", "INTERVIEW", "OFFER", "GHOSTED")
	tbl.Row(
		strconv.Itoa(s.Total),
		strconv.Itoa(s.Interviewing),
		strconv.Itoa(s.Offers),
		pct(s.ResponseRate),
		pct(s.InterviewRate),
		pct(s.OfferRate),
		pct(s.GhostingRate),
	)
	return tbl.String()
}

func (t theme) distribution(shares []analytics.StageShare) string {
	tbl := t.newTable("STAGE", "JOBS", "SHARE")
	for _, s := range shares {
		tbl.Row(t.stage(s.Stage), strconv.Itoa(s.Count), bar(s.Percent)+" "+pct(s.Percent))
	}
	return tbl.String()
}

func (t theme) locations(counts map[models.LocationType]int) string {
	tbl := t.newTable("WORK", "JOBS")
	for _, l := range []models.LocationType{models.LocationRemote, models.LocationHybrid, models.LocationOnsite} {
		tbl.Row(l.Label(), strconv.Itoa(counts[l]))
	}
	return tbl.String()
}

func (t theme) interest(scores []analytics.ScoreCount) string {
	tbl := t.newTable("INTEREST", "JOBS")
	for _, s := range scores {
		tbl.Row(stars(s.Score), strconv.Itoa(s.Count))
	}
	return tbl.String()
}

func (t theme) monthly(points []analytics.MonthPoint) string {
	tbl := t.newTable("MONTH", "APPLIED", "INTERVIEWS", "OFFERS")
	for _, p := range points {
		tbl.Row(p.Label(), strconv.Itoa(p.Applications), strconv.Itoa(p.Interviews), strconv.Itoa(p.Offers))
	}
	return tbl.String()
}

func (t theme) calendar(events []followup.Event) string {
	tbl := t.newTable("DATE", "KIND", "EVENT", "JOB")
	for _, ev := range events {
		tbl.Row(ev.Date.Format(time.DateOnly), string(ev.Kind), ev.Title, ev.JobID)
	}
	return tbl.String()
}

func (t theme) feed(items []followup.FeedItem) string {
	tbl := t.newTable("DATE", "TYPE", "COMPANY", "ROLE", "ENTRY")
	for _, it := range items {
		tbl.Row(it.Entry.Date.Format(time.DateOnly), string(it.Entry.Type), it.Company, it.Role, it.Entry.Title)
	}
	return tbl.String()
}

func (t theme) contacts(cs []followup.ContactStatus) string {
	tbl := t.newTable("NAME", "ROLE", "EMAIL", "STATUS", "LAST CONTACT")
	for _, c := range cs {
		style := t.urgency(c.Urgency)
		tbl.Row(c.Contact.Name, c.Contact.Role, c.Contact.Email, style.Render(c.Urgency.Short()), c.Urgency.Message)
	}
	return tbl.String()
}

func pct(n int) string { return strconv.Itoa(n) + "%" }

// bar draws n percent as a ten-cell gauge.
func bar(n int) string {
	full := (max(0, min(n, 100)) + 5) / 10
	return strings.Repeat("█", full) + strings.Repeat("░", 10-full)
}
