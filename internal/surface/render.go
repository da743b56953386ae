package surface

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"skillscope/dashboard/internal/dashboard"
	"skillscope/dashboard/internal/model"
)

// RenderText writes a plain-text view of snap.
func RenderText(w io.Writer, snap dashboard.Snapshot) error {
	p := &printer{w: w}

	p.line("Status: %s", StatusLine(snap.Status))
	if snap.Refreshing {
		p.line("Refreshing recommender...")
	}
	if last := snap.LastMaintenance; last != nil {
		outcome := "ok"
		if !last.OK {
			outcome = "failed"
		}
		p.line("Last %s: %s %s", last.Operation, outcome, last.Message)
	}
	p.line("")

	sel := snap.Selection
	if sel.Selected == nil {
		p.line("Select a user to view recommendations")
	} else {
		u := sel.Selected
		p.line("User: %s (#%d) %s, %d years", u.Name, u.ID, u.PrimaryFocus, u.ExperienceYears)
		if len(u.Skills) > 0 {
			p.line("Skills: %s", strings.Join(u.Skills, ", "))
		}
		if sel.Loading {
			p.line("Loading...")
		}
		p.line("")
		RenderRecommendation(p.w, model.Recommendation{
			Market:        sel.Market,
			Collaborative: sel.Collaborative,
			Analysis:      sel.Analysis,
			JobMatches:    sel.JobMatches,
		})
		p.line("")
		RenderSkillGaps(p.w, sel.SkillGaps)
	}

	if len(snap.Failures) > 0 {
		p.line("")
		p.line("Recent failures:")
		for _, f := range snap.Failures {
			p.line("  %s  %-12s %-20s %s", f.Time.Format("15:04:05"), f.Operation, f.Kind, f.Message)
		}
	}
	return p.err
}

// RenderRecommendation writes both recommendation lists, the analysis and job matches.
func RenderRecommendation(w io.Writer, rec model.Recommendation) {
	p := &printer{w: w}
	p.list("Market recommendations", rec.Market, "No market recommendations available")
	p.list("Collaborative recommendations", rec.Collaborative, "No collaborative recommendations available")
	if rec.Analysis == "" {
		p.line("Analysis: No analysis insights available")
	} else {
		p.line("Analysis: %s", rec.Analysis)
	}
	p.line("")
	RenderJobMatches(w, rec.JobMatches)
}

// RenderJobMatches writes one row per match with its percentage.
func RenderJobMatches(w io.Writer, matches []model.JobMatch) {
	if len(matches) == 0 {
		fmt.Fprintln(w, "No job matches found")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "JOB\tCOMPANY\tMATCH")
	for _, m := range matches {
		fmt.Fprintf(tw, "%s\t%s\t%d%%\n", m.Title, m.Company, MatchPercent(m.MatchScore))
	}
	_ = tw.Flush()
}

// RenderSkillGaps writes one row per gap with its priority band.
func RenderSkillGaps(w io.Writer, gaps []model.SkillGap) {
	if len(gaps) == 0 {
		fmt.Fprintln(w, "No skill gaps identified")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SKILL\tPRIORITY\tRELEVANCE")
	for _, g := range gaps {
		fmt.Fprintf(tw, "%s\t%s\t%d%%\n", g.Skill, ImportanceBucket(g.Importance), MatchPercent(g.Importance))
	}
	_ = tw.Flush()
}

// RenderUsers writes the user directory as a table.
func RenderUsers(w io.Writer, users []model.User) {
	if len(users) == 0 {
		fmt.Fprintln(w, "No users found")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tFOCUS\tYEARS\tSKILLS")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", u.ID, u.Name, u.PrimaryFocus, u.ExperienceYears, strings.Join(u.Skills, ", "))
	}
	_ = tw.Flush()
}

// RenderJobs writes the job directory as a table.
func RenderJobs(w io.Writer, jobs []model.Job) {
	if len(jobs) == 0 {
		fmt.Fprintln(w, "No jobs found")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCOMPANY\tSKILLS")
	for _, j := range jobs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", j.ID, j.Title, j.Company, strings.Join(j.Skills, ", "))
	}
	_ = tw.Flush()
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) list(title string, items []string, empty string) {
	if len(items) == 0 {
		p.line("%s: %s", title, empty)
		return
	}
	p.line("%s:", title)
	for i, item := range items {
		p.line("  %d. %s", i+1, item)
	}
}
