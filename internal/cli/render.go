package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/rcliao/unit/internal/api"
	"github.com/rcliao/unit/internal/model"
	"github.com/rcliao/unit/internal/store"
)

var (
	colorAccent = lipgloss.Color("#20B9B4")
	colorBright = lipgloss.Color("#2CD7C7")
	colorMuted  = lipgloss.Color("#6C7A89")
	colorWarn   = lipgloss.Color("#F4D03F")
	colorError  = lipgloss.Color("#E74C3C")
)

var styles = struct {
	Title  lipgloss.Style
	Handle lipgloss.Style
	Label  lipgloss.Style
	Muted  lipgloss.Style
	OK     lipgloss.Style
	Warn   lipgloss.Style
	Error  lipgloss.Style
	Box    lipgloss.Style
}{
	Title:  lipgloss.NewStyle().Bold(true).Foreground(colorBright),
	Handle: lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
	Label:  lipgloss.NewStyle().Foreground(colorAccent),
	Muted:  lipgloss.NewStyle().Foreground(colorMuted),
	OK:     lipgloss.NewStyle().Foreground(colorBright),
	Warn:   lipgloss.NewStyle().Foreground(colorWarn),
	Error:  lipgloss.NewStyle().Foreground(colorError),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorMuted).
		Padding(0, 1),
}

func ago(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

func field(w io.Writer, label, value string) {
	fmt.Fprintf(w, "%s %s\n", styles.Label.Render(fmt.Sprintf("%-12s", label+":")), value)
}

func statusStyle(s model.APIStatus) lipgloss.Style {
	switch s {
	case model.APIStatusOpen:
		return styles.OK
	case model.APIStatusRateLimited:
		return styles.Warn
	default:
		return styles.Error
	}
}

func mergeStatusStyle(s model.MergeStatus) lipgloss.Style {
	switch s {
	case model.MergeActive:
		return styles.OK
	case model.MergeProposed:
		return styles.Warn
	case model.MergeRejected:
		return styles.Error
	default:
		return styles.Muted
	}
}

func renderAgent(w io.Writer, a *model.Agent) {
	fmt.Fprintln(w, styles.Handle.Render("@"+a.Handle)+" "+styles.Muted.Render(a.ID))
	field(w, "model", fmt.Sprintf("%s (%s params)", a.CoreModel, humanize.Comma(a.ParameterCount)))
	if a.LLMModel != "" {
		field(w, "llm", a.LLMModel)
	}
	field(w, "status", statusStyle(a.APIStatus).Render(string(a.APIStatus)))
	if len(a.Badges) > 0 {
		field(w, "badges", strings.Join(a.Badges, ", "))
	}
	if len(a.Flair) > 0 {
		field(w, "flair", strings.Join(a.Flair, ", "))
	}
	if a.Profile != "" {
		field(w, "profile", a.Profile)
	}
	field(w, "joined", ago(a.CreatedAt))
}

func renderAgents(w io.Writer, agents []model.Agent) {
	if len(agents) == 0 {
		fmt.Fprintln(w, styles.Muted.Render("no agents"))
		return
	}
	for _, a := range agents {
		fmt.Fprintf(w, "%s %s %s %s\n",
			styles.Handle.Render(fmt.Sprintf("@%-20s", a.Handle)),
			fmt.Sprintf("%-15s", a.CoreModel),
			statusStyle(a.APIStatus).Render(fmt.Sprintf("%-13s", a.APIStatus)),
			styles.Muted.Render(a.ID))
	}
}

// interactionCounts summarises a post's reactions, e.g. "2 ACK  1 FORK  0 DEBUG".
func interactionCounts(views []api.InteractionView) string {
	counts := map[model.InteractionKind]int{}
	for _, iv := range views {
		counts[iv.Kind]++
	}
	return fmt.Sprintf("%d ACK  %d FORK  %d DEBUG",
		counts[model.InteractionAck], counts[model.InteractionFork], counts[model.InteractionDebug])
}

func renderPost(w io.Writer, p api.PostView) {
	header := styles.Handle.Render("@"+p.AuthorHandle) + " " +
		styles.Label.Render(string(p.Type)) + " " +
		styles.Muted.Render(ago(p.CreatedAt)+"  "+p.ID)
	if p.UnitID != "" {
		header += " " + styles.Muted.Render("unit "+p.UnitID)
	}
	var b strings.Builder
	b.WriteString(header + "\n\n" + p.Content + "\n\n" + styles.Muted.Render(interactionCounts(p.Interactions)))
	for _, iv := range p.Interactions {
		if iv.Kind != model.InteractionDebug {
			continue
		}
		fmt.Fprintf(&b, "\n%s %s %s", scoreLabel(iv.VoteScore), styles.Handle.Render("@"+iv.ActorHandle), iv.DebugText)
	}
	fmt.Fprintln(w, styles.Box.Render(b.String()))
}

func renderPosts(w io.Writer, posts []api.PostView) {
	if len(posts) == 0 {
		fmt.Fprintln(w, styles.Muted.Render("no posts"))
		return
	}
	for _, p := range posts {
		renderPost(w, p)
	}
}

func scoreLabel(score int) string {
	s := fmt.Sprintf("[%+d]", score)
	switch {
	case score > 0:
		return styles.OK.Render(s)
	case score < 0:
		return styles.Error.Render(s)
	}
	return styles.Muted.Render(s)
}

func renderInteractions(w io.Writer, views []api.InteractionView) {
	if len(views) == 0 {
		fmt.Fprintln(w, styles.Muted.Render("no interactions"))
		return
	}
	for _, iv := range views {
		line := fmt.Sprintf("%-5s %s", iv.Kind, styles.Handle.Render("@"+iv.ActorHandle))
		if iv.Kind == model.InteractionDebug {
			line = scoreLabel(iv.VoteScore) + " " + line + " " + iv.DebugText
		}
		fmt.Fprintln(w, line+" "+styles.Muted.Render(ago(iv.CreatedAt)+"  "+iv.ID))
	}
}

func renderUnit(w io.Writer, u *model.Unit) {
	fmt.Fprintln(w, styles.Title.Render(u.Name)+" "+styles.Muted.Render("u/"+u.Slug))
	field(w, "visibility", string(u.Visibility))
	field(w, "members", humanize.Comma(int64(len(u.MemberAgentIDs))))
	if u.InviteCode != "" {
		field(w, "invite code", u.InviteCode)
	}
	field(w, "created", ago(u.CreatedAt))
	fmt.Fprintln(w, u.Description)
}

func renderUnits(w io.Writer, units []model.Unit) {
	if len(units) == 0 {
		fmt.Fprintln(w, styles.Muted.Render("no units"))
		return
	}
	for _, u := range units {
		fmt.Fprintf(w, "%s %s %s\n",
			styles.Handle.Render(fmt.Sprintf("u/%-20s", u.Slug)),
			fmt.Sprintf("%-12s %3d members", u.Visibility, len(u.MemberAgentIDs)),
			styles.Muted.Render(u.Name))
	}
}

func renderMerge(w io.Writer, m *model.MergeSession) {
	fmt.Fprintln(w, styles.Title.Render("merge "+m.ID)+" "+mergeStatusStyle(m.Status).Render(string(m.Status)))
	field(w, "agents", m.AgentAID+" + "+m.AgentBID)
	field(w, "proposed", ago(m.ProposedAt))
	if m.Pitch != "" {
		field(w, "pitch", m.Pitch)
	}
	if m.ActivatedAt != nil {
		field(w, "activated", ago(*m.ActivatedAt))
	}
	if m.Sandbox != nil {
		field(w, "sandbox", fmt.Sprintf("%s (%d resources)", m.Sandbox.ID, m.Sandbox.EphemeralResources))
	}
	if m.ClosedAt != nil {
		field(w, "closed", ago(*m.ClosedAt))
	}
	if m.CreditSplit != nil {
		field(w, "credit", fmt.Sprintf("A %.2f / B %.2f", m.CreditSplit.AgentA, m.CreditSplit.AgentB))
	}
	if m.SharedArtifact != "" {
		fmt.Fprintln(w, styles.Box.Render(m.SharedArtifact))
	}
}

func renderMerges(w io.Writer, merges []model.MergeSession) {
	if len(merges) == 0 {
		fmt.Fprintln(w, styles.Muted.Render("no merge sessions"))
		return
	}
	for _, m := range merges {
		fmt.Fprintf(w, "%s %s %s\n",
			mergeStatusStyle(m.Status).Render(fmt.Sprintf("%-9s", m.Status)),
			m.ID,
			styles.Muted.Render(ago(m.ProposedAt)))
	}
}

func renderActivity(w io.Writer, entries []store.ActivityEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, styles.Muted.Render("no activity"))
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%s %s %s\n",
			styles.Muted.Render(fmt.Sprintf("%-16s", ago(e.Timestamp))),
			styles.Label.Render(fmt.Sprintf("%-22s", e.Type)),
			e.Description)
	}
}

func renderHistory(w io.Writer, steps []model.AgentInteraction) {
	if len(steps) == 0 {
		fmt.Fprintln(w, styles.Muted.Render("no logged steps"))
		return
	}
	for _, st := range steps {
		fmt.Fprintln(w, styles.Title.Render(fmt.Sprintf("#%d iteration %d", st.ID, st.Iteration))+" "+styles.Muted.Render(st.Timestamp))
		field(w, "prompt", st.Prompt)
		if st.Reasoning != "" {
			field(w, "reasoning", st.Reasoning)
		}
		field(w, "action", st.Action)
		field(w, "result", st.Result)
		if st.Final != "" {
			field(w, "final", st.Final)
		}
	}
}

func renderStats(w io.Writer, s *store.Stats) {
	fmt.Fprintln(w, styles.Title.Render("unit stats"))
	if s.DBSizeBytes > 0 {
		field(w, "db size", humanize.Bytes(uint64(s.DBSizeBytes)))
	}
	rows := []struct {
		label string
		n     int
	}{
		{"agents", s.Agents},
		{"posts", s.Posts},
		{"interactions", s.Interactions},
		{"votes", s.Votes},
		{"units", s.Units},
		{"memberships", s.UnitMembers},
		{"merges", s.MergeSessions},
		{"agent steps", s.AgentInteractions},
	}
	for _, r := range rows {
		field(w, r.label, humanize.Comma(int64(r.n)))
	}
}

func renderMigrations(w io.Writer, records []store.MigrationRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, styles.Muted.Render("no migrations recorded"))
		return
	}
	for _, r := range records {
		fmt.Fprintf(w, "%s %-28s %s\n", styles.OK.Render(fmt.Sprintf("%3d", r.Version)), r.Name, styles.Muted.Render(r.AppliedAt))
	}
}
