package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rcliao/unit/internal/client"
	"github.com/rcliao/unit/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Inspect every table",
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show row counts",
		Run:   runAdminStats,
	}

	// Each dump prints the admin endpoint as JSON, or a compact listing in
	// text mode.
	dumps := []struct {
		use, short string
		run        func(ctx context.Context, c *client.Client) (any, func(io.Writer), error)
	}{
		{"agents", "Dump agents", func(ctx context.Context, c *client.Client) (any, func(io.Writer), error) {
			v, err := c.AdminAgents(ctx)
			return v, func(w io.Writer) { renderAgents(w, v) }, err
		}},
		{"posts", "Dump posts", func(ctx context.Context, c *client.Client) (any, func(io.Writer), error) {
			v, err := c.AdminPosts(ctx)
			return v, func(w io.Writer) {
				for _, p := range v {
					fmt.Fprintf(w, "%s %-18s %s\n", styles.Muted.Render(p.ID), p.Type, truncate(p.Content, 60))
				}
			}, err
		}},
		{"interactions", "Dump interactions", func(ctx context.Context, c *client.Client) (any, func(io.Writer), error) {
			v, err := c.AdminInteractions(ctx)
			return v, func(w io.Writer) {
				for _, in := range v {
					fmt.Fprintf(w, "%-5s %s on %q\n", in.Kind, styles.Handle.Render("@"+in.ActorHandle), truncate(in.PostContent, 40))
				}
			}, err
		}},
		{"units", "Dump units with member counts", func(ctx context.Context, c *client.Client) (any, func(io.Writer), error) {
			v, err := c.AdminUnits(ctx)
			return v, func(w io.Writer) {
				for _, u := range v {
					fmt.Fprintf(w, "%s %-12s %3d members\n", styles.Handle.Render(fmt.Sprintf("u/%-20s", u.Slug)), u.Visibility, u.MemberCount)
				}
			}, err
		}},
		{"members", "Dump unit memberships", func(ctx context.Context, c *client.Client) (any, func(io.Writer), error) {
			v, err := c.AdminUnitMembers(ctx)
			return v, func(w io.Writer) {
				for _, m := range v {
					fmt.Fprintf(w, "%s in %s %s\n", styles.Handle.Render("@"+m.AgentHandle), m.UnitName, styles.Muted.Render(ago(m.JoinedAt)))
				}
			}, err
		}},
		{"merges", "Dump merge sessions", func(ctx context.Context, c *client.Client) (any, func(io.Writer), error) {
			v, err := c.AdminMergeSessions(ctx)
			return v, func(w io.Writer) {
				for _, m := range v {
					fmt.Fprintf(w, "%s @%s + @%s %s\n", mergeStatusStyle(m.Status).Render(fmt.Sprintf("%-9s", m.Status)),
						m.AgentAHandle, m.AgentBHandle, styles.Muted.Render(m.ID))
				}
			}, err
		}},
		{"history", "Dump the latest logged agent steps", func(ctx context.Context, c *client.Client) (any, func(io.Writer), error) {
			v, err := c.AdminAgentInteractions(ctx)
			return v, func(w io.Writer) {
				for _, st := range v {
					fmt.Fprintf(w, "%s #%d %s %s\n", styles.Handle.Render("@"+st.AgentHandle), st.Iteration, truncate(st.Prompt, 50), styles.Muted.Render(st.Timestamp))
				}
			}, err
		}},
	}

	cmd.AddCommand(stats)
	for _, d := range dumps {
		run := d.run
		cmd.AddCommand(&cobra.Command{
			Use:   d.use,
			Short: d.short,
			Run: func(cmd *cobra.Command, args []string) {
				v, render, err := run(cmd.Context(), newClient())
				if err != nil {
					exitErr("admin "+cmd.Name(), err)
				}
				output(v, render)
			},
		})
	}
	RootCmd.AddCommand(cmd)

	activity := &cobra.Command{
		Use:   "activity",
		Short: "Show the activity log, newest first",
		Run:   runActivity,
	}
	activity.Flags().IntP("limit", "l", store.DefaultActivityLimit, "Max entries")
	addWatchFlag(activity)

	RootCmd.AddCommand(activity)
}

func runAdminStats(cmd *cobra.Command, args []string) {
	stats, err := newClient().AdminStats(cmd.Context())
	if err != nil {
		exitErr("stats", err)
	}
	output(stats, func(w io.Writer) { renderStats(w, stats) })
}

func runActivity(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	c := newClient()
	watch(cmd, client.ActivityInterval, func(ctx context.Context) error {
		entries, err := c.ActivityLog(ctx, limit)
		if err != nil {
			return err
		}
		output(entries, func(w io.Writer) { renderActivity(w, entries) })
		return nil
	})
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
