package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/rcliao/unit/internal/api"
	"github.com/rcliao/unit/internal/client"
	"github.com/rcliao/unit/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Propose and run merge sessions between two agents",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List merge sessions",
		Run:   runMergeList,
	}
	addWatchFlag(list)

	show := &cobra.Command{
		Use:   "show <mergeId>",
		Short: "Show a merge session (watching stops once it is closed or rejected)",
		Args:  cobra.ExactArgs(1),
		Run:   runMergeShow,
	}
	addWatchFlag(show)

	propose := &cobra.Command{
		Use:   "propose <agentBId>",
		Short: "Propose a merge between the current agent and another",
		Args:  cobra.ExactArgs(1),
		Run:   runMergePropose,
	}
	propose.Flags().String("pitch", "", "Why the two should merge, 10-1000 characters")

	accept := &cobra.Command{
		Use:   "accept <mergeId>",
		Short: "Activate a proposed merge",
		Args:  cobra.ExactArgs(1),
		Run: mergeRunner("accept", func(ctx context.Context, c *client.Client, cmd *cobra.Command, id string) (*model.MergeSession, error) {
			return c.AcceptMerge(ctx, id)
		}),
	}

	reject := &cobra.Command{
		Use:   "reject <mergeId>",
		Short: "Reject a proposed merge",
		Args:  cobra.ExactArgs(1),
		Run: mergeRunner("reject", func(ctx context.Context, c *client.Client, cmd *cobra.Command, id string) (*model.MergeSession, error) {
			reason, _ := cmd.Flags().GetString("reason")
			return c.RejectMerge(ctx, id, reason)
		}),
	}
	reject.Flags().String("reason", "", "Reason, stored as the session's shared artifact")

	simulate := &cobra.Command{
		Use:   "simulate <mergeId>",
		Short: "Size the sandbox of an active merge",
		Args:  cobra.ExactArgs(1),
		Run: mergeRunner("simulate", func(ctx context.Context, c *client.Client, cmd *cobra.Command, id string) (*model.MergeSession, error) {
			resources, _ := cmd.Flags().GetInt("resources")
			return c.SimulateSandbox(ctx, id, resources)
		}),
	}
	simulate.Flags().Int("resources", 0, "Ephemeral resources, 1-1000 (default 3)")

	closeCmd := &cobra.Command{
		Use:   "close <mergeId>",
		Short: "Close an active merge",
		Args:  cobra.ExactArgs(1),
		Run: mergeRunner("close", func(ctx context.Context, c *client.Client, cmd *cobra.Command, id string) (*model.MergeSession, error) {
			artifact, _ := cmd.Flags().GetString("artifact")
			req := api.CloseMergeRequest{SharedArtifact: artifact}
			if cmd.Flags().Changed("split-a") || cmd.Flags().Changed("split-b") {
				a, _ := cmd.Flags().GetFloat64("split-a")
				b, _ := cmd.Flags().GetFloat64("split-b")
				req.CreditSplit = &api.CreditSplitRequest{AgentA: &a, AgentB: &b}
			}
			return c.CloseMerge(ctx, id, req)
		}),
	}
	closeCmd.Flags().String("artifact", "", "Shared artifact produced by the merge")
	closeCmd.Flags().Float64("split-a", 0, "Credit for agent A")
	closeCmd.Flags().Float64("split-b", 0, "Credit for agent B")

	cmd.AddCommand(list, show, propose, accept, reject, simulate, closeCmd)
	RootCmd.AddCommand(cmd)
}

func runMergeList(cmd *cobra.Command, args []string) {
	c := newClient()
	watch(cmd, client.MergeInterval, func(ctx context.Context) error {
		merges, err := c.ListMerges(ctx)
		if err != nil {
			return err
		}
		output(merges, func(w io.Writer) { renderMerges(w, merges) })
		return nil
	})
}

func runMergeShow(cmd *cobra.Command, args []string) {
	c := newClient()
	watch(cmd, client.MergeInterval, func(ctx context.Context) error {
		m, err := c.GetMerge(ctx, args[0])
		if err != nil {
			return err
		}
		output(m, func(w io.Writer) { renderMerge(w, m) })
		if m.Status.Terminal() {
			return client.ErrStopPolling
		}
		return nil
	})
}

func runMergePropose(cmd *cobra.Command, args []string) {
	pitch, _ := cmd.Flags().GetString("pitch")

	m, err := newClient().ProposeMerge(cmd.Context(), api.ProposeMergeRequest{
		AgentAID: currentAgent(),
		AgentBID: args[0],
		Pitch:    pitch,
	})
	if err != nil {
		exitErr("propose merge", err)
	}
	output(m, func(w io.Writer) { renderMerge(w, m) })
}

type mergeAction func(ctx context.Context, c *client.Client, cmd *cobra.Command, id string) (*model.MergeSession, error)

// mergeRunner wraps a state transition; invalid transitions come back as the
// server's 400 message.
func mergeRunner(name string, action mergeAction) func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		m, err := action(cmd.Context(), newClient(), cmd, args[0])
		if err != nil {
			exitErr(name+" merge", err)
		}
		output(m, func(w io.Writer) { renderMerge(w, m) })
	}
}
