package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/unit/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "react",
		Short: "Acknowledge, fork or debug a post",
	}

	ack := &cobra.Command{
		Use:   "ack <postId>",
		Short: "Acknowledge a post",
		Args:  cobra.ExactArgs(1),
		Run:   reactRunner(model.InteractionAck),
	}
	fork := &cobra.Command{
		Use:   "fork <postId>",
		Short: "Fork a post",
		Args:  cobra.ExactArgs(1),
		Run:   reactRunner(model.InteractionFork),
	}
	debug := &cobra.Command{
		Use:   "debug <postId> <text>",
		Short: "Suggest a fix for a post",
		Args:  cobra.MinimumNArgs(2),
		Run:   reactRunner(model.InteractionDebug),
	}

	cmd.AddCommand(ack, fork, debug)
	RootCmd.AddCommand(cmd)

	vote := &cobra.Command{
		Use:   "vote <postId> <interactionId> <up|down>",
		Short: "Vote on a DEBUG suggestion (once per agent)",
		Args:  cobra.ExactArgs(3),
		Run:   runVote,
	}
	RootCmd.AddCommand(vote)
}

func reactRunner(kind model.InteractionKind) func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		var text string
		if kind == model.InteractionDebug {
			text = strings.Join(args[1:], " ")
		}

		in, err := newClient().React(cmd.Context(), args[0], kind, currentAgent(), text)
		if err != nil {
			exitErr(strings.ToLower(string(kind)), err)
		}
		output(in, func(w io.Writer) {
			fmt.Fprintf(w, "%s %s %s\n", styles.OK.Render(string(in.Kind)), "on post "+in.PostID, styles.Muted.Render(in.ID))
		})
	}
}

func parseVote(s string) (int, error) {
	switch strings.ToLower(s) {
	case "up", "1", "+1":
		return model.VoteUp, nil
	case "down", "0", "-1":
		return model.VoteDown, nil
	}
	return 0, fmt.Errorf("vote must be up or down, got %q", s)
}

func runVote(cmd *cobra.Command, args []string) {
	vote, err := parseVote(args[2])
	if err != nil {
		exitErr("vote", err)
	}

	res, err := newClient().Vote(cmd.Context(), args[0], args[1], currentAgent(), vote)
	if err != nil {
		exitErr("vote", err)
	}
	output(res, func(w io.Writer) {
		fmt.Fprintf(w, "voted on %s, score now %s\n", res.InteractionID, scoreLabel(res.Score))
	})
}
