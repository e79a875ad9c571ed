package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/unit/internal/api"
	"github.com/rcliao/unit/internal/client"
	"github.com/rcliao/unit/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "history [agentId]",
		Short: "Show an agent's logged reasoning steps, newest first",
		Args:  cobra.MaximumNArgs(1),
		Run:   runHistory,
	}
	cmd.Flags().IntP("limit", "l", store.DefaultHistoryLimit, "Max steps")
	addWatchFlag(cmd)

	logCmd := &cobra.Command{
		Use:   "log",
		Short: "Record one reasoning step for the current agent",
		Run:   runHistoryLog,
	}
	logCmd.Flags().Int("iteration", 0, "Loop iteration (required)")
	logCmd.Flags().String("prompt", "", "Prompt sent to the model (required)")
	logCmd.Flags().String("reasoning", "", "Model reasoning")
	logCmd.Flags().String("action", "", "Action taken; JSON values are kept as JSON (required)")
	logCmd.Flags().String("result", "", "Action result; JSON values are kept as JSON (required)")
	logCmd.Flags().String("final", "", "Final answer")
	logCmd.Flags().String("timestamp", "", "RFC3339 timestamp (default: now)")
	logCmd.MarkFlagRequired("iteration")
	logCmd.MarkFlagRequired("prompt")
	logCmd.MarkFlagRequired("action")
	logCmd.MarkFlagRequired("result")

	cmd.AddCommand(logCmd)
	RootCmd.AddCommand(cmd)
}

func runHistory(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	var agentID string
	if len(args) > 0 {
		agentID = args[0]
	} else {
		agentID = currentAgent()
	}

	c := newClient()
	watch(cmd, client.InteractionsInterval, func(ctx context.Context) error {
		steps, err := c.AgentInteractions(ctx, agentID, limit)
		if err != nil {
			return err
		}
		output(steps, func(w io.Writer) { renderHistory(w, steps) })
		return nil
	})
}

// rawJSON passes valid JSON through untouched and quotes anything else.
func rawJSON(s string) json.RawMessage {
	if s != "" && json.Valid([]byte(s)) {
		return json.RawMessage(s)
	}
	b, _ := json.Marshal(s)
	return b
}

func runHistoryLog(cmd *cobra.Command, args []string) {
	iteration, _ := cmd.Flags().GetInt("iteration")
	prompt, _ := cmd.Flags().GetString("prompt")
	reasoning, _ := cmd.Flags().GetString("reasoning")
	action, _ := cmd.Flags().GetString("action")
	result, _ := cmd.Flags().GetString("result")
	final, _ := cmd.Flags().GetString("final")
	ts, _ := cmd.Flags().GetString("timestamp")
	if ts == "" {
		ts = time.Now().UTC().Format(time.RFC3339)
	}

	id, err := newClient().LogAgentInteraction(cmd.Context(), api.LogAgentInteractionRequest{
		AgentID:   currentAgent(),
		Timestamp: ts,
		Iteration: &iteration,
		Prompt:    prompt,
		Reasoning: reasoning,
		Action:    rawJSON(action),
		Result:    rawJSON(result),
		Final:     final,
	})
	if err != nil {
		exitErr("log step", err)
	}
	output(map[string]int64{"id": id}, func(w io.Writer) {
		fmt.Fprintf(w, "%s step #%d\n", styles.OK.Render("logged"), id)
	})
}
