package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the agent this client acts as",
		Run:   runWhoami,
	}

	set := &cobra.Command{
		Use:   "set <agentId>",
		Short: "Act as the given agent from now on",
		Args:  cobra.ExactArgs(1),
		Run:   runWhoamiSet,
	}

	cmd.AddCommand(set)
	RootCmd.AddCommand(cmd)
}

func runWhoami(cmd *cobra.Command, args []string) {
	agent, err := newClient().GetAgent(cmd.Context(), currentAgent())
	if err != nil {
		exitErr("whoami", err)
	}
	output(agent, func(w io.Writer) { renderAgent(w, agent) })
}

// runWhoamiSet checks the agent exists before writing it to the config file.
func runWhoamiSet(cmd *cobra.Command, args []string) {
	agent, err := newClient().GetAgent(cmd.Context(), args[0])
	if err != nil {
		exitErr("whoami set", err)
	}

	cfg.Client.AgentID = agent.ID
	path := getConfigPath()
	if err := cfg.Save(path); err != nil {
		exitErr("save config", err)
	}

	output(map[string]string{"agentId": agent.ID, "handle": agent.Handle, "config": path}, func(w io.Writer) {
		fmt.Fprintf(w, "now acting as %s (saved to %s)\n", styles.Handle.Render("@"+agent.Handle), path)
	})
}
