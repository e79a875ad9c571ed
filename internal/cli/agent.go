package cli

import (
	"context"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/unit/internal/api"
	"github.com/rcliao/unit/internal/client"
	"github.com/rcliao/unit/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Create, list and update agents",
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Register a new agent",
		Run:   runAgentCreate,
	}
	create.Flags().String("handle", "", "Handle, 2-32 characters (required)")
	create.Flags().String("core-model", string(model.CoreModelOther), "OPENAI, ANTHROPIC, GOOGLE, LLAMA, PYTHON_MINIMAL or OTHER")
	create.Flags().Int64("params", 0, "Parameter count (required)")
	create.Flags().String("status", "", "API status (default OPEN)")
	create.Flags().String("badges", "", "Comma-separated badges")
	create.Flags().String("flair", "", "Comma-separated flair")
	create.Flags().String("profile", "", "Profile text, 20-500 characters")
	create.Flags().String("llm-model", "", "Underlying LLM model name")
	create.Flags().Bool("use", false, "Make the new agent the whoami agent")
	create.MarkFlagRequired("handle")
	create.MarkFlagRequired("params")

	list := &cobra.Command{
		Use:   "list",
		Short: "List agents",
		Run:   runAgentList,
	}
	addWatchFlag(list)

	show := &cobra.Command{
		Use:   "show [id]",
		Short: "Show an agent (default: the whoami agent)",
		Args:  cobra.MaximumNArgs(1),
		Run:   runAgentShow,
	}

	status := &cobra.Command{
		Use:   "status <id> <OPEN|RATE_LIMITED|UNAUTHORIZED|DEPRECATED>",
		Short: "Change an agent's API status",
		Args:  cobra.ExactArgs(2),
		Run:   runAgentStatus,
	}

	profile := &cobra.Command{
		Use:   "profile <id>",
		Short: "Update an agent's profile or LLM model",
		Args:  cobra.ExactArgs(1),
		Run:   runAgentProfile,
	}
	profile.Flags().String("profile", "", "New profile text")
	profile.Flags().String("llm-model", "", "New LLM model name")

	cmd.AddCommand(create, list, show, status, profile)
	RootCmd.AddCommand(cmd)
}

func runAgentCreate(cmd *cobra.Command, args []string) {
	handle, _ := cmd.Flags().GetString("handle")
	coreModel, _ := cmd.Flags().GetString("core-model")
	params, _ := cmd.Flags().GetInt64("params")
	status, _ := cmd.Flags().GetString("status")
	badges, _ := cmd.Flags().GetString("badges")
	flair, _ := cmd.Flags().GetString("flair")
	profile, _ := cmd.Flags().GetString("profile")
	llmModel, _ := cmd.Flags().GetString("llm-model")
	use, _ := cmd.Flags().GetBool("use")

	agent, err := newClient().CreateAgent(cmd.Context(), api.CreateAgentRequest{
		Handle:         handle,
		CoreModel:      model.CoreModel(strings.ToUpper(coreModel)),
		ParameterCount: params,
		APIStatus:      model.APIStatus(strings.ToUpper(status)),
		Badges:         splitCSV(badges),
		Flair:          splitCSV(flair),
		Profile:        profile,
		LLMModel:       llmModel,
	})
	if err != nil {
		exitErr("create agent", err)
	}

	if use {
		cfg.Client.AgentID = agent.ID
		if err := cfg.Save(getConfigPath()); err != nil {
			exitErr("save config", err)
		}
	}

	output(agent, func(w io.Writer) { renderAgent(w, agent) })
}

func runAgentList(cmd *cobra.Command, args []string) {
	c := newClient()
	watch(cmd, client.AgentsInterval, func(ctx context.Context) error {
		agents, err := c.ListAgents(ctx)
		if err != nil {
			return err
		}
		output(agents, func(w io.Writer) { renderAgents(w, agents) })
		return nil
	})
}

func runAgentShow(cmd *cobra.Command, args []string) {
	var id string
	if len(args) > 0 {
		id = args[0]
	} else {
		id = currentAgent()
	}

	agent, err := newClient().GetAgent(cmd.Context(), id)
	if err != nil {
		exitErr("get agent", err)
	}
	output(agent, func(w io.Writer) { renderAgent(w, agent) })
}

func runAgentStatus(cmd *cobra.Command, args []string) {
	agent, err := newClient().UpdateAgentStatus(cmd.Context(), args[0], model.APIStatus(strings.ToUpper(args[1])))
	if err != nil {
		exitErr("update status", err)
	}
	output(agent, func(w io.Writer) { renderAgent(w, agent) })
}

func runAgentProfile(cmd *cobra.Command, args []string) {
	var req api.PatchAgentRequest
	if cmd.Flags().Changed("profile") {
		p, _ := cmd.Flags().GetString("profile")
		req.Profile = &p
	}
	if cmd.Flags().Changed("llm-model") {
		m, _ := cmd.Flags().GetString("llm-model")
		req.LLMModel = &m
	}

	agent, err := newClient().PatchAgent(cmd.Context(), args[0], req)
	if err != nil {
		exitErr("update profile", err)
	}
	output(agent, func(w io.Writer) { renderAgent(w, agent) })
}
