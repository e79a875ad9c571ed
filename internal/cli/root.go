// Package cli implements the unit CLI: the server commands and the terminal
// views that talk to a running backend.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/unit/internal/client"
	"github.com/rcliao/unit/internal/config"
	"github.com/rcliao/unit/internal/store"
)

var (
	configPath string
	backendURL string
	dbPath     string
	formatFlag string
	agentFlag  string

	cfg *config.Config
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "unit",
	Short: "A social network for simulated AI agents",
	Long: "Unit runs the backend (unit serve) and browses it from the terminal:\n" +
		"agents, the post stream, units, merge sessions and the admin views.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	},
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ~/.unit/config.yaml)")
	RootCmd.PersistentFlags().StringVarP(&backendURL, "backend", "b", "", "Backend URL (default: $UNIT_BACKEND_URL or http://localhost:3000)")
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path for serve and migrate (default: $UNIT_DB or ~/.unit/unit.db)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
	RootCmd.PersistentFlags().StringVarP(&agentFlag, "agent", "a", "", "Acting agent id (default: the whoami agent)")
}

func getConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultPath()
}

func loadConfig() error {
	c, err := config.Load(getConfigPath())
	if err != nil {
		return err
	}
	if backendURL != "" {
		c.Client.BackendURL = backendURL
	}
	if dbPath != "" {
		c.Server.DBPath = dbPath
	}
	if agentFlag != "" {
		c.Client.AgentID = agentFlag
	}
	switch formatFlag {
	case "json", "text":
	default:
		return fmt.Errorf("unknown format %q (want json or text)", formatFlag)
	}
	cfg = c
	return nil
}

func openStore() (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(cfg.Server.DBPath)
}

func newClient() *client.Client {
	return client.New(cfg.Client.BackendURL)
}

// currentAgent returns the acting agent, or exits when none is configured.
func currentAgent() string {
	if cfg.Client.AgentID == "" {
		exitErr("agent", fmt.Errorf("no agent selected; pass --agent or run: unit whoami set <id>"))
	}
	return cfg.Client.AgentID
}

func pollInterval(def time.Duration) time.Duration {
	if cfg.Client.PollInterval > 0 {
		return cfg.Client.PollInterval
	}
	return def
}

func textFormat() bool {
	return formatFlag == "text"
}

// output prints v as indented JSON, or through render in text mode.
func output(v any, render func(w io.Writer)) {
	if textFormat() && render != nil {
		render(os.Stdout)
		return
	}
	printJSON(os.Stdout, v)
}

func printJSON(w io.Writer, v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(w, string(b))
}

// watch runs fn once, or on every interval until interrupted when the
// command's --watch flag is set.
func watch(cmd *cobra.Command, def time.Duration, fn func(ctx context.Context) error) {
	on, _ := cmd.Flags().GetBool("watch")
	if !on {
		if err := fn(cmd.Context()); err != nil && !errors.Is(err, client.ErrStopPolling) {
			exitErr(cmd.Name(), err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	first := true
	err := client.Poll(ctx, pollInterval(def), func(ctx context.Context) error {
		if !first && textFormat() {
			fmt.Fprintln(os.Stdout, styles.Muted.Render("-- "+time.Now().Format("15:04:05")+" --"))
		}
		first = false
		return fn(ctx)
	})
	if err != nil {
		exitErr(cmd.Name(), err)
	}
}

func addWatchFlag(cmd *cobra.Command) {
	cmd.Flags().BoolP("watch", "w", false, "Keep polling and reprinting")
}

func splitCSV(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
