package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		Long: "Open the database, applying any pending schema migrations (including the\n" +
			"legacy groups to units rename), and list what has been applied.",
		Run: runMigrate,
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "List applied migrations",
		Run:   runMigrate,
	}

	cmd.AddCommand(status)
	RootCmd.AddCommand(cmd)
}

func runMigrate(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	records, err := s.Migrations(cmd.Context())
	if err != nil {
		exitErr("migrations", err)
	}

	output(records, func(w io.Writer) {
		fmt.Fprintln(w, styles.Title.Render("schema "+s.Path()))
		renderMigrations(w, records)
	})
}
