// Package cli defines the bookshelf command line: the server and the
// maintenance commands that share its configuration.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/entrypoint"
)

// NewRootCommand builds the command tree. Running it without a subcommand
// starts the server.
func NewRootCommand(version string) *cobra.Command {
	serve := func(cmd *cobra.Command, args []string) error {
		return entrypoint.Run(config.NewConfig(), version)
	}

	root := &cobra.Command{
		Use:           "bookshelf",
		Short:         "A small web catalog of books",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve,
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP server (default)",
			Args:  cobra.NoArgs,
			RunE:  serve,
		},
		NewCreateTablesCommand().Command(),
		NewCreateUserCommand().Command(),
	)

	return root
}

// databaseFlags binds the connection flags shared by the maintenance
// commands, defaulting to the environment configuration.
func databaseFlags(cmd *cobra.Command, target *config.Database) {
	defaults := config.NewConfig().Database
	*target = defaults

	fs := cmd.Flags()
	fs.StringVar((*string)(&target.Driver), "driver", string(defaults.Driver), "database driver: sqlite or mysql")
	fs.StringVar(&target.Path, "db", defaults.Path, "path to the SQLite database file")
	fs.StringVar(&target.DSN, "dsn", defaults.DSN, "MySQL data source name")
}
