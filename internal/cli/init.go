package cli

import (
	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command, which creates the database and
// queue store with the current schema.
func NewInitCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the local database and queue store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(opts)
			if err != nil {
				return err
			}
			defer app.Close()

			f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
			return f.Success(map[string]string{
				"db_path":    app.Config.DBPath,
				"queue_path": app.Config.QueuePath,
			})
		},
	}
}
