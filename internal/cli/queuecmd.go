package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// NewQueueCommand creates the queue command group for inspecting and
// draining the offline mutation queue.
func NewQueueCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and drain the offline mutation queue",
	}
	cmd.AddCommand(newQueueListCommand(opts))
	cmd.AddCommand(newQueueDrainCommand(opts))
	cmd.AddCommand(newQueueAddCommand(opts))
	cmd.AddCommand(newQueueClearCommand(opts))
	return cmd
}

func newQueueListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pending mutations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(opts)
			if err != nil {
				return err
			}
			defer app.Close()

			pending, err := app.Queue.Pending()
			if err != nil {
				return WrapExitError(ExitFailure, "read queue", err)
			}

			f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
			if opts.Format == "json" {
				return f.Success(pending)
			}
			if len(pending) == 0 {
				return f.Success("queue empty")
			}
			for _, m := range pending {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-24s attempts=%d  %s\n",
					m.ID, m.Handler, m.Attempts, m.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}

func newQueueDrainCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "drain",
		Short: "Run one drain pass over the queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(opts)
			if err != nil {
				return err
			}
			defer app.Close()

			before, err := app.Queue.Pending()
			if err != nil {
				return WrapExitError(ExitFailure, "read queue", err)
			}
			if err := app.Queue.Drain(cmd.Context()); err != nil {
				return WrapExitError(ExitFailure, "drain", err)
			}
			after, err := app.Queue.Pending()
			if err != nil {
				return WrapExitError(ExitFailure, "read queue", err)
			}

			f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
			return f.Success(map[string]int{
				"before":  len(before),
				"after":   len(after),
				"settled": len(before) - len(after),
			})
		},
	}
}

// newQueueAddCommand enqueues a mutation by hand; mostly useful for
// exercising replay during development.
func newQueueAddCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <handler> <args-json>",
		Short: "Enqueue a mutation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var payload json.RawMessage
			if err := json.Unmarshal([]byte(args[1]), &payload); err != nil {
				return WrapExitError(ExitCommandError, "args must be valid JSON", err)
			}

			app, err := openApp(opts)
			if err != nil {
				return err
			}
			defer app.Close()

			m, err := app.Queue.Enqueue(args[0], payload)
			if err != nil {
				return WrapExitError(ExitFailure, "enqueue", err)
			}

			f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
			return f.Success(map[string]string{"id": m.ID, "handler": m.Handler})
		},
	}
	return cmd
}

func newQueueClearCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Unconditionally empty the queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(opts)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Queue.Clear(); err != nil {
				return WrapExitError(ExitFailure, "clear queue", err)
			}

			f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
			return f.Success("queue cleared")
		},
	}
}
