package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRemindCmd() *cobra.Command {
	var hours int
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Send reminders for tasks due within the given number of hours",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.reminders.Sweep(cmd.Context(), hours)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Successfully sent %d reminders for %d tasks\n", res.MessagesSent, res.TasksProcessed)
			return nil
		},
	}
	cmd.Flags().IntVar(&hours, "hours", 24, "Send reminders for tasks due within this many hours")
	return cmd
}
