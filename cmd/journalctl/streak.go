package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	streakCmd := &cobra.Command{Use: "streak", Short: "Streak operations"}
	var userID string
	streakCmd.PersistentFlags().StringVarP(&userID, "user", "u", "", "User ID (required)")
	_ = streakCmd.MarkPersistentFlagRequired("user")

	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Show current streak state",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("/api/users/%s/streak", userID))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	streakCmd.AddCommand(getCmd)

	recomputeCmd := &cobra.Command{
		Use:   "recompute",
		Short: "Force a full streak recompute",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doPostJSON(fmt.Sprintf("/api/users/%s/streak/recompute", userID), nil)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	streakCmd.AddCommand(recomputeCmd)

	rootCmd.AddCommand(streakCmd)
}
