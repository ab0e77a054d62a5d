package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func init() {
	daysCmd := &cobra.Command{Use: "days", Short: "Day and message operations"}
	var userID string
	daysCmd.PersistentFlags().StringVarP(&userID, "user", "u", "", "User ID (required)")
	_ = daysCmd.MarkPersistentFlagRequired("user")

	// open
	openCmd := &cobra.Command{
		Use:   "open DATE",
		Short: "Open a day (creates today's record on first open)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("/api/users/%s/days/%s", userID, args[0]))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	daysCmd.AddCommand(openCmd)

	// send
	var text string
	sendCmd := &cobra.Command{
		Use:   "send DATE",
		Short: "Send a message to the given day's chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if text == "" {
				return fmt.Errorf("--text required")
			}
			payload := map[string]interface{}{
				"text":           text,
				"idempotencyKey": uuid.New().String(),
			}
			data, err := doPostJSON(fmt.Sprintf("/api/users/%s/days/%s/messages", userID, args[0]), payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	sendCmd.Flags().StringVarP(&text, "text", "m", "", "Message text (required)")
	_ = sendCmd.MarkFlagRequired("text")
	daysCmd.AddCommand(sendCmd)

	// messages
	messagesCmd := &cobra.Command{
		Use:   "messages DATE",
		Short: "List a day's messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("/api/users/%s/days/%s/messages", userID, args[0]))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	daysCmd.AddCommand(messagesCmd)

	// list
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all days with status",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("/api/users/%s/days", userID))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	daysCmd.AddCommand(listCmd)

	// calendar
	var year, month int
	calendarCmd := &cobra.Command{
		Use:   "calendar",
		Short: "Month calendar with per-day status",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("/api/users/%s/calendar?year=%d&month=%d", userID, year, month))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	calendarCmd.Flags().IntVarP(&year, "year", "y", 0, "Year (required)")
	calendarCmd.Flags().IntVarP(&month, "month", "m", 0, "Month 1-12 (required)")
	_ = calendarCmd.MarkFlagRequired("year")
	_ = calendarCmd.MarkFlagRequired("month")
	daysCmd.AddCommand(calendarCmd)

	// summary
	summaryCmd := &cobra.Command{
		Use:   "summary DATE",
		Short: "Generate a summary of a day's conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doPostJSON(fmt.Sprintf("/api/users/%s/days/%s/summary", userID, args[0]), nil)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	daysCmd.AddCommand(summaryCmd)

	rootCmd.AddCommand(daysCmd)
}
