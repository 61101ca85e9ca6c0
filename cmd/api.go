package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Inspect recorded backend requests",
}

var apiListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent backend requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		failed, _ := cmd.Flags().GetBool("failed")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventRepo().QueryAPIEvents(cmd.Context(), queryOpts(cmd, limit))
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("No API events found.")
			return nil
		}

		fmt.Printf("%-5s  %-19s  %-6s  %-40s  %-6s  %-7s  %s\n",
			"ID", "Timestamp", "Method", "Path", "Status", "Ms", "OK")
		fmt.Println(strings.Repeat("─", 100))
		for _, e := range events {
			if failed && e.Success {
				continue
			}
			ok := okMark(e.Success)
			if e.Retried {
				ok += " (retried)"
			}
			fmt.Printf("%-5d  %-19s  %-6s  %-40s  %-6d  %-7d  %s\n",
				e.ID,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				e.Method,
				truncate(e.Path, 40),
				e.Status,
				e.LatencyMs,
				ok,
			)
		}
		return nil
	},
}

var apiViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "View one backend request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var id int
		if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		e, err := s.EventRepo().GetAPIEvent(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if e == nil {
			return fmt.Errorf("event %d not found", id)
		}

		fmt.Printf("ID:         %d\n", e.ID)
		fmt.Printf("Time:       %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("Request ID: %s\n", e.RequestID)
		fmt.Printf("Request:    %s %s\n", e.Method, e.Path)
		fmt.Printf("Status:     %d\n", e.Status)
		fmt.Printf("Latency:    %dms\n", e.LatencyMs)
		fmt.Printf("Retried:    %v\n", e.Retried)
		fmt.Printf("Success:    %v\n", e.Success)
		if e.ErrorMessage != "" {
			fmt.Printf("Error:      %s\n", e.ErrorMessage)
		}
		return nil
	},
}

var apiStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show call counts and latency per endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		usage, err := s.EventRepo().APIUsageByPath(cmd.Context())
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}
		if len(usage) == 0 {
			fmt.Println("No API requests recorded yet.")
			return nil
		}

		fmt.Printf("%-6s  %-40s  %6s  %8s  %8s\n", "Method", "Path", "Calls", "Failures", "Avg Ms")
		fmt.Println(strings.Repeat("─", 78))
		var calls, failures int
		for _, u := range usage {
			fmt.Printf("%-6s  %-40s  %6d  %8d  %8d\n",
				u.Method, truncate(u.Path, 40), u.Calls, u.Failures, u.AvgLatencyMs)
			calls += u.Calls
			failures += u.Failures
		}
		fmt.Println(strings.Repeat("─", 78))
		fmt.Printf("%-6s  %-40s  %6d  %8d\n", "TOTAL", "", calls, failures)
		return nil
	},
}

func init() {
	apiListCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	apiListCmd.Flags().Duration("since", 0, "Only show events newer than this (e.g. 24h)")
	apiListCmd.Flags().Bool("failed", false, "Only show failed requests")

	apiCmd.AddCommand(apiListCmd)
	apiCmd.AddCommand(apiViewCmd)
	apiCmd.AddCommand(apiStatsCmd)
}
