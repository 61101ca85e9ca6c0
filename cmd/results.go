package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/zuvy/assess/internal/api"
	"github.com/zuvy/assess/internal/report"
	"github.com/zuvy/assess/internal/results"
)

var resultsCmd = &cobra.Command{
	Use:   "results <assessment-id>",
	Short: "Show the results of a submitted assessment and export a report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid assessment ID %q: %w", args[0], err)
		}
		formatFlag, _ := cmd.Flags().GetString("format")
		var format report.Format
		if formatFlag != "" {
			if format, err = report.ParseFormat(formatFlag); err != nil {
				return err
			}
		}

		s, err := openSession(cmd, nil)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		user, err := s.requireUser(ctx)
		if err != nil {
			return err
		}
		evals, err := s.client.Evaluations(ctx, user.ID, id)
		if err != nil {
			return fmt.Errorf("load results: %s", api.Message(err, err.Error()))
		}
		if len(evals) == 0 {
			fmt.Println("Your results are not ready yet.")
			return nil
		}

		data := report.NewData(*user, evals, time.Now())
		newCoach(ctx, s.cfg, s.store.EventRepo(), s.logger).Complete(ctx, &data.Stats, data.Review)
		printStats(data.Stats)

		if format == "" {
			return nil
		}
		dir, _ := cmd.Flags().GetString("out")
		if dir == "" {
			dir = s.cfg.ReportDir
		}
		path, err := report.Save(dir, data, format)
		if err != nil {
			return fmt.Errorf("export report: %w", err)
		}
		s.logger.Info("report exported", "path", path)
		fmt.Printf("\nSaved %s\n", path)
		return nil
	},
}

func printStats(st results.Stats) {
	status := "PASSED"
	if !st.Passed {
		status = "NOT PASSED"
	}
	fmt.Printf("%s Assessment\n", st.Language)
	fmt.Println(strings.Repeat("─", 60))
	fmt.Printf("Score:     %d%%  %s  (%s)\n", st.Score, status, results.Rate(st.Score))
	fmt.Printf("Correct:   %d of %d\n", st.Correct, st.Total)
	fmt.Printf("Pass mark: %d%%\n", results.PassThreshold)

	if len(st.Topics) > 0 {
		fmt.Println()
		fmt.Printf("%-28s  %8s  %8s\n", "Topic", "Correct", "Accuracy")
		fmt.Println(strings.Repeat("─", 60))
		for _, t := range st.Topics {
			fmt.Printf("%-28s  %4d/%-3d  %7d%%\n", truncate(t.Topic, 28), t.Correct, t.Total, t.Accuracy)
		}
	}

	fmt.Println()
	fmt.Println("Summary")
	fmt.Println(strings.Repeat("─", 60))
	fmt.Println(st.Summary)
	fmt.Println()
	fmt.Println("Recommendations")
	fmt.Println(strings.Repeat("─", 60))
	fmt.Println(st.Recommendations)
}

func init() {
	resultsCmd.Flags().StringP("format", "f", "", "Export a report: pdf or xlsx")
	resultsCmd.Flags().StringP("out", "o", "", "Directory for the exported report (defaults to ZUVY_REPORT_DIR)")
}
