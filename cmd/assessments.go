package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/zuvy/assess/internal/api"
	"github.com/zuvy/assess/internal/assessment"
)

var assessmentsCmd = &cobra.Command{
	Use:     "assessments",
	Aliases: []string{"a"},
	Short:   "List or create assessments",
}

var assessmentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your assessments (or every configuration with --all)",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		bootcamp, _ := cmd.Flags().GetInt("bootcamp")

		s, err := openSession(cmd, nil)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		if _, err := s.requireUser(ctx); err != nil {
			return err
		}

		if all {
			list, err := s.client.Assessments(ctx, bootcamp)
			if err != nil {
				return fmt.Errorf("list assessments: %w", err)
			}
			printAssessments(list)
			return nil
		}

		list, err := s.client.StudentAssessments(ctx, bootcamp)
		if err != nil {
			return fmt.Errorf("list assessments: %w", err)
		}
		printStudentAssessments(list, time.Now())
		return nil
	},
}

func printAssessments(list []assessment.Assessment) {
	if len(list) == 0 {
		fmt.Println("No assessments found.")
		return
	}
	fmt.Printf("%-5s  %-8s  %-32s  %-5s  %-16s  %s\n",
		"ID", "Bootcamp", "Title", "Qs", "Start", "End")
	fmt.Println(strings.Repeat("─", 90))
	for _, a := range list {
		fmt.Printf("%-5d  %-8d  %-32s  %-5d  %-16s  %s\n",
			a.ID, a.BootcampID, truncate(a.Title, 32), a.TotalNumberOfQuestions,
			a.StartDatetime.Local().Format("2006-01-02 15:04"),
			a.EndDatetime.Local().Format("2006-01-02 15:04"))
	}
}

func printStudentAssessments(list []assessment.StudentAssessment, now time.Time) {
	if len(list) == 0 {
		fmt.Println("No assessments available.")
		return
	}
	fmt.Printf("%-5s  %-32s  %-10s  %-5s  %s\n", "ID", "Title", "Status", "Qs", "Window")
	fmt.Println(strings.Repeat("─", 80))
	for _, a := range list {
		status := assessment.AvailabilityAt(a, now)
		var window string
		switch status {
		case assessment.Upcoming:
			window = "starts " + a.StartDatetime.Local().Format("2006-01-02 15:04")
		case assessment.Active:
			window = assessment.TimeRemaining(a.EndDatetime, now)
		case assessment.Submitted:
			window = fmt.Sprintf("zuvy results %d", a.ID)
		default:
			window = "ended " + a.EndDatetime.Local().Format("2006-01-02 15:04")
		}
		fmt.Printf("%-5d  %-32s  %-10s  %-5d  %s\n",
			a.ID, truncate(a.Title, 32), status, a.TotalNumberOfQuestions, window)
	}
}

var assessmentsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Configure a new AI-generated assessment",
	Example: `  zuvy assessments create --bootcamp 7 --title "Week 3 quiz" \
    --description "Arrays and loops" --topic Arrays=5 --topic Loops=3 \
    --start "2026-03-12 09:00" --end "2026-03-14 18:00"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		draft, err := draftFromFlags(cmd)
		if err != nil {
			return err
		}
		if err := draft.Validate(time.Now()); err != nil {
			return validationError(err)
		}

		s, err := openSession(cmd, nil)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		if _, err := s.requireUser(ctx); err != nil {
			return err
		}
		created, err := s.client.CreateAssessment(ctx, draft.CreateRequest())
		if err != nil {
			return fmt.Errorf("create assessment: %s", api.Message(err, err.Error()))
		}
		s.logger.Info("assessment created", "assessment_id", created.ID, "questions", created.TotalNumberOfQuestions)
		fmt.Printf("Created assessment %d %q with %d questions.\n",
			created.ID, created.Title, created.TotalNumberOfQuestions)
		return nil
	},
}

func draftFromFlags(cmd *cobra.Command) (*assessment.Draft, error) {
	flags := cmd.Flags()
	bootcamp, _ := flags.GetInt("bootcamp")
	title, _ := flags.GetString("title")
	description, _ := flags.GetString("description")
	topics, _ := flags.GetStringArray("topic")
	start, _ := flags.GetString("start")
	end, _ := flags.GetString("end")

	d := &assessment.Draft{BootcampID: bootcamp, Title: title, Description: description}
	for _, raw := range topics {
		name, count, err := parseTopic(raw)
		if err != nil {
			return nil, err
		}
		if err := d.AddTopic(name, count); err != nil {
			return nil, fmt.Errorf("topic %q: %w", raw, err)
		}
	}

	var err error
	if start != "" {
		if d.Start, err = parseTime(start); err != nil {
			return nil, fmt.Errorf("--start: %w", err)
		}
	}
	if end != "" {
		if d.End, err = parseTime(end); err != nil {
			return nil, fmt.Errorf("--end: %w", err)
		}
	}
	return d, nil
}

// parseTopic splits "name=count".
func parseTopic(s string) (string, int, error) {
	i := strings.LastIndex(s, "=")
	if i < 0 {
		return "", 0, fmt.Errorf("topic %q: want name=count", s)
	}
	count, err := strconv.Atoi(strings.TrimSpace(s[i+1:]))
	if err != nil {
		return "", 0, fmt.Errorf("topic %q: count must be a number", s)
	}
	return strings.TrimSpace(s[:i]), count, nil
}

var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02T15:04", time.DateOnly}

// parseTime accepts RFC 3339 or a local date with optional time.
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q (use YYYY-MM-DD HH:MM)", s)
}

// validationError flattens draft validation errors into one line each.
func validationError(err error) error {
	var verrs assessment.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	return errors.New(strings.Join(verrs.Messages(), "\n"))
}

func init() {
	assessmentsListCmd.Flags().Bool("all", false, "List every assessment configuration (administrators)")

	f := assessmentsCreateCmd.Flags()
	f.String("title", "", "Assessment title")
	f.String("description", "", "Assessment description")
	f.StringArray("topic", nil, "Topic and question count as name=count (repeatable)")
	f.String("start", "", "Start date and time")
	f.String("end", "", "End date and time")

	assessmentsCmd.AddCommand(assessmentsListCmd)
	assessmentsCmd.AddCommand(assessmentsCreateCmd)
}
