package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lazypower/resurface/internal/engine"
	"github.com/lazypower/resurface/internal/journal"
)

var reviewFilter engine.Filter

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Show the review queue",
	Long:  "Summarize fading and unseen highlights, then list the focus-review queue weakest first.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFilter(reviewFilter); err != nil {
			return err
		}
		return withJournal(func(j *journal.Journal) error {
			st, err := j.ReviewStats(reviewFilter)
			if err != nil {
				return err
			}
			queue, err := j.FocusReview(reviewFilter)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d highlights: %d fading, %d to review, %d never seen\n",
				st.Total, st.Fading, st.FocusReview, st.Unseen)
			if len(queue) == 0 {
				return nil
			}

			fmt.Fprintln(out)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SCORE\tDECAY\tID\tTEXT")
			for _, sc := range queue {
				fmt.Fprintf(tw, "%.1f\t-%.1f\t%s\t%s\n", sc.Score, sc.Decay, sc.Highlight.ID, truncate(sc.Highlight.Text, 60))
			}
			return tw.Flush()
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show integration and recall stats",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withJournal(func(j *journal.Journal) error {
			st, err := j.Stats()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "integration: %d high, %d medium, %d low\n", st.High, st.Medium, st.Low)
			fmt.Fprintf(out, "recall:      %d/%d (%.0f%%)\n", st.RecallSuccesses, st.RecallAttempts, st.SuccessRate*100)
			fmt.Fprintf(out, "views:       %d\n", st.TotalViews)
			return nil
		})
	},
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List tags by use",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withJournal(func(j *journal.Journal) error {
			tags, err := j.Tags()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, tc := range tags {
				fmt.Fprintf(tw, "%d\t%s\n", tc.Count, tc.Tag)
			}
			return tw.Flush()
		})
	},
}

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show highlights captured on this day in earlier years",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withJournal(func(j *journal.Journal) error {
			days, err := j.OnThisDay()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(days) == 0 {
				fmt.Fprintln(out, "Nothing from this day.")
				return nil
			}
			now := j.Now()
			for _, d := range days {
				unit := "years"
				if d.YearsAgo == 1 {
					unit = "year"
				}
				fmt.Fprintf(out, "%d %s ago:\n", d.YearsAgo, unit)
				printCard(out, d.Highlight, now)
			}
			return nil
		})
	},
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	filterFlags(reviewCmd, &reviewFilter)
}
