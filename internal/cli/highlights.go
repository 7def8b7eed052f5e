package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lazypower/resurface/internal/engine"
	"github.com/lazypower/resurface/internal/importer"
	"github.com/lazypower/resurface/internal/journal"
	"github.com/lazypower/resurface/internal/model"
)

// printCard writes one highlight the way the card UI lays it out.
func printCard(w io.Writer, h *model.Highlight, now time.Time) {
	fmt.Fprintf(w, "%q\n", h.Text)
	var byline []string
	if !model.IsPlaceholderAuthor(h.Author) {
		byline = append(byline, h.Author)
	}
	if !model.IsPlaceholderTitle(h.Title) {
		byline = append(byline, h.Title)
	}
	if len(byline) > 0 {
		fmt.Fprintf(w, "  - %s\n", strings.Join(byline, ", "))
	}
	if h.Comment != nil {
		fmt.Fprintf(w, "  note: %s\n", *h.Comment)
	}
	fmt.Fprintf(w, "  [%s] score %.1f  views %d  recall %d/%d  %s\n",
		h.Source, engine.DecayedScore(h, now), h.ViewCount, h.RecallSuccesses, h.RecallAttempts, h.ID)
}

func filterFlags(cmd *cobra.Command, f *engine.Filter) {
	cmd.Flags().StringVar((*string)(&f.Source), "source", "", "Only highlights from this source")
	cmd.Flags().StringVar(&f.Tag, "tag", "", "Only highlights with this tag (e.g. author:seneca)")
}

func checkFilter(f engine.Filter) error {
	if f.Source != "" && !f.Source.Valid() {
		return fmt.Errorf("unknown source %q", f.Source)
	}
	return nil
}

// withJournal opens the journal, runs fn, and closes the database.
func withJournal(fn func(j *journal.Journal) error) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.DB.Close()
	return fn(j)
}

// --- add command ---

var addRecord importer.Record

var addCmd = &cobra.Command{
	Use:   "add [text]",
	Short: "Add a highlight",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec := addRecord
		rec.Text = strings.Join(args, " ")
		return withJournal(func(j *journal.Journal) error {
			h, err := j.Add(rec)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", h.ID)
			return nil
		})
	},
}

// --- import / export commands ---

var (
	importRestore bool
	importSource  string
)

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import highlights from a JSON file (- for stdin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var r io.Reader = cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
		}

		records, err := importer.ReadJSON(r)
		if err != nil {
			return err
		}
		opts := importer.Options{KeepState: importRestore, DefaultSource: model.Source(importSource)}

		return withJournal(func(j *journal.Journal) error {
			res, err := j.Import(records, opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "imported %d, skipped %d existing\n", res.Added, res.Skipped)
			for _, rej := range res.Rejected {
				fmt.Fprintf(out, "  record %d rejected: %s\n", rej.Index, rej.Error)
			}
			return nil
		})
	},
}

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export all highlights, memory state included, as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withJournal(func(j *journal.Journal) error {
			hs, err := j.List(engine.Filter{})
			if err != nil {
				return err
			}
			if len(args) == 0 {
				return importer.WriteJSON(cmd.OutOrStdout(), hs)
			}

			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			if err := importer.WriteJSON(f, hs); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "exported %d highlights to %s\n", len(hs), args[0])
			return nil
		})
	},
}

// --- next command ---

var (
	nextFilter  engine.Filter
	nextCurrent string
)

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Show the next highlight and record the view",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFilter(nextFilter); err != nil {
			return err
		}
		return withJournal(func(j *journal.Journal) error {
			picked, err := j.Next(nextFilter, nextCurrent)
			if err != nil {
				return err
			}
			if picked == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No highlights found.")
				return nil
			}
			h, err := j.View(picked.ID)
			if err != nil {
				return err
			}
			printCard(cmd.OutOrStdout(), h, j.Now())
			return nil
		})
	},
}

// --- per-highlight commands ---

var recallSuccess bool

var recallCmd = &cobra.Command{
	Use:   "recall [id]",
	Short: "Record a recall attempt (--success if you remembered it)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withJournal(func(j *journal.Journal) error {
			h, err := j.Recall(args[0], recallSuccess)
			if err != nil {
				return err
			}
			printCard(cmd.OutOrStdout(), h, j.Now())
			return nil
		})
	},
}

var commentCmd = &cobra.Command{
	Use:   "comment [id] [text]",
	Short: "Comment on a highlight",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.TrimSpace(strings.Join(args[1:], " "))
		if text == "" {
			return fmt.Errorf("comment required")
		}
		return withJournal(func(j *journal.Journal) error {
			h, err := j.Comment(args[0], text)
			if err != nil {
				return err
			}
			printCard(cmd.OutOrStdout(), h, j.Now())
			return nil
		})
	},
}

var tagRemove bool

var tagCmd = &cobra.Command{
	Use:   "tag [id] [tag]",
	Short: "Tag a highlight (--remove to untag)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withJournal(func(j *journal.Journal) error {
			var h *model.Highlight
			var err error
			if tagRemove {
				h, err = j.Untag(args[0], args[1])
			} else {
				h, err = j.Tag(args[0], args[1])
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s tags: %s\n", h.ID, strings.Join(h.Tags, ", "))
			return nil
		})
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm [id]",
	Short: "Delete a highlight",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withJournal(func(j *journal.Journal) error {
			if err := j.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		})
	},
}

func init() {
	addCmd.Flags().StringVar(&addRecord.Title, "title", "", "Book or collection title")
	addCmd.Flags().StringVar(&addRecord.Author, "author", "", "Author")
	addCmd.Flags().StringVar(&addRecord.Source, "source", "", "Source: kindle, journal, voice, thought, quote, tweet")
	addCmd.Flags().StringSliceVar(&addRecord.Tags, "tag", nil, "Tag (repeatable)")

	importCmd.Flags().BoolVar(&importRestore, "restore", false, "Keep memory state from the file (restoring an export)")
	importCmd.Flags().StringVar(&importSource, "source", "", "Source for records that have none")

	filterFlags(nextCmd, &nextFilter)
	nextCmd.Flags().StringVar(&nextCurrent, "current", "", "Id of the card being shown, never picked again")

	recallCmd.Flags().BoolVar(&recallSuccess, "success", false, "The recall succeeded")
	tagCmd.Flags().BoolVar(&tagRemove, "remove", false, "Remove the tag instead")
}
