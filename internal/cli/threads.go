package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/lu-zhengda/msgthread/internal/config"
	"github.com/lu-zhengda/msgthread/internal/domain"
	"github.com/lu-zhengda/msgthread/internal/store"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	var box string
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List threads in a box",
		Long:  "List the acting participant's threads. Boxes: inbox (default), sent, deleted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := store.ParseBox(box)
			if err != nil {
				return err
			}

			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			pid, err := s.actingParticipant()
			if err != nil {
				return err
			}

			summaries, err := s.db.ListThreads(cmd.Context(), store.ListThreadOptions{
				ParticipantID: pid,
				Box:           b,
				Limit:         limit,
				Offset:        offset,
			})
			if err != nil {
				return fmt.Errorf("failed to list threads: %w", err)
			}

			if jsonFlag {
				return printJSON(toJSONThreadSummaries(summaries))
			}
			return printSummaries(os.Stdout, summaries, s.cfg.Display)
		},
	}

	cmd.Flags().StringVar(&box, "box", "inbox", "box to list (inbox, sent, deleted)")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of threads to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of threads to skip")
	return cmd
}

func newReadCmd() *cobra.Command {
	var markRead bool

	cmd := &cobra.Command{
		Use:   "read <thread-id>",
		Short: "Show a thread with all its messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			thread, err := s.svc.Read(ctx, args[0])
			if err != nil {
				return err
			}
			// The loaded copy keeps its pre-read state so unread messages
			// still stand out below.
			if markRead {
				pid, err := s.actingParticipant()
				if err != nil {
					return err
				}
				if _, err := s.svc.MarkRead(ctx, args[0], pid, true); err != nil {
					return fmt.Errorf("failed to mark thread read: %w", err)
				}
			}

			if jsonFlag {
				return printJSON(toJSONThreadDetail(thread))
			}

			viewer, _ := resolveParticipant(asFlag, s.cfg)
			printThread(os.Stdout, thread, viewer, s.cfg.Display)
			return nil
		},
	}

	cmd.Flags().BoolVar(&markRead, "mark-read", false, "mark the thread read for the acting participant")
	return cmd
}

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search the acting participant's threads",
		Long:  "Find threads whose subject or messages contain every word of the query.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			pid, err := s.actingParticipant()
			if err != nil {
				return err
			}

			summaries, err := s.db.SearchThreads(cmd.Context(), strings.Join(args, " "), pid)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}

			if jsonFlag {
				return printJSON(toJSONThreadSummaries(summaries))
			}
			return printSummaries(os.Stdout, summaries, s.cfg.Display)
		},
	}
}

// printSummaries renders thread summaries as a table. Unread threads are
// flagged with a leading asterisk.
func printSummaries(w io.Writer, summaries []store.ThreadSummary, display config.DisplayConfig) error {
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No threads found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, " \tID\tSUBJECT\tMSGS\tLAST ACTIVITY")
	for _, s := range summaries {
		marker := " "
		if s.HasUnread {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			marker,
			s.ID,
			truncate(s.Subject, display.SubjectWidth),
			s.MessageCount,
			formatActivity(s.LastActivity, display.DateFormat),
		)
	}
	return tw.Flush()
}

// printThread renders a full thread. Messages the viewer has not read are
// emphasised; an empty viewer disables emphasis.
func printThread(w io.Writer, t *domain.Thread, viewer domain.ParticipantID, display config.DisplayConfig) {
	fmt.Fprintln(w, headerStyle.Render(t.Subject))

	names := make([]string, 0, len(t.Participants()))
	for _, p := range t.Participants() {
		names = append(names, p.String())
	}
	fmt.Fprintf(w, "With: %s\n", strings.Join(names, ", "))
	fmt.Fprintln(w, mutedTextStyle.Render(fmt.Sprintf("Thread: %s  Messages: %d", t.ID, t.MessageCount())))

	me := domain.Participant{ID: viewer}
	for _, m := range t.Messages() {
		fmt.Fprintln(w)
		header := fmt.Sprintf("From: %s  Date: %s", m.Sender, m.CreatedAt.Local().Format(display.DateFormat))
		if viewer != "" && !m.IsReadByParticipant(me) {
			header = unreadStyle.Render(header + "  [unread]")
		}
		fmt.Fprintln(w, header)
		fmt.Fprintln(w, strings.Repeat("-", 40))
		fmt.Fprintln(w, m.Body)
	}
}
