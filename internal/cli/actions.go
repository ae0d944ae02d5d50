package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/lu-zhengda/msgthread/internal/domain"
	"github.com/spf13/cobra"
)

// readBody returns body, or stdin when body is "-".
func readBody(body string, stdin io.Reader) (string, error) {
	if body != "-" {
		return body, nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read body from stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

// parseIDList splits a comma-separated participant list, dropping blanks.
func parseIDList(s string) []domain.ParticipantID {
	var ids []domain.ParticipantID
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, domain.ParticipantID(part))
		}
	}
	return ids
}

func newStartCmd() *cobra.Command {
	var to, subject, body string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a new thread",
		Long:  "Start a thread between the acting participant and the given recipients. Use --body - to read the first message from stdin.",
		RunE: func(cmd *cobra.Command, args []string) error {
			recipients := parseIDList(to)
			if len(recipients) == 0 {
				return fmt.Errorf("--to is required")
			}
			text, err := readBody(body, cmd.InOrStdin())
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

			thread, err := s.svc.StartThread(cmd.Context(), pid, recipients, subject, text)
			if err != nil {
				return fmt.Errorf("failed to start thread: %w", err)
			}

			if jsonFlag {
				return printJSON(jsonAction{OK: true, Action: "start", ThreadID: thread.ID, Version: thread.Version})
			}
			fmt.Printf("Thread started: %s\n", thread.ID)
			fmt.Printf("  %s\n", thread.Snippet(s.cfg.Display.SnippetLength))
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "comma-separated recipient participant IDs")
	cmd.Flags().StringVar(&subject, "subject", "", "thread subject")
	cmd.Flags().StringVar(&body, "body", "", "first message body (- for stdin)")
	return cmd
}

func newReplyCmd() *cobra.Command {
	var body string

	cmd := &cobra.Command{
		Use:   "reply <thread-id>",
		Short: "Reply to a thread",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readBody(body, cmd.InOrStdin())
			if err != nil {
				return err
			}
			if text == "" {
				return fmt.Errorf("--body is required")
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

			thread, err := s.svc.Reply(cmd.Context(), args[0], pid, text)
			if err != nil {
				return fmt.Errorf("failed to reply: %w", err)
			}

			if jsonFlag {
				return printJSON(jsonAction{OK: true, Action: "reply", ThreadID: thread.ID, Version: thread.Version})
			}
			fmt.Printf("Reply posted to %s (%d messages).\n", thread.ID, thread.MessageCount())
			fmt.Printf("  %s\n", thread.Snippet(s.cfg.Display.SnippetLength))
			return nil
		},
	}

	cmd.Flags().StringVar(&body, "body", "", "message body (- for stdin)")
	return cmd
}

func newInviteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "invite <thread-id> <participant-id>",
		Short: "Add a participant to a thread",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			thread, err := s.svc.Invite(cmd.Context(), args[0], domain.ParticipantID(args[1]))
			if err != nil {
				return fmt.Errorf("failed to invite: %w", err)
			}

			if jsonFlag {
				return printJSON(jsonAction{OK: true, Action: "invite", ThreadID: thread.ID, ParticipantID: args[1], Version: thread.Version})
			}
			fmt.Printf("Invited %s to %s.\n", args[1], thread.ID)
			return nil
		},
	}
}

// newDeleteCmd builds either "delete" or "undelete". Both only affect the
// acting participant's view of the thread.
func newDeleteCmd(deleted bool) *cobra.Command {
	use, short, action := "delete", "Move a thread to your deleted box", "delete"
	if !deleted {
		use, short, action = "undelete", "Restore a thread from your deleted box", "undelete"
	}

	return &cobra.Command{
		Use:   use + " <thread-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
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

			thread, err := s.svc.SetDeleted(cmd.Context(), args[0], pid, deleted)
			if err != nil {
				return fmt.Errorf("failed to %s thread: %w", action, err)
			}

			if jsonFlag {
				return printJSON(jsonAction{OK: true, Action: action, ThreadID: thread.ID, ParticipantID: string(pid), Version: thread.Version})
			}
			fmt.Printf("Thread %s: %sd.\n", thread.ID, action)
			return nil
		},
	}
}

func newMarkReadCmd() *cobra.Command {
	var unread bool

	cmd := &cobra.Command{
		Use:   "mark-read <thread-id>",
		Short: "Mark a thread read (or unread) for the acting participant",
		Args:  cobra.ExactArgs(1),
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

			thread, err := s.svc.MarkRead(cmd.Context(), args[0], pid, !unread)
			if err != nil {
				return fmt.Errorf("failed to update read state: %w", err)
			}

			action, state := "mark-read", "read"
			if unread {
				action, state = "mark-unread", "unread"
			}
			if jsonFlag {
				return printJSON(jsonAction{OK: true, Action: action, ThreadID: thread.ID, ParticipantID: string(pid), Version: thread.Version})
			}
			fmt.Printf("Thread %s marked %s.\n", thread.ID, state)
			return nil
		},
	}

	cmd.Flags().BoolVar(&unread, "unread", false, "mark unread instead")
	return cmd
}
