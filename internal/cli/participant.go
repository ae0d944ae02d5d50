package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/lu-zhengda/msgthread/internal/domain"
	"github.com/spf13/cobra"
)

func newParticipantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "participant",
		Short: "Manage participants",
	}
	cmd.AddCommand(newParticipantAddCmd())
	cmd.AddCommand(newParticipantListCmd())
	return cmd
}

func newParticipantAddCmd() *cobra.Command {
	var name, email string

	cmd := &cobra.Command{
		Use:   "add <id>",
		Short: "Register a participant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			p := &domain.Participant{
				ID:    domain.ParticipantID(args[0]),
				Name:  name,
				Email: email,
			}
			if err := s.db.CreateParticipant(cmd.Context(), p); err != nil {
				return fmt.Errorf("failed to store participant: %w", err)
			}

			if jsonFlag {
				return printJSON(jsonAction{OK: true, Action: "participant-add", ParticipantID: string(p.ID)})
			}
			fmt.Printf("Participant added: %s\n", p)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	return cmd
}

func newParticipantListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered participants",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			participants, err := s.db.ListParticipants(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list participants: %w", err)
			}

			if jsonFlag {
				return printJSON(toJSONParticipants(participants))
			}

			if len(participants) == 0 {
				fmt.Println("No participants yet. Run 'msgthread participant add <id>' to add one.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tEMAIL\tCREATED")
			for _, p := range participants {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					p.ID, p.Name, p.Email,
					p.CreatedAt.Format(time.DateOnly),
				)
			}
			return w.Flush()
		},
	}
}
