package cli

import (
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lu-zhengda/msgthread/internal/tui"
	"github.com/spf13/cobra"
)

func newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse and answer threads interactively",
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
			if _, err := s.db.GetParticipant(cmd.Context(), pid); err != nil {
				return fmt.Errorf("failed to resolve participant: %w", err)
			}
			participants, err := s.db.ListParticipants(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list participants: %w", err)
			}

			// The service logs would draw over the alt screen.
			logPath := filepath.Join(filepath.Dir(s.cfg.DatabasePath()), "tui.log")
			f, err := tea.LogToFile(logPath, "msgthread")
			if err != nil {
				return fmt.Errorf("failed to open log file: %w", err)
			}
			defer f.Close()

			return tui.Run(s.db, s.svc, pid, participants, s.cfg.Display)
		},
	}
}
