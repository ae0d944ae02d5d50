package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lu-zhengda/msgthread/internal/app"
	"github.com/lu-zhengda/msgthread/internal/config"
	"github.com/lu-zhengda/msgthread/internal/domain"
	"github.com/lu-zhengda/msgthread/internal/store/sqlite"
	"github.com/spf13/cobra"
)

var (
	// version is set via ldflags at build time.
	version = "dev"
	cfgFile string

	// jsonFlag enables JSON output for all commands.
	jsonFlag bool

	// asFlag selects the acting participant.
	asFlag string
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "msgthread",
		Short:         "Conversation threads on the command line",
		Long:          "Keep multi-participant message threads in a local database, with per-participant inbox, sent, read and deleted state.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetVersionTemplate(fmt.Sprintf("msgthread %s\n", version))
	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	root.PersistentFlags().BoolVar(&jsonFlag, "json", false, "output in JSON format")
	root.PersistentFlags().StringVar(&asFlag, "as", "", "acting participant ID (defaults to config default)")
	root.AddCommand(newParticipantCmd())
	root.AddCommand(newStartCmd())
	root.AddCommand(newReplyCmd())
	root.AddCommand(newInviteCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newReadCmd())
	root.AddCommand(newSearchCmd())
	root.AddCommand(newDeleteCmd(true))
	root.AddCommand(newDeleteCmd(false))
	root.AddCommand(newMarkReadCmd())
	root.AddCommand(newTUICmd())
	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig loads the application configuration from the config file.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = filepath.Join(config.ConfigDir(), "config.toml")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// openDB creates the database directory and opens the SQLite database.
func openDB(cfg *config.Config) (*sqlite.DB, error) {
	dbPath := cfg.DatabasePath()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := sqlite.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// session bundles what most commands need.
type session struct {
	cfg *config.Config
	db  *sqlite.DB
	svc *app.ThreadService
}

func openSession() (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}
	return &session{
		cfg: cfg,
		db:  db,
		svc: app.NewThreadService(db, cfg.Store.MaxRetries),
	}, nil
}

func (s *session) Close() error {
	return s.db.Close()
}

// actingParticipant resolves the participant from --as or the config default.
func (s *session) actingParticipant() (domain.ParticipantID, error) {
	return resolveParticipant(asFlag, s.cfg)
}

func resolveParticipant(flag string, cfg *config.Config) (domain.ParticipantID, error) {
	if flag != "" {
		return domain.ParticipantID(flag), nil
	}
	if cfg.Participants.Default != "" {
		return domain.ParticipantID(cfg.Participants.Default), nil
	}
	return "", fmt.Errorf("no participant selected; pass --as or set participants.default in the config")
}
