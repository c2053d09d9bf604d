package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arbilina/lumi-agent-engine/internal/api"
	"github.com/arbilina/lumi-agent-engine/internal/catalog"
	"github.com/arbilina/lumi-agent-engine/internal/domain"
	"github.com/arbilina/lumi-agent-engine/internal/engine"
	"github.com/arbilina/lumi-agent-engine/internal/intake"
	"github.com/arbilina/lumi-agent-engine/internal/store"
)

var (
	dbPath        string
	dashboardBase string
)

func main() {
	// Default database location
	home, _ := os.UserHomeDir()
	defaultDB := filepath.Join(home, ".lumi", "lumi.db")

	rootCmd := &cobra.Command{
		Use:   "lumi",
		Short: "Personalized supplement protocol engine",
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "database path")
	rootCmd.PersistentFlags().StringVar(&dashboardBase, "dashboard-base",
		"http://localhost:8080/protocol", "base URL for dashboard links")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(protocolCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(showCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func getStore() (*store.Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	return store.New(dbPath)
}

func newLogger() (*zap.Logger, error) {
	if os.Getenv("LUMI_DEBUG") != "" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// pickSink prefers the Supabase REST sink when configured, otherwise
// the local sqlite store absorbs writes
func pickSink(s *store.Store, log *zap.Logger) engine.Sink {
	if os.Getenv(store.EnvSupabaseURL) != "" {
		sink, err := store.NewSupabaseFromEnv()
		if err != nil {
			log.Warn("supabase sink unavailable, falling back to sqlite", zap.Error(err))
			return s
		}
		return sink
	}
	return s
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the protocol API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger()
			if err != nil {
				return err
			}
			defer log.Sync()

			cat, err := catalog.Load()
			if err != nil {
				return err
			}

			s, err := getStore()
			if err != nil {
				return err
			}
			// Note: don't defer s.Close() as server runs indefinitely

			eng := engine.New(cat, pickSink(s, log), dashboardBase, log)
			server := api.New(s, eng, intake.New(cat), addr, log)
			return server.Run()
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "server address")
	return cmd
}

func protocolCmd() *cobra.Command {
	var (
		text       string
		goals      string
		userID     string
		meds       []string
		conditions []string
		diet       string
		movement   string
	)

	cmd := &cobra.Command{
		Use:   "protocol",
		Short: "Generate a protocol from intake text",
		RunE: func(cmd *cobra.Command, args []string) error {
			if text == "" {
				return fmt.Errorf("--text is required")
			}

			log, err := newLogger()
			if err != nil {
				return err
			}
			defer log.Sync()

			cat, err := catalog.Load()
			if err != nil {
				return err
			}

			s, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			rec := intake.New(cat).Normalize(text, goals)
			rec.UserID = userID
			rec.Medications = meds
			rec.Conditions = conditions
			rec.DietNotes = diet
			rec.Movement = movement

			eng := engine.New(cat, pickSink(s, log), dashboardBase, log)
			protocol := eng.BuildProtocol(context.Background(), rec)

			return printJSON(protocol)
		},
	}

	cmd.Flags().StringVarP(&text, "text", "t", "", "free-text intake")
	cmd.Flags().StringVarP(&goals, "goals", "g", "", "comma-separated goals")
	cmd.Flags().StringVarP(&userID, "user", "u", domain.AnonUserID, "user identifier")
	cmd.Flags().StringSliceVar(&meds, "meds", nil, "current medications")
	cmd.Flags().StringSliceVar(&conditions, "conditions", nil, "known conditions")
	cmd.Flags().StringVar(&diet, "diet", "", "diet notes")
	cmd.Flags().StringVar(&movement, "movement", "", "movement profile (e.g. weight_training)")
	return cmd
}

func listCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recently saved protocols",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			records, err := s.ListProtocols(limit, 0)
			if err != nil {
				return err
			}

			if len(records) == 0 {
				fmt.Println("No protocols yet. Use 'lumi protocol' to generate one.")
				return nil
			}

			for _, rec := range records {
				fmt.Printf("%s  %-20s  %d supplements  %s\n",
					rec.ID[:8], rec.UserID, len(rec.Protocol.FullStack),
					rec.CreatedAt.Format("2006-01-02 15:04:05"))
			}

			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of protocols to show")
	return cmd
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [user-id]",
		Short: "Show the latest protocol for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			rec, err := s.LatestProtocol(args[0])
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("no protocol found for user %s", args[0])
			}
			if err != nil {
				return err
			}

			return printJSON(rec.Protocol)
		},
	}
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
