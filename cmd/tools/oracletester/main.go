// Command oracletester runs the ranking and moderation prompts against the
// configured oracle and prints the parsed outcome.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/vyne/backend/internal/config"
	"github.com/zhouzirui/vyne/backend/internal/logging"
	"github.com/zhouzirui/vyne/backend/internal/model/fixtures"
	"github.com/zhouzirui/vyne/backend/internal/model/profile"
	"github.com/zhouzirui/vyne/backend/internal/oracle"
	"github.com/zhouzirui/vyne/backend/internal/service/matching"
	"github.com/zhouzirui/vyne/backend/internal/service/moderation"
)

var (
	timeout  time.Duration
	seedFile string
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:           "oracletester",
	Short:         "Exercise the oracle prompts from the command line",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank every other profile for --requester",
	Args:  cobra.NoArgs,
	RunE:  runRank,
}

var moderateCmd = &cobra.Command{
	Use:   "moderate",
	Short: "Ask the oracle whether --text is safe",
	Args:  cobra.NoArgs,
	RunE:  runModerate,
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "oracle call timeout")
	rootCmd.PersistentFlags().StringVar(&seedFile, "seed", "", "YAML fixture file (defaults to SEED_FILE or built-in seeds)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rankCmd.Flags().String("requester", "u1", "requester profile id")
	moderateCmd.Flags().String("text", "", "message to check")
	_ = moderateCmd.MarkFlagRequired("text")

	rootCmd.AddCommand(rankCmd, moderateCmd)
}

type outcome struct {
	Value   any    `json:"value"`
	Failure string `json:"failure,omitempty"`
	Error   string `json:"error,omitempty"`
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func setup(ctx context.Context) (*config.Config, model.ChatModel, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, zerolog.Nop(), err
	}

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	logger := logging.NewWithWriter(logging.Config{Level: level, Pretty: true, Service: "oracletester"}, os.Stderr)

	if !cfg.AI.Enabled() {
		return nil, nil, logger, fmt.Errorf("%s oracle not configured", cfg.AI.Provider)
	}
	chatModel, err := cfg.AI.NewChatModel(ctx)
	if err != nil {
		return nil, nil, logger, err
	}
	return cfg, chatModel, logger, nil
}

func loadProfiles() (profile.Store, error) {
	path := seedFile
	if path == "" {
		path = os.Getenv("SEED_FILE")
	}
	doc := fixtures.Default()
	if path != "" {
		var err error
		if doc, err = fixtures.Load(path); err != nil {
			return nil, err
		}
	}
	return profile.NewMemoryStore(doc.Profiles), nil
}

func runRank(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	requesterID, _ := cmd.Flags().GetString("requester")
	profiles, err := loadProfiles()
	if err != nil {
		return err
	}
	requester, ok := profiles.FindByID(requesterID)
	if !ok {
		return fmt.Errorf("unknown requester %q", requesterID)
	}

	cfg, chatModel, logger, err := setup(ctx)
	if err != nil {
		return err
	}
	svc, err := matching.NewService(ctx, chatModel, matching.Config{Limit: cfg.Match.Limit}, logger)
	if err != nil {
		return err
	}

	res := svc.Query(ctx, requester, profile.Others(profiles, requesterID))
	return writeOutcome(cmd, toOutcome(res.Failed(), res.Value(), res))
}

func runModerate(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	text, _ := cmd.Flags().GetString("text")
	_, chatModel, logger, err := setup(ctx)
	if err != nil {
		return err
	}
	svc, err := moderation.NewService(ctx, chatModel, moderation.Config{Enabled: true}, logger)
	if err != nil {
		return err
	}

	res := svc.Query(ctx, text)
	return writeOutcome(cmd, toOutcome(res.Failed(), res.Value(), res))
}

type failure interface {
	Failure() (oracle.FailureKind, error)
}

func toOutcome(failed bool, value any, f failure) outcome {
	if !failed {
		return outcome{Value: value}
	}
	kind, err := f.Failure()
	return outcome{Failure: string(kind), Error: err.Error()}
}

func writeOutcome(cmd *cobra.Command, out outcome) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
