package cli

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/triviastake/internal/fingerprint"
)

func newGameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "Game commands",
	}

	cmd.AddCommand(newGameCreateCmd())
	cmd.AddCommand(newGameGetCmd())
	cmd.AddCommand(newGameJoinCmd())
	cmd.AddCommand(newGameSubmitCmd())
	cmd.AddCommand(newGameQuestionsCmd())
	cmd.AddCommand(newGameParticipantsCmd())
	cmd.AddCommand(newGameLeaderboardCmd())
	cmd.AddCommand(newGameEligibleCmd())
	cmd.AddCommand(newGameMintCmd())

	return cmd
}

func newGameCreateCmd() *cobra.Command {
	var basename string
	var stake int64
	var limit int
	var duration int64

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a game from the current handle's timeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			handle, err := cfg.RequireHandle()
			if err != nil {
				return err
			}

			req := map[string]any{
				"creatorBasename":  basename,
				"stakeAmount":      stake,
				"playerLimit":      limit,
				"durationSeconds":  duration,
				"requestingHandle": handle,
			}
			var result CreateGameResult

			if err := client.Post("/api/v1/games", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&basename, "basename", "", "Creator basename (required)")
	cmd.Flags().Int64Var(&stake, "stake", 0, "Stake amount")
	cmd.Flags().IntVar(&limit, "limit", 10, "Player limit")
	cmd.Flags().Int64Var(&duration, "duration", 600, "Duration in seconds")
	_ = cmd.MarkFlagRequired("basename")

	return cmd
}

func newGameGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get game details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Game

			if err := client.Get(gamePath(args[0], ""), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newGameJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <id>",
		Short: "Join a game as the current handle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			handle, err := cfg.RequireHandle()
			if err != nil {
				return err
			}

			var result MessageResult

			if err := client.Post(gamePath(args[0], "/join"), map[string]string{"handle": handle}, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newGameSubmitCmd() *cobra.Command {
	var choices []string
	var scheme string

	cmd := &cobra.Command{
		Use:   "submit <id> <stage> [fingerprint...]",
		Short: "Submit answers for a stage",
		Long: `Submit answers for a stage, either as raw fingerprints or as option
letters with --choices. Choices are hashed locally against the stage's
questions, so plaintext answers never leave this machine.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			handle, err := cfg.RequireHandle()
			if err != nil {
				return err
			}

			gameID := args[0]
			stage, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid stage: %w", err)
			}

			fingerprints := args[2:]
			if len(choices) > 0 {
				if len(fingerprints) > 0 {
					return fmt.Errorf("pass either fingerprints or --choices, not both")
				}
				fingerprints, err = fingerprintChoices(gameID, stage, choices, scheme)
				if err != nil {
					return err
				}
			}

			req := map[string]any{
				"handle":             handle,
				"stageIndex":         stage,
				"answerFingerprints": fingerprints,
			}
			var result SubmitResult

			if err := client.Post(gamePath(gameID, "/submit"), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&choices, "choices", nil, "Option letters in question order, e.g. a,c,b")
	cmd.Flags().StringVar(&scheme, "scheme", string(fingerprint.SchemeSHA256), "Fingerprint scheme used by the server")

	return cmd
}

// fingerprintChoices maps option letters to answer fingerprints for one stage
func fingerprintChoices(gameID string, stage int, choices []string, scheme string) ([]string, error) {
	hasher, err := fingerprint.New(fingerprint.Scheme(scheme))
	if err != nil {
		return nil, err
	}

	var questions []Question
	if err := client.Get(gamePath(gameID, "/questions"), &questions); err != nil {
		return nil, err
	}

	var staged []Question
	for _, q := range questions {
		if q.Stage == stage {
			staged = append(staged, q)
		}
	}
	sort.Slice(staged, func(i, j int) bool { return staged[i].Index < staged[j].Index })

	if len(choices) > len(staged) {
		return nil, fmt.Errorf("stage %d has %d questions, got %d choices", stage, len(staged), len(choices))
	}

	out := make([]string, len(choices))
	for i, choice := range choices {
		choice = strings.ToLower(strings.TrimSpace(choice))
		q := staged[i]
		if len(choice) != 1 || choice[0] < 'a' || int(choice[0]-'a') >= len(q.Options) {
			return nil, fmt.Errorf("question %d: choice %q is not one of a-%c", i+1, choice, 'a'+len(q.Options)-1)
		}
		out[i] = hasher.Compute(q.Question, q.Options[choice[0]-'a'])
	}
	return out, nil
}

func newGameQuestionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "questions <id>",
		Short: "List a game's questions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []Question

			if err := client.Get(gamePath(args[0], "/questions"), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newGameParticipantsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "participants <id>",
		Short: "List a game's participants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []Participant

			if err := client.Get(gamePath(args[0], "/participants"), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newGameLeaderboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leaderboard <id>",
		Short: "Show current standings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []LeaderboardEntry

			if err := client.Get(gamePath(args[0], "/leaderboard"), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newGameEligibleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "eligible <id>",
		Short: "Check whether the current handle can claim a reward",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			handle, err := cfg.RequireHandle()
			if err != nil {
				return err
			}

			result := EligibilityResult{Handle: handle}
			path := gamePath(args[0], "/eligibility") + "?handle=" + url.QueryEscape(handle)

			if err := client.Get(path, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newGameMintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mint <id> <amount>",
		Short: "Mint the current handle's reward",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			handle, err := cfg.RequireHandle()
			if err != nil {
				return err
			}

			amount, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid amount: %w", err)
			}

			req := map[string]any{"handle": handle, "amount": amount}
			var result MintResult

			if err := client.Post(gamePath(args[0], "/mint"), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func gamePath(id, suffix string) string {
	return "/api/v1/games/" + url.PathEscape(id) + suffix
}
