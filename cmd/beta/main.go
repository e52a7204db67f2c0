// Package main is the entry point for the beta CLI, a climbing logbook
// assistant that pairs a conversational model with an optional deep
// reasoning pass for premium users.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/cruxlog/beta/internal/chat"
	"github.com/cruxlog/beta/internal/climber"
	"github.com/cruxlog/beta/internal/config"
	"github.com/cruxlog/beta/internal/enhancer"
	"github.com/cruxlog/beta/internal/evaluator"
	"github.com/cruxlog/beta/internal/llm"
	"github.com/cruxlog/beta/internal/logging"
	"github.com/cruxlog/beta/internal/reasoning"
	"github.com/cruxlog/beta/internal/store"
)

var (
	version = "0.1.0"
	cfgPath string
	verbose bool
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	advancedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Italic(true)
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "beta",
		Short: "Beta - AI assistant for your climbing logbook",
		Long: `Beta is a conversational assistant over your climbing logbook.
It answers quick questions with a fast model and, for premium users,
escalates analytical queries to a deep reasoning model.

Chat interactively:  beta chat --user <id>
One-shot question:   beta ask --user <id> "How is my training going?"
Configuration:       beta config show`,
	}

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file path (default ~/.beta/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("beta v%s\n", version)
		},
	})

	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(tickCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		os.Exit(1)
	}
}

// initialize loads config, sets up logging, opens the logbook store and
// assembles the orchestrator. The returned cleanup closes the store.
func initialize() (*chat.Orchestrator, *store.Store, *config.Config, func(), error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	logging.Init(level, cfg.Logging.Pretty)

	st, err := store.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("open logbook store: %w", err)
	}
	cleanup := func() { st.Close() }

	if cfg.LLM.Conversational.APIKey == "" {
		cfg.LLM.Conversational.APIKey = os.Getenv("BETA_OPENAI_API_KEY")
	}
	if cfg.LLM.Reasoning.APIKey == "" {
		cfg.LLM.Reasoning.APIKey = os.Getenv("BETA_DEEPSEEK_API_KEY")
	}

	clients := llm.NewClients(
		cfg.LLM.Conversational.ProviderConfig("conversational"),
		cfg.LLM.Reasoning.ProviderConfig("reasoning"),
		logging.Component("llm"),
	)

	formatter := climber.NewFormatter()
	aggregator := climber.NewStoreAggregator(st)

	eval := evaluator.New(clients.Conversational, formatter, logging.Component("evaluator"),
		evaluator.WithHybrid(cfg.Evaluator.Hybrid))
	engine := reasoning.NewEngine(clients.Reasoning, formatter, logging.Component("reasoning"))
	enh := enhancer.New(clients.Conversational, formatter, logging.Component("enhancer"))

	orch := chat.NewOrchestrator(
		st,
		aggregator,
		formatter,
		clients.Conversational,
		eval,
		engine,
		enh,
		chat.Config{
			InitialTimeout:     time.Duration(cfg.Orchestrator.InitialTimeoutSec) * time.Second,
			ReasoningTimeout:   time.Duration(cfg.Orchestrator.ReasoningTimeoutSec) * time.Second,
			EnhancementTimeout: time.Duration(cfg.Orchestrator.EnhancementTimeoutSec) * time.Second,
		},
		logging.Component("orchestrator"),
	)

	return orch, st, cfg, cleanup, nil
}

func chatCmd() *cobra.Command {
	var userID string
	var customContext string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat interactively with your logbook assistant",
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, _, _, cleanup, err := initialize()
			if err != nil {
				return err
			}
			defer cleanup()

			fmt.Println(titleStyle.Render("Beta") + labelStyle.Render("  your logbook assistant (ctrl-d to quit)"))

			var history []chat.Message
			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print(labelStyle.Render("you> "))
				if !scanner.Scan() {
					fmt.Println()
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if line == "/quit" || line == "/exit" {
					return nil
				}

				now := time.Now().Unix()
				resp, err := orch.ProcessMessage(context.Background(), userID, line, history, customContext)
				if err != nil {
					printChatError(err)
					continue
				}

				printResponse(resp)
				history = append(history,
					chat.Message{Role: chat.RoleUser, Content: line, Timestamp: now},
					chat.Message{Role: chat.RoleAssistant, Content: resp.Response, Timestamp: time.Now().Unix()},
				)
			}
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id (required)")
	cmd.Flags().StringVar(&customContext, "context", "", "extra context to include with every message")
	cmd.MarkFlagRequired("user")

	return cmd
}

func askCmd() *cobra.Command {
	var userID string
	var customContext string

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a one-shot question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, _, _, cleanup, err := initialize()
			if err != nil {
				return err
			}
			defer cleanup()

			question := strings.Join(args, " ")
			resp, err := orch.ProcessMessage(context.Background(), userID, question, nil, customContext)
			if err != nil {
				printChatError(err)
				os.Exit(1)
			}

			printResponse(resp)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id (required)")
	cmd.Flags().StringVar(&customContext, "context", "", "extra context to include with the message")
	cmd.MarkFlagRequired("user")

	return cmd
}

func printResponse(resp *chat.Response) {
	if resp.ResponseType == chat.ResponseAdvanced {
		fmt.Println(advancedStyle.Render("beta (deep analysis)"))
	}
	fmt.Println(resp.Response)
	if resp.FallbackReason != "" {
		fmt.Println(noticeStyle.Render("note: deep analysis unavailable (" + resp.FallbackReason + ")"))
	}
}

func printChatError(err error) {
	var chatErr *chat.Error
	if errors.As(err, &chatErr) {
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("[%s] %s", chatErr.Kind, chatErr.Message)))
		return
	}
	fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage logbook users",
	}

	var tier string
	addCmd := &cobra.Command{
		Use:   "add [id] [name]",
		Short: "Add or update a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, _, cleanup, err := initialize()
			if err != nil {
				return err
			}
			defer cleanup()

			t := store.Tier(tier)
			if t != store.TierBasic && t != store.TierPremium {
				return fmt.Errorf("invalid tier %q (want basic or premium)", tier)
			}
			u := &store.User{ID: args[0], Name: args[1], Tier: t}
			if err := st.UpsertUser(context.Background(), u); err != nil {
				return fmt.Errorf("save user: %w", err)
			}
			fmt.Printf("saved user %s (%s, %s)\n", u.ID, u.Name, u.Tier)
			return nil
		},
	}
	addCmd.Flags().StringVar(&tier, "tier", "basic", "subscription tier (basic or premium)")
	cmd.AddCommand(addCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "show [id]",
		Short: "Show a user and their recent climbs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, _, cleanup, err := initialize()
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := context.Background()
			u, err := st.GetUser(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Println(titleStyle.Render(u.Name) + labelStyle.Render("  ("+string(u.Tier)+")"))

			ticks, err := st.RecentTicks(ctx, u.ID, 10)
			if err != nil {
				return err
			}
			if len(ticks) == 0 {
				fmt.Println("no climbs logged yet")
				return nil
			}
			for _, t := range ticks {
				fmt.Printf("  %s  %s  %s (%s)\n",
					t.LoggedAt.Format("2006-01-02"), t.Grade, t.Route, t.Style)
			}
			return nil
		},
	})

	return cmd
}

func tickCmd() *cobra.Command {
	var grade, style, discipline string

	cmd := &cobra.Command{
		Use:   "tick [user-id] [route]",
		Short: "Log a climb",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, _, cleanup, err := initialize()
			if err != nil {
				return err
			}
			defer cleanup()

			if climber.GradeIndex(grade) < 0 {
				return fmt.Errorf("unknown grade %q", grade)
			}
			t := &store.Tick{
				UserID:     args[0],
				Route:      args[1],
				Grade:      grade,
				Style:      style,
				Discipline: discipline,
				LoggedAt:   time.Now(),
			}
			if err := st.AddTick(context.Background(), t); err != nil {
				return fmt.Errorf("log climb: %w", err)
			}
			fmt.Printf("logged %s %s for %s\n", grade, args[1], args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&grade, "grade", "", "French grade, e.g. 7a (required)")
	cmd.Flags().StringVar(&style, "style", "redpoint", "ascent style (onsight, flash, redpoint, attempt)")
	cmd.Flags().StringVar(&discipline, "discipline", "sport", "discipline (sport, boulder, trad)")
	cmd.MarkFlagRequired("grade")

	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			fmt.Println("Beta Configuration")
			fmt.Println("------------------")
			fmt.Printf("Data dir:            %s\n", cfg.Storage.DataDir)
			fmt.Printf("Conversational:      %s @ %s\n", cfg.LLM.Conversational.Model, cfg.LLM.Conversational.Endpoint)
			fmt.Printf("Reasoning:           %s @ %s\n", cfg.LLM.Reasoning.Model, cfg.LLM.Reasoning.Endpoint)
			fmt.Printf("Hybrid evaluation:   %t\n", cfg.Evaluator.Hybrid)
			fmt.Printf("Initial timeout:     %ds\n", cfg.Orchestrator.InitialTimeoutSec)
			fmt.Printf("Reasoning timeout:   %ds\n", cfg.Orchestrator.ReasoningTimeoutSec)
			fmt.Printf("Enhancement timeout: %ds\n", cfg.Orchestrator.EnhancementTimeoutSec)
			fmt.Printf("Log level:           %s\n", cfg.Logging.Level)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfgPath
			if path == "" {
				home, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				path = filepath.Join(home, ".beta", "config.yaml")
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("config already exists at %s", path)
			}
			if err := config.DefaultConfig().Save(path); err != nil {
				return err
			}
			fmt.Printf("wrote default config to %s\n", path)
			return nil
		},
	})

	return cmd
}
