package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aj-geddes/tinaa-playwright-msp/pkg/browser"
	"github.com/aj-geddes/tinaa-playwright-msp/pkg/config"
	"github.com/aj-geddes/tinaa-playwright-msp/pkg/insights"
	"github.com/aj-geddes/tinaa-playwright-msp/pkg/llm"
	"github.com/aj-geddes/tinaa-playwright-msp/pkg/logging"
	"github.com/aj-geddes/tinaa-playwright-msp/pkg/playbook"
	"github.com/aj-geddes/tinaa-playwright-msp/pkg/progress"
	"github.com/aj-geddes/tinaa-playwright-msp/pkg/server"
)

var (
	version = "1.0.0"
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tinaa",
		Short: "Browser testing service driven by playbooks",
		Long: `TINAA runs automated browser tests: exploratory, accessibility,
responsive, and security checks against live pages, individually or
composed into playbooks, with progress streamed as it happens.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tinaa version %s\n", version)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads config and initializes logging. Shared by serve and run.
func setup() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logging.Init(cfg.Logger.LoggingConfig()); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	return cfg, nil
}

// insightGenerator builds the insight generator, degrading to the
// disabled client when no API key is configured.
func insightGenerator(cfg *config.Config, log *logging.Logger) *insights.Generator {
	if !cfg.LLM.Enabled() {
		return insights.NewGenerator(llm.NopClient{})
	}

	client, err := llm.NewOpenAI(cfg.LLM.APIKey, cfg.LLM.BaseURL,
		llm.WithModel(cfg.LLM.Model),
		llm.WithMaxPromptTokens(cfg.LLM.MaxPromptTokens),
	)
	if err != nil {
		log.Warnf("LLM client unavailable, insights disabled: %v", err)
		return insights.NewGenerator(llm.NopClient{})
	}
	return insights.NewGenerator(client)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP/WebSocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			defer logging.Sync()
			log := logging.New("main")

			manager := browser.NewManager()
			manager.SetMaxSessions(cfg.Browser.MaxSessions)
			defer func() {
				if err := manager.Shutdown(); err != nil {
					log.Errorf("browser shutdown failed: %v", err)
				}
			}()

			srv := server.New(cfg, manager, insightGenerator(cfg, log))

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Listen()
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-quit:
				log.Infof("received %s, shutting down", sig)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				log.Errorf("server forced to shutdown: %v", err)
			}
			log.Info("server exited")
			return nil
		},
	}
}

func runCmd() *cobra.Command {
	var headless bool

	cmd := &cobra.Command{
		Use:   "run <playbook.yaml>",
		Short: "Execute a playbook locally and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			defer logging.Sync()
			log := logging.New("main")

			pb, err := playbook.Load(args[0])
			if err != nil {
				return err
			}

			manager := browser.NewManager()
			if err := manager.Initialize(); err != nil {
				return err
			}
			defer func() {
				if err := manager.Shutdown(); err != nil {
					log.Errorf("browser shutdown failed: %v", err)
				}
			}()

			session, err := manager.StartSession("local", browser.Options{
				Headless: headless,
				Viewport: &browser.Viewport{
					Width:  cfg.Browser.ViewportWidth,
					Height: cfg.Browser.ViewportHeight,
				},
				UserAgent:          cfg.Browser.UserAgent,
				Locale:             cfg.Browser.Locale,
				Timeout:            cfg.Browser.TimeoutMs,
				AllowedURLPatterns: cfg.Browser.AllowedURLPatterns,
			})
			if err != nil {
				return err
			}

			// Progress lines go to stderr so stdout stays parseable.
			sink := progress.SinkFunc(func(u progress.Update) error {
				line := fmt.Sprintf("[%s] %s", u.Level, u.Message)
				if u.Progress != nil {
					line = fmt.Sprintf("%s (%.0f%%)", line, *u.Progress)
				}
				fmt.Fprintln(os.Stderr, line)
				return nil
			})

			executor := playbook.NewExecutor(session, sink)
			result := executor.Execute(cmd.Context(), pb)

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode result: %w", err)
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().BoolVar(&headless, "headless", true, "run the browser headless")
	return cmd
}
