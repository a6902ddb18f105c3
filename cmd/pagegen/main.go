package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/integrail/pagegen/internal/build"
	"github.com/integrail/pagegen/pkg/client"
	"github.com/integrail/pagegen/pkg/config"
	"github.com/integrail/pagegen/pkg/llm"
	"github.com/integrail/pagegen/pkg/logx"
	"github.com/integrail/pagegen/pkg/metrics"
	"github.com/integrail/pagegen/pkg/relay"
	"github.com/integrail/pagegen/pkg/server"
	"github.com/integrail/pagegen/pkg/util"
)

const configFileEnv = "PAGEGEN_CONFIG"

func main() {
	rootCmd := &cobra.Command{
		Use:     "pagegen",
		Version: build.Version,
		Short:   "pagegen generates landing pages from a description",
		Long:    "Relay service and terminal front-end that turn a natural-language description into a landing page using a generative API",
	}
	rootCmd.AddCommand(serveCommand(), uiCommand())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func serveCommand() *cobra.Command {
	return newServeCommand(runRelay)
}

func newServeCommand(run func(ctx context.Context, cfg config.RelayConfig) error) *cobra.Command {
	var cfg config.RelayConfig
	cfg.SetDefaults()

	cmd := &cobra.Command{
		Use:          "serve",
		Short:        "Run the relay service",
		Long:         "Run the HTTP relay forwarding page descriptions to the generative API (requires " + config.APIKeyEnv + ")",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := resolveRelayConfig(cmd, &cfg); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&cfg.ConfigFile, "config", "c", "", "YAML config file (default $"+configFileEnv+")")
	flags.StringVar(&cfg.EnvFile, "env-file", cfg.EnvFile, "dotenv file to load before reading the environment")
	flags.IntVarP(&cfg.Port, "port", "p", cfg.Port, "HTTP listen port")
	flags.StringVarP(&cfg.APIKey, "api-key", "k", "", "generative API key (prefer the "+config.APIKeyEnv+" environment variable)")
	flags.StringVar(&cfg.UpstreamURL, "upstream-url", cfg.UpstreamURL, "generative API base URL")
	flags.StringVarP(&cfg.Model, "model", "m", cfg.Model, "generative model name")
	flags.StringVar(&cfg.PromptTemplateFile, "prompt-template", "", "file with the instruction template wrapping the prompt ({{ .Prompt }})")
	flags.StringSliceVar(&cfg.AllowedOrigins, "allowed-origins", nil, "CORS origins allowed to call the relay from a browser")
	flags.BoolVar(&cfg.WebForm, "web-form", cfg.WebForm, "serve the web form front-end at /")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log verbosity (trace, debug, info, warn, error)")
	return cmd
}

// resolveRelayConfig layers defaults < config file < environment < explicitly set flags.
// The .env file is loaded first so it can also name the config file.
func resolveRelayConfig(cmd *cobra.Command, cfg *config.RelayConfig) error {
	fromFlags := *cfg
	changed := func(name string) bool { return cmd.Flags().Changed(name) }

	if err := config.LoadEnvFile(cfg.EnvFile); err != nil {
		return err
	}
	if !changed("config") {
		cfg.ConfigFile = config.GetEnv(configFileEnv, cfg.ConfigFile)
	}
	if cfg.ConfigFile != "" {
		if err := cfg.LoadFile(cfg.ConfigFile); err != nil {
			return err
		}
	}
	cfg.ApplyEnv()

	if changed("port") {
		cfg.Port = fromFlags.Port
	}
	if changed("api-key") {
		cfg.APIKey = fromFlags.APIKey
	}
	if changed("upstream-url") {
		cfg.UpstreamURL = fromFlags.UpstreamURL
	}
	if changed("model") {
		cfg.Model = fromFlags.Model
	}
	if changed("prompt-template") {
		cfg.PromptTemplateFile = fromFlags.PromptTemplateFile
	}
	if changed("allowed-origins") {
		cfg.AllowedOrigins = fromFlags.AllowedOrigins
	}
	if changed("web-form") {
		cfg.WebForm = fromFlags.WebForm
	}
	if changed("log-level") {
		cfg.LogLevel = fromFlags.LogLevel
	}
	return cfg.Validate()
}

func runRelay(ctx context.Context, cfg config.RelayConfig) error {
	logx.Configure(cfg.LogLevel)
	log := logx.Log

	var opts []relay.Option
	if cfg.PromptTemplateFile != "" {
		text, err := relay.LoadInstructionTemplate(cfg.PromptTemplateFile)
		if err != nil {
			return err
		}
		opts = append(opts, relay.WithInstructionTemplate(text))
	}
	upstream := llm.NewGemini(log, cfg.APIKey, llm.WithBaseURL(cfg.UpstreamURL), llm.WithModel(cfg.Model))
	svc, err := relay.NewService(log, upstream, opts...)
	if err != nil {
		return err
	}

	m := metrics.New()
	m.SetBuildInfo(build.Version, build.Commit, build.Date)
	handler := server.New(server.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		WebForm:        cfg.WebForm,
	}, svc, m, log)

	log.Info().
		Str("version", build.Version).
		Str("model", cfg.Model).
		Str("upstream", cfg.UpstreamURL).
		Str("apiKey", util.MaskSecret(cfg.APIKey)).
		Strs("allowedOrigins", cfg.AllowedOrigins).
		Msg("starting relay")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.Serve(ctx, log, fmt.Sprintf(":%d", cfg.Port), handler, 10*time.Second)
}

func uiCommand() *cobra.Command {
	var cfg client.Config
	cfg.Url = client.DefaultRelayURL
	if v := os.Getenv("PAGEGEN_RELAY_URL"); v != "" {
		cfg.Url = v
	}

	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Run the terminal front-end",
		Long:  "Describe a landing page, send it to the relay and preview the generated markup",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Url = strings.TrimSpace(cfg.Url)
			return startPageClient(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVarP(&cfg.Url, "url", "u", cfg.Url, "relay base URL")
	cmd.Flags().StringVarP(&cfg.Timeout, "timeout", "t", "5m", "max time to wait for a generation (duration, e.g. 5m)")
	cmd.Flags().StringVarP(&cfg.OutDir, "out", "o", "", "directory where generated pages are saved (default: temp dir)")
	return cmd
}

func startPageClient(ctx context.Context, cfg client.Config) error {
	model, err := client.BubbleClient(ctx, cfg)
	if err != nil {
		return errors.Wrapf(err, "failed to init front-end")
	}
	p := tea.NewProgram(model, tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return errors.Wrapf(err, "front-end failed")
	}
	return nil
}
