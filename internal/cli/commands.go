package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"github.com/dyike/tickerview/internal/analysis"
	"github.com/dyike/tickerview/internal/config"
	"github.com/dyike/tickerview/internal/display"
	"github.com/dyike/tickerview/internal/logging"
	"github.com/dyike/tickerview/internal/page"
	"github.com/dyike/tickerview/internal/server"
	"github.com/dyike/tickerview/internal/webhook"
)

type app struct {
	configPath string
	debug      bool
	mgr        *config.Manager
	cfg        config.Config
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "tickerview",
		Short: "tickerview - stock analysis viewer",
		Long: `tickerview sends a stock ticker to an analysis webhook and renders the
result: summary, key metrics, performance table, related links and news.
Run it without arguments for interactive mode.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInteractive(cmd)
		},
	}

	rootCmd.AddCommand(a.newAnalyzeCmd())
	rootCmd.AddCommand(a.newServeCmd())
	rootCmd.AddCommand(a.newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Configuration file path")

	return rootCmd
}

func (a *app) load(cmd *cobra.Command) error {
	mgr, err := config.NewManager(config.WithConfigPath(a.configPath))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.mgr = mgr
	a.cfg = mgr.Get()
	if a.debug {
		a.cfg.Debug = true
	}
	logging.Setup(a.cfg.LogLevel, a.cfg.Debug, cmd.ErrOrStderr())
	return nil
}

func (a *app) newClient(cfg config.Config) *webhook.Client {
	return webhook.NewClient(cfg.WebhookURL,
		webhook.WithTimeout(cfg.RequestTimeout()),
		webhook.WithUserAgent(cfg.UserAgent),
	)
}

func (a *app) newView() (*page.View, error) {
	tmpl, err := page.LoadTemplate(a.cfg.PagePath)
	if err != nil {
		return nil, err
	}
	p, err := tmpl.New()
	if err != nil {
		return nil, err
	}
	return page.Bind(p, page.DefaultRegions())
}

func (a *app) newAnalyzeCmd() *cobra.Command {
	var format, out string

	cmd := &cobra.Command{
		Use:   "analyze [TICKER]",
		Short: "Analyze a stock ticker",
		Long: `Send a ticker to the analysis webhook and print the rendered result.
Example: tickerview analyze RELIANCE.NS --format html --out report.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFormat(format)
			if err != nil {
				return err
			}
			view, err := a.newView()
			if err != nil {
				return err
			}

			ctrl := analysis.NewController(a.newClient(a.cfg), view)
			res, err := ctrl.Run(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out != "" {
				file, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer file.Close()
				w = file
			}
			if err := writeView(w, view, f); err != nil {
				return err
			}
			if out != "" {
				display.Success(cmd.ErrOrStderr(), "Report written to "+out)
			}
			return resultError(res)
		},
	}

	cmd.Flags().StringVar(&format, "format", string(formatText), "Output format: text, html or markdown")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write output to a file instead of stdout")
	return cmd
}

// resultError turns a rendered failure into a non-zero exit.
func resultError(res *analysis.Result) error {
	switch res.Outcome {
	case analysis.OutcomeFailed:
		return fmt.Errorf("analysis failed: %w", res.Err)
	case analysis.OutcomeWorkflowError:
		return fmt.Errorf("workflow error: %s", res.Workflow.Error)
	}
	return nil
}

func (a *app) newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis page over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.ListenAddr = addr
			}
			tmpl, err := page.LoadTemplate(a.cfg.PagePath)
			if err != nil {
				return err
			}

			client := a.newClient(a.cfg)
			srv, err := server.New(a.cfg.ListenAddr, client, tmpl,
				server.WithRateLimit(a.cfg.RateLimit, a.cfg.RateBurst))
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := a.mgr.WatchWebhook(ctx, func(url string) {
				log.Info().Str("endpoint", url).Msg("webhook endpoint updated")
				client.SetEndpoint(url)
			}); err != nil {
				log.Warn().Err(err).Msg("config hot reload disabled")
			}

			display.Info(cmd.ErrOrStderr(), fmt.Sprintf("Serving on http://%s (webhook %s)", a.cfg.ListenAddr, client.Endpoint()))
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	return cmd
}

func (a *app) newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := json.MarshalIndent(a.cfg, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), a.mgr.Path())
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Validate(); err != nil {
				display.Warning(cmd.ErrOrStderr(), err.Error())
				return err
			}
			if a.cfg.WebhookURL == config.DefaultWebhookURL {
				display.Warning(cmd.ErrOrStderr(), "webhook_url is the local default; set TICKERVIEW_WEBHOOK_URL for a remote workflow")
			}
			display.Success(cmd.ErrOrStderr(), "Configuration is valid")
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "set-webhook [URL]",
		Short: "Persist a new webhook URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := strings.TrimSpace(args[0])
			if err := a.mgr.Update(func(c *config.Config) { c.WebhookURL = url }); err != nil {
				return err
			}
			display.Success(cmd.ErrOrStderr(), "Webhook URL saved to "+a.mgr.Path())
			return nil
		},
	})

	return configCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tickerview %s\n", Version)
		},
	}
}

// runInteractive prompts for tickers until the user quits.
func (a *app) runInteractive(cmd *cobra.Command) error {
	DisplayWelcomeBanner(cmd.OutOrStdout())
	client := a.newClient(a.cfg)

	for {
		ticker, err := PromptForTicker()
		if err != nil {
			if isInterrupt(err) {
				return nil
			}
			return err
		}

		view, err := a.newView()
		if err != nil {
			return err
		}
		res, err := analysis.NewController(client, view).Run(cmd.Context(), ticker)
		if err != nil {
			display.Warning(cmd.ErrOrStderr(), err.Error())
			continue
		}
		display.NewResultsDisplay(cmd.OutOrStdout()).Show(view)
		if err := resultError(res); err != nil {
			log.Debug().Err(err).Str("ticker", res.Ticker).Msg("analysis did not succeed")
		}

		again, err := PromptContinue()
		if err != nil || !again {
			return nil
		}
	}
}

func isInterrupt(err error) bool {
	return errors.Is(err, errInterrupted)
}
