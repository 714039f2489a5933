// Command fetch queries the configured price feeds from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"priceoracle/internal/bootstrap"
	"priceoracle/internal/config"
	"priceoracle/internal/logging"
	"priceoracle/internal/pricefeed"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app is the state PersistentPreRunE hands to the subcommands.
type app struct {
	cfg   config.Config
	feeds *pricefeed.Registry
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "fetch",
		Short:         "Query historical closing prices from the configured feeds",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			configFile, _ := cmd.Flags().GetString("config")
			if configFile == "" {
				configFile = os.Getenv("CONFIG_FILE")
			}
			var err error
			a.cfg, err = config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if level, _ := cmd.Flags().GetString("log-level"); level != "" {
				a.cfg.Logging.Level = level
			}
			// Logs go to stderr so stdout stays parseable.
			logger, err := logging.NewWithOutput(cmd.ErrOrStderr(), a.cfg.Logging.Level, a.cfg.Logging.Format)
			if err != nil {
				return err
			}
			a.feeds, err = bootstrap.Feeds(a.cfg, logger)
			return err
		},
	}

	root.PersistentFlags().String("config", "", "config file path (default: ./config.json or $CONFIG_FILE)")
	root.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(newPriceCmd(a))
	root.AddCommand(newTranslateCmd(a))
	root.AddCommand(newFeedsCmd(a))
	return root
}

// selectFeeds resolves --feed; "all" or empty selects every feed.
func (a *app) selectFeeds(id string) ([]pricefeed.Feed, error) {
	if id == "" || id == "all" {
		return a.feeds.Feeds(), nil
	}
	f, ok := a.feeds.Get(id)
	if !ok {
		return nil, fmt.Errorf("unknown feed %q (have %v)", id, a.feeds.IDs())
	}
	return []pricefeed.Feed{f}, nil
}
