package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bookscout/internal/config"
	"bookscout/internal/httpapi"
	"bookscout/internal/logging"
	"bookscout/internal/network"
	"bookscout/internal/service"
)

type searchFlags struct {
	base        string
	maxInFlight int
	logLevel    string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "bookscout",
		Short:         "Search the book catalog from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.AddCommand(newSearchCmd())
	return root
}

func newSearchCmd() *cobra.Command {
	var flags searchFlags

	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Print the first results page as one JSON record per line",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, flags, strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVar(&flags.base, "base", "", "catalog base URL (default from CATALOG_URL)")
	cmd.Flags().IntVar(&flags.maxInFlight, "max-in-flight", 0, "concurrent detail-page fetches (default from MAX_IN_FLIGHT)")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "warn", "log level written to stderr")
	return cmd
}

func runSearch(cmd *cobra.Command, flags searchFlags, query string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if flags.base != "" {
		cfg.CatalogURL = flags.base
	}
	if flags.maxInFlight > 0 {
		cfg.MaxInFlight = flags.maxInFlight
	}

	logger, closer, err := logging.Setup(flags.logLevel, "")
	if err != nil {
		return err
	}
	defer closer.Close()
	defer logger.Sync() //nolint:errcheck

	httpClient, err := network.NewHTTPClient(cfg.TorProxyAddr, cfg.HTTPTimeout)
	if err != nil {
		return err
	}

	catalog, err := service.NewCatalogClient(network.NewHTTPFetcher(httpClient, cfg.UserAgent), cfg.CatalogURL, service.Options{
		MaxInFlight:   cfg.MaxInFlight,
		DetailTimeout: cfg.DetailTimeout,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	results, err := catalog.Search(cmd.Context(), query)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s: %v\n", res.Book.Title, res.Err)
		}
		if err := enc.Encode(httpapi.NewBookJSON(res)); err != nil {
			return err
		}
	}

	logger.Debug("printed results", zap.Int("count", len(results)))
	return nil
}
