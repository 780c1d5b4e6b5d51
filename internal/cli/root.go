// Package cli implements the astroctl command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yanqian/astro-api/internal/domain/aspects"
	"github.com/yanqian/astro-api/internal/domain/astro"
	"github.com/yanqian/astro-api/internal/infra/chartcache"
	"github.com/yanqian/astro-api/internal/infra/config"
	"github.com/yanqian/astro-api/internal/infra/ephemeris/analytic"
	"github.com/yanqian/astro-api/internal/infra/orbprofiles"
	"github.com/yanqian/astro-api/pkg/logger"
)

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	debug    bool
	profiles string
	format   string
	svc      astro.Service
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:          "astroctl",
		Short:        "Resolve civil times, locate solar returns and score transits",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if opts.svc != nil {
				return nil
			}
			svc, err := buildService(opts)
			if err != nil {
				return err
			}
			opts.svc = svc
			return nil
		},
	}

	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging on stderr")
	cmd.PersistentFlags().StringVar(&opts.profiles, "profiles", "", "orb profile YAML file (defaults to built-in profiles)")
	cmd.PersistentFlags().StringVar(&opts.format, "format", "pretty", "Output format: pretty|json")

	cmd.AddCommand(
		resolveCmd(opts),
		solarReturnCmd(opts),
		matchCmd(opts),
		transitsCmd(opts),
		timelineCmd(opts),
		progressCmd(opts),
		moonCmd(opts),
		hashKeyCmd(),
	)
	return cmd
}

func buildService(opts *options) (astro.Service, error) {
	log := logger.NewText(opts.debug)
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	path := opts.profiles
	if path == "" {
		path = cfg.Aspects.ProfilesFile
	}
	catalog, def := aspects.DefaultCatalog(), cfg.Aspects.DefaultProfile
	if path != "" {
		if catalog, def, err = orbprofiles.Load(path); err != nil {
			return nil, err
		}
	}
	registry, err := aspects.NewRegistry(catalog, def)
	if err != nil {
		return nil, err
	}

	astroCfg := cfg.AstroConfig()
	astroCfg.PersistEvents = false
	return astro.NewService(astroCfg, analytic.New(), registry, chartcache.NewMemoryStore(), nil, log), nil
}

func printResult(w io.Writer, format string, payload any, pretty func(io.Writer)) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	case "pretty", "":
		pretty(w)
		return nil
	default:
		return fmt.Errorf("unsupported format %q (expected pretty|json)", format)
	}
}

func printWarnings(w io.Writer, warnings []string) {
	for _, warning := range warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
}
