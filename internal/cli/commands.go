package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yanqian/astro-api/internal/domain/astro"
	"github.com/yanqian/astro-api/internal/domain/auth"
)

type birthFlags struct {
	date     string
	clock    string
	timezone string
	offset   int
	fold     int
	strict   bool
}

func (b *birthFlags) register(c *cobra.Command, prefix string) {
	c.Flags().StringVar(&b.date, prefix+"date", "", "Civil date YYYY-MM-DD (required)")
	c.Flags().StringVar(&b.clock, prefix+"time", "", "Civil time HH:MM[:SS] (defaults to 12:00)")
	c.Flags().StringVar(&b.timezone, prefix+"tz", "", "IANA timezone, e.g. America/Sao_Paulo")
	c.Flags().IntVar(&b.offset, prefix+"offset", 0, "Fixed UTC offset in minutes when no timezone is given")
	c.Flags().IntVar(&b.fold, prefix+"fold", -1, "Preferred fold (0 or 1) for ambiguous or skipped times")
	c.Flags().BoolVar(&b.strict, prefix+"strict", false, "Reject ambiguous or nonexistent local times")
	_ = c.MarkFlagRequired(prefix + "date")
}

func (b *birthFlags) value(c *cobra.Command, prefix string) astro.BirthData {
	out := astro.BirthData{
		Date:     b.date,
		Time:     b.clock,
		Timezone: b.timezone,
		Strict:   b.strict,
	}
	if c.Flags().Changed(prefix + "offset") {
		offset := b.offset
		out.OffsetMinutes = &offset
	}
	if b.fold >= 0 {
		fold := b.fold
		out.Fold = &fold
	}
	return out
}

func resolveCmd(opts *options) *cobra.Command {
	var birth birthFlags
	var snap bool

	c := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a civil local time to UTC under DST rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := opts.svc.ResolveTime(cmd.Context(), astro.TimeRequest{BirthData: birth.value(cmd, ""), SnapForward: snap})
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.format, resp, func(w io.Writer) {
				r := resp.Resolution
				fmt.Fprintf(w, "Local:     %s\n", r.LocalUsed)
				fmt.Fprintf(w, "UTC:       %s\n", r.UTC.Format("2006-01-02T15:04:05Z"))
				fmt.Fprintf(w, "Offset:    %+d min\n", r.OffsetMinutes)
				fmt.Fprintf(w, "JD (UT):   %.6f\n", resp.JulianDayUT)
				if r.IsAmbiguous {
					fmt.Fprintf(w, "Ambiguous: offsets %v\n", r.OffsetOptionsMinutes)
				}
				if r.IsNonexistent {
					fmt.Fprintf(w, "Gap:       shifted %d min\n", r.AdjustmentMinutes)
				}
				printWarnings(w, r.Warnings)
			})
		},
	}
	birth.register(c, "")
	c.Flags().BoolVar(&snap, "snap-forward", false, "Move skipped times to the first valid instant after the gap")
	return c
}

func solarReturnCmd(opts *options) *cobra.Command {
	var birth birthFlags
	var year int
	var tz, engine, profile string

	c := &cobra.Command{
		Use:   "solar-return",
		Short: "Locate the solar return for a year",
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := opts.svc.SolarReturn(cmd.Context(), astro.SolarReturnRequest{
				Natal:    birth.value(cmd, ""),
				Year:     year,
				Timezone: tz,
				Engine:   engine,
				Aspects:  astro.AspectOptions{Profile: profile},
			})
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.format, resp, func(w io.Writer) {
				fmt.Fprintf(w, "Natal Sun: %.6f°\n", resp.NatalSunDeg)
				fmt.Fprintf(w, "Return:    %s (%s)\n", resp.Local, resp.Match.Instant.Format("2006-01-02T15:04:05Z"))
				fmt.Fprintf(w, "Method:    %s, %d iterations, |Δ| %.2e°\n", resp.Match.Method, resp.Match.Iterations, resp.Match.AbsoluteDeltaDeg)
				fmt.Fprintf(w, "Aspects (%s):\n", resp.Profile)
				for _, m := range resp.Aspects {
					fmt.Fprintf(w, "  %-8s %-12s %-8s orb %.2f°\n", m.TransitingBody, m.Aspect, m.NatalBody, m.OrbDeg)
				}
				printWarnings(w, resp.Warnings)
			})
		},
	}
	birth.register(c, "")
	c.Flags().IntVar(&year, "year", 0, "Target year (required)")
	c.Flags().StringVar(&tz, "return-tz", "", "Timezone for the local return time (defaults to the natal timezone)")
	c.Flags().StringVar(&engine, "engine", "", "Search engine: v1 (sweep) or v2 (bisection)")
	c.Flags().StringVar(&profile, "profile", "", "Orb profile name")
	_ = c.MarkFlagRequired("year")
	return c
}

func matchCmd(opts *options) *cobra.Command {
	var body, start, end, tz, engine string
	var target, tolerance float64

	c := &cobra.Command{
		Use:   "match",
		Short: "Find when a body reaches an ecliptic longitude",
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := opts.svc.LongitudeMatch(cmd.Context(), astro.LongitudeMatchRequest{
				Body:               body,
				TargetLongitudeDeg: &target,
				StartDate:          start,
				EndDate:            end,
				Timezone:           tz,
				Engine:             engine,
				ToleranceDeg:       tolerance,
			})
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.format, resp, func(w io.Writer) {
				fmt.Fprintf(w, "%s at %.6f°: %s\n", resp.Body, resp.TargetLongitudeDeg, resp.Local)
				fmt.Fprintf(w, "Method: %s, bracket %t, |Δ| %.2e°\n", resp.Match.Method, resp.Match.BracketFound, resp.Match.AbsoluteDeltaDeg)
				printWarnings(w, resp.Warnings)
			})
		},
	}
	c.Flags().StringVar(&body, "body", "Sun", "Body name")
	c.Flags().Float64Var(&target, "longitude", 0, "Target ecliptic longitude in degrees (required)")
	c.Flags().StringVar(&start, "from", "", "First local date YYYY-MM-DD (required)")
	c.Flags().StringVar(&end, "to", "", "Last local date YYYY-MM-DD")
	c.Flags().StringVar(&tz, "tz", "", "IANA timezone of the date window")
	c.Flags().StringVar(&engine, "engine", "", "Search engine: v1 (sweep) or v2 (bisection)")
	c.Flags().Float64Var(&tolerance, "tolerance", 0, "Angular tolerance in degrees")
	_ = c.MarkFlagRequired("longitude")
	_ = c.MarkFlagRequired("from")
	return c
}

func transitsCmd(opts *options) *cobra.Command {
	var birth birthFlags
	var date, profile string

	c := &cobra.Command{
		Use:   "transits",
		Short: "Score and curate the transits of a day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := opts.svc.DailyTransits(cmd.Context(), astro.TransitsRequest{
				Natal:   birth.value(cmd, "natal-"),
				Date:    date,
				Aspects: astro.AspectOptions{Profile: profile},
			})
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.format, resp, func(w io.Writer) {
				fmt.Fprintf(w, "Transits for %s (%s)\n", resp.Date, resp.Profile)
				for _, ev := range resp.Events {
					fmt.Fprintf(w, "  %5.1f %-6s %-8s %-12s %-8s [%s]\n", ev.ImpactScore, ev.Severity, ev.Match.TransitingBody, ev.Match.Aspect, ev.Match.NatalBody, strings.Join(ev.Tags, ", "))
				}
				if s := resp.Curation.Summary; s != nil {
					fmt.Fprintf(w, "\n%s\n%s\n%s\n", s.Tone, s.Trigger, s.Action)
				}
				printWarnings(w, resp.Warnings)
			})
		},
	}
	birth.register(c, "natal-")
	c.Flags().StringVar(&date, "date", "", "Day to score YYYY-MM-DD (required)")
	c.Flags().StringVar(&profile, "profile", "", "Orb profile name")
	_ = c.MarkFlagRequired("date")
	return c
}

func timelineCmd(opts *options) *cobra.Command {
	var birth birthFlags
	var year int

	c := &cobra.Command{
		Use:   "timeline",
		Short: "List a year of solar aspects to the natal Sun and Moon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := opts.svc.SolarTimeline(cmd.Context(), astro.TimelineRequest{Natal: birth.value(cmd, ""), Year: year})
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.format, resp, func(w io.Writer) {
				for _, item := range resp.Items {
					fmt.Fprintf(w, "%s  %-28s score %5.1f %s\n", item.Peak, item.Trigger, item.Score, item.Severity)
				}
				printWarnings(w, resp.Warnings)
			})
		},
	}
	birth.register(c, "")
	c.Flags().IntVar(&year, "year", 0, "Target year (required)")
	_ = c.MarkFlagRequired("year")
	return c
}

func progressCmd(opts *options) *cobra.Command {
	var birth birthFlags
	var target string

	c := &cobra.Command{
		Use:   "progress",
		Short: "Compute the secondary progressed chart for a date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := opts.svc.Progressions(cmd.Context(), astro.ProgressionsRequest{Natal: birth.value(cmd, ""), TargetDate: target})
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.format, resp, func(w io.Writer) {
				fmt.Fprintf(w, "Age:        %.4f years on %s\n", resp.AgeYears, resp.TargetDate)
				fmt.Fprintf(w, "Progressed: %s\n", resp.ProgressedLocal)
				for _, pos := range resp.Positions {
					fmt.Fprintf(w, "  %-8s %10.6f°\n", pos.Name, pos.LongitudeDeg)
				}
				printWarnings(w, resp.Warnings)
			})
		},
	}
	birth.register(c, "")
	c.Flags().StringVar(&target, "target", "", "Date to progress to YYYY-MM-DD (required)")
	_ = c.MarkFlagRequired("target")
	return c
}

func moonCmd(opts *options) *cobra.Command {
	var from, to, tz string

	c := &cobra.Command{
		Use:   "moon",
		Short: "Show the Moon's phase and sign per day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			last := to
			if last == "" {
				last = from
			}
			resp, err := opts.svc.MoonTimeline(cmd.Context(), astro.MoonTimelineRequest{From: from, To: last, Timezone: tz})
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.format, resp, func(w io.Writer) {
				for _, day := range resp.Days {
					fmt.Fprintf(w, "%s  %-16s %8.4f°  Moon in %s\n", day.Date, day.Phase, day.PhaseAngleDeg, day.MoonSign)
				}
			})
		},
	}
	c.Flags().StringVar(&from, "from", "", "First local date YYYY-MM-DD (required)")
	c.Flags().StringVar(&to, "to", "", "Last local date YYYY-MM-DD (defaults to --from)")
	c.Flags().StringVar(&tz, "tz", "UTC", "IANA timezone whose local noon is sampled")
	_ = c.MarkFlagRequired("from")
	return c
}

func hashKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-key <api-key>",
		Short: "Print the bcrypt hash to configure for an API client key",
		Args:  cobra.ExactArgs(1),
		// the root pre-run builds the chart service, which hashing does not need
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashKey(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
