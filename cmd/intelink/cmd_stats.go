package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/intelink/console/internal/charts"
	"github.com/intelink/console/internal/intelink"
)

func newStatsCmd(opts *options) *cobra.Command {
	var (
		dims        []string
		granularity string
		chart       string
		out         string
		world       string
	)
	cmd := &cobra.Command{
		Use:   "stats <code>",
		Short: "Show click statistics of a short link",
		Long: `Prints the click breakdown of a short link along each dimension.

With --svg the first dimension is rendered as a chart instead:
  intelink stats abc123 --dimension country --chart map --world world.geojson --svg clicks.svg
  intelink stats abc123 --granularity month --svg history.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := args[0]
			switch chart {
			case "bar", "pie", "map":
			default:
				return fmt.Errorf("unknown chart %q: must be bar, pie or map", chart)
			}
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close()

			if granularity != "" {
				g, err := intelink.ParseGranularity(granularity)
				if err != nil {
					return err
				}
				series, err := s.api.Stats.TimeSeries(cmd.Context(), code, g)
				if err != nil {
					return err
				}
				if out != "" {
					return writeSVG(out, func(w io.Writer) error {
						return charts.Line(w, series.Points(), charts.Options{Title: "Clicks per " + string(g)})
					})
				}
				printSeries(cmd.OutOrStdout(), series)
				return nil
			}

			parsed := make([]intelink.Dimension, 0, len(dims))
			for _, d := range dims {
				dim, err := intelink.ParseDimension(d)
				if err != nil {
					return err
				}
				parsed = append(parsed, dim)
			}

			if out != "" {
				dim := intelink.DimensionCountry
				if len(parsed) > 0 {
					dim = parsed[0]
				}
				if chart == "map" && dim != intelink.DimensionCountry {
					return errors.New("map charts are only available for the country dimension")
				}
				stats, err := s.api.Stats.Dimension(cmd.Context(), code, dim)
				if err != nil {
					return err
				}
				return writeSVG(out, func(w io.Writer) error {
					chartOpts := charts.Options{Title: "Clicks by " + string(dim)}
					switch chart {
					case "bar":
						return charts.Bar(w, stats.Bars(), chartOpts)
					case "map":
						loaded, err := charts.NewWorldLoader(world, nil).Load(cmd.Context())
						if err != nil {
							return err
						}
						return charts.Choropleth(w, loaded, stats.Geography(), chartOpts)
					default:
						return charts.Pie(w, stats.Slices(), chartOpts)
					}
				})
			}

			all, err := s.api.Stats.Dimensions(cmd.Context(), code, parsed...)
			if err != nil {
				return err
			}
			for _, dim := range intelink.Dimensions {
				if stats, ok := all[dim]; ok {
					printDimension(cmd.OutOrStdout(), stats)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&dims, "dimension", "d", nil, "dimensions to show (default all)")
	cmd.Flags().StringVarP(&granularity, "granularity", "g", "", "show the click history at hour, day, month or year buckets")
	cmd.Flags().StringVar(&chart, "chart", "pie", "chart kind for --svg: bar, pie or map")
	cmd.Flags().StringVar(&out, "svg", "", "write an SVG chart to this file")
	cmd.Flags().StringVar(&world, "world", os.Getenv("INTELINK_WORLD_GEOJSON"), "world GeoJSON path or URL for map charts")
	return cmd
}

// writeSVG renders into memory first so a failed render leaves no partial file.
func writeSVG(path string, render func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func printDimension(w io.Writer, s *intelink.DimensionStats) {
	fmt.Fprintf(w, "%s (%s clicks)\n", s.Dimension, humanize.Comma(s.TotalClicks))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, e := range s.Data {
		fmt.Fprintf(tw, "  %s\t%s\t%.1f%%\n", e.Name, humanize.Comma(e.Clicks), e.Percentage)
	}
	_ = tw.Flush()
}

func printSeries(w io.Writer, t *intelink.TimeSeries) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\tCLICKS\n", t.Granularity)
	for _, p := range t.Data {
		fmt.Fprintf(tw, "%s\t%s\n", p.Time, humanize.Comma(p.Clicks))
	}
	_ = tw.Flush()
}
