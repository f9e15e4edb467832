package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rebelice/lazyview/internal/buffer"
	"github.com/rebelice/lazyview/internal/export"
	"github.com/rebelice/lazyview/internal/logging"
	"github.com/rebelice/lazyview/internal/models"
	"github.com/rebelice/lazyview/internal/view"
)

func newQueryCmd(a *app) *cobra.Command {
	var (
		sf     sourceFlags
		srch   searchFlags
		of     outputFlags
		offset int
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Fetch a page of a database table through a view",
		Long: `Query applies the filters and sortings of a view inside the database
and the search term on the fetched rows.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			spec, err := sf.spec(a)
			if err != nil {
				return err
			}
			if err := srch.apply(cmd, a, &spec.Search); err != nil {
				return err
			}

			src, closeFn, err := sf.open(ctx, cmd, a, spec.View)
			if err != nil {
				return err
			}
			defer closeFn()

			res, err := src.FetchRows(ctx, buffer.FetchRequest{Offset: offset, Limit: limit})
			if err != nil {
				return err
			}

			engine := engineFor(a, src.Fields(), spec)
			rows := make([]models.Row, 0, len(res.Rows))
			for _, row := range res.Rows {
				if engine.MatchSearch(row, nil).MatchSearch {
					rows = append(rows, row)
				}
			}
			log := logging.Component("query")
			log.Info().
				Int("count", res.Count).
				Int("fetched", len(res.Rows)).
				Int("visible", len(rows)).
				Msg("rows fetched")

			return of.write(cmd, export.New(a.reg, src.Fields()), rows)
		},
	}

	sf.register(cmd)
	srch.register(cmd)
	of.register(cmd)
	cmd.Flags().IntVar(&offset, "offset", 0, "first row to fetch")
	cmd.Flags().IntVar(&limit, "limit", 40, "number of rows to fetch")
	return cmd
}

// engineFor builds the engine of spec over fields discovered from a table
func engineFor(a *app, fields []models.Field, spec *view.Spec) *view.Engine {
	var opts []view.Option
	if spec.Search.Term != "" {
		opts = append(opts, view.WithSearch(spec.Search.Term, spec.Search.Mode, spec.Search.HideNonMatching))
	}
	return view.NewEngine(a.reg, fields, spec.View, opts...)
}

func newScrollCmd(a *app) *cobra.Command {
	var (
		sf           sourceFlags
		of           outputFlags
		positions    string
		windowHeight float64
	)

	cmd := &cobra.Command{
		Use:   "scroll",
		Short: "Scroll a buffered window over a database table",
		Long: `Scroll loads the first rows of a table into a row buffer and replays the
given scroll positions through the scroll throttle. The rows visible at the
last position are printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tops, err := parsePositions(positions)
			if err != nil {
				return err
			}

			spec, err := sf.spec(a)
			if err != nil {
				return err
			}
			src, closeFn, err := sf.open(ctx, cmd, a, spec.View)
			if err != nil {
				return err
			}
			defer closeFn()

			log := logging.Component("scroll")
			buf := buffer.New(src, a.cfg.ScrollBuffer(), buffer.WithEvaluator(engineFor(a, src.Fields(), spec)))
			buf.SetWindowHeight(windowHeight)
			if err := buf.FetchInitial(ctx); err != nil {
				return err
			}

			throttle := buffer.NewScrollThrottle(buf.Config().ScrollInterval, func(top, height float64) {
				if err := buf.FetchByScrollTop(ctx, top, height); err != nil {
					log.Warn().Err(err).Float64("scroll_top", top).Msg("scroll fetch failed")
				}
			})
			for _, top := range tops {
				throttle.Scroll(top, windowHeight)
			}
			throttle.Stop()

			// a trailing call still in flight targets the last position too
			if len(tops) > 0 {
				if err := buf.FetchByScrollTop(ctx, tops[len(tops)-1], windowHeight); err != nil {
					return err
				}
			}

			state := buf.State()
			log.Info().
				Int("count", state.Count).
				Int("buffer_start", state.BufferStartIndex).
				Int("buffer_limit", state.BufferLimit).
				Int("visible_start", state.VisibleStartIndex).
				Int("visible_end", state.VisibleEndIndex).
				Msg("buffer window")

			return of.write(cmd, export.New(a.reg, src.Fields()), buf.VisibleRows())
		},
	}

	sf.register(cmd)
	of.register(cmd)
	cmd.Flags().StringVar(&positions, "scroll-top", "", "comma separated scroll positions in pixels")
	cmd.Flags().Float64Var(&windowHeight, "window-height", 660, "viewport height in pixels")
	return cmd
}

func parsePositions(s string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("invalid scroll position %q", part)
		}
		out = append(out, v)
	}
	return out, nil
}
