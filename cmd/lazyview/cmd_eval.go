package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rebelice/lazyview/internal/export"
	"github.com/rebelice/lazyview/internal/logging"
	"github.com/rebelice/lazyview/internal/models"
	"github.com/rebelice/lazyview/internal/search"
	"github.com/rebelice/lazyview/internal/view"
)

// searchFlags are shared by every command that evaluates a search term
type searchFlags struct {
	term            string
	mode            string
	hideNonMatching bool
}

func (f *searchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.term, "search", "s", "", "search term")
	cmd.Flags().StringVar(&f.mode, "search-mode", "", "search mode: full-text-with-count or compat (default from config)")
	cmd.Flags().BoolVar(&f.hideNonMatching, "hide-non-matching", false, "hide rows without a matching cell (default from config)")
}

// apply merges the flags into spec. Flags win over the spec, the spec wins
// over the config.
func (f *searchFlags) apply(cmd *cobra.Command, a *app, spec *view.SearchSpec) error {
	fromSpec := spec.Term != ""
	if f.term != "" {
		spec.Term = f.term
	}
	switch {
	case f.mode != "":
		mode, err := search.ParseMode(f.mode)
		if err != nil {
			return err
		}
		spec.Mode = mode
	case spec.Mode == "":
		spec.Mode = search.Mode(a.cfg.Search.Mode)
	}
	switch {
	case cmd.Flags().Changed("hide-non-matching"):
		spec.HideNonMatching = f.hideNonMatching
	case !fromSpec:
		spec.HideNonMatching = a.cfg.Search.HideNonMatching
	}
	return nil
}

// outputFlags select the export format and destination
type outputFlags struct {
	format string
	output string
}

func (f *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.format, "format", "f", "table", "output format: table, csv or json")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "write to file instead of stdout")
}

func (f *outputFlags) write(cmd *cobra.Command, e *export.Exporter, rows []models.Row) error {
	format, err := export.ParseFormat(f.format)
	if err != nil {
		return err
	}
	if f.output != "" {
		return e.ExportToFile(f.output, format, rows)
	}
	return e.Write(cmd.OutOrStdout(), format, rows)
}

func newEvalCmd(a *app) *cobra.Command {
	var (
		specPath string
		rowsPath string
		sf       searchFlags
		of       outputFlags
	)

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Apply a view spec to rows read from a JSON file",
		Long: `Eval reads a view spec (fields, filters, sortings and search) from a
YAML file and rows in their flat JSON shape, then prints the visible rows
in view order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := view.LoadSpec(specPath)
			if err != nil {
				return err
			}
			if err := sf.apply(cmd, a, &spec.Search); err != nil {
				return err
			}

			rows, err := readRows(rowsPath, cmd.InOrStdin())
			if err != nil {
				return err
			}

			engine, err := spec.Engine(a.reg)
			if err != nil {
				return err
			}
			visible := engine.Apply(rows)
			log := logging.Component("eval")
			log.Info().
				Int("rows", len(rows)).
				Int("visible", len(visible)).
				Msg("view applied")

			return of.write(cmd, export.New(a.reg, spec.Fields), visible)
		},
	}

	cmd.Flags().StringVar(&specPath, "spec", "", "view spec YAML file")
	cmd.Flags().StringVar(&rowsPath, "rows", "-", "rows JSON file, - for stdin")
	_ = cmd.MarkFlagRequired("spec")
	sf.register(cmd)
	of.register(cmd)
	return cmd
}

// readRows decodes a JSON array of rows from path, or from stdin for "-"
func readRows(path string, stdin io.Reader) ([]models.Row, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	var rows []models.Row
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse rows: %w", err)
	}
	return rows, nil
}
