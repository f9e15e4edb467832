package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rebelice/lazyview/internal/duration"
)

func newDurationCmd() *cobra.Command {
	var format string

	formatOf := func() (duration.Format, error) {
		return duration.ParseFormat(format)
	}

	cmd := &cobra.Command{
		Use:   "duration",
		Short: "Parse, format and round duration values",
	}
	cmd.PersistentFlags().StringVar(&format, "format", string(duration.DefaultFormat), "duration format, e.g. h:mm or d h:mm:ss")

	parseCmd := &cobra.Command{
		Use:   "parse <text>",
		Short: "Convert text into seconds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := formatOf()
			if err != nil {
				return err
			}
			seconds, ok := duration.Parse(args[0], f)
			if !ok {
				return fmt.Errorf("cannot parse %q as %s", args[0], f)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), formatSeconds(seconds))
			return err
		},
	}

	formatCmd := &cobra.Command{
		Use:   "format <seconds>",
		Short: "Render seconds in the given format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := formatOf()
			if err != nil {
				return err
			}
			seconds, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid seconds %q: %w", args[0], err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), duration.FormatValue(seconds, f))
			return err
		},
	}

	roundCmd := &cobra.Command{
		Use:   "round <seconds>",
		Short: "Round seconds to the precision of the format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := formatOf()
			if err != nil {
				return err
			}
			seconds, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid seconds %q: %w", args[0], err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), formatSeconds(duration.Round(seconds, f)))
			return err
		},
	}

	formatsCmd := &cobra.Command{
		Use:   "formats",
		Short: "List the supported formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, f := range duration.Formats() {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), f); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.AddCommand(parseCmd, formatCmd, roundCmd, formatsCmd)
	return cmd
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
