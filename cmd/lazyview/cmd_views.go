package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rebelice/lazyview/internal/view"
)

func newViewsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "views",
		Short: "Manage saved views",
	}

	openStore := func() (*view.Store, error) {
		return view.NewStore(a.configDir)
	}

	var recent int
	listCmd := &cobra.Command{
		Use:   "list [query]",
		Short: "List saved views, optionally matching a query",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			views := store.GetAll()
			switch {
			case len(args) == 1:
				views = store.Search(args[0])
			case recent > 0:
				views = store.GetRecent(recent)
			}
			return writeViewList(cmd.OutOrStdout(), views)
		},
	}
	listCmd.Flags().IntVar(&recent, "recent", 0, "show the most recently used views only")

	var (
		specPath    string
		description string
		tableName   string
		replace     bool
	)
	saveCmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Save a view spec under a name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := view.LoadSpec(specPath)
			if err != nil {
				return err
			}
			if err := spec.Validate(a.reg); err != nil {
				return fmt.Errorf("invalid view spec: %w", err)
			}
			store, err := openStore()
			if err != nil {
				return err
			}

			if existing, err := store.Get(args[0]); err == nil {
				if !replace {
					return fmt.Errorf("view '%s' already exists, use --replace to overwrite it", existing.Name)
				}
				if err := store.Update(existing.ID, *spec); err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Updated view %s (%s)\n", existing.Name, existing.ID)
				return err
			}

			saved, err := store.Add(args[0], description, tableName, *spec)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Saved view %s (%s)\n", saved.Name, saved.ID)
			return err
		},
	}
	saveCmd.Flags().StringVar(&specPath, "spec", "", "view spec YAML file")
	saveCmd.Flags().StringVar(&description, "description", "", "description of the view")
	saveCmd.Flags().StringVarP(&tableName, "table", "t", "", "table the view belongs to")
	saveCmd.Flags().BoolVar(&replace, "replace", false, "overwrite an existing view")
	_ = saveCmd.MarkFlagRequired("spec")

	showCmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Print a saved view with its sort parameter and filter tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			sv, err := store.Get(args[0])
			if err != nil {
				return err
			}
			return writeView(cmd.OutOrStdout(), a, sv)
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			sv, err := store.Get(args[0])
			if err != nil {
				return err
			}
			if err := store.Delete(sv.ID); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted view %s\n", sv.Name)
			return err
		},
	}

	cmd.AddCommand(listCmd, saveCmd, showCmd, deleteCmd)
	return cmd
}

func writeViewList(w io.Writer, views []view.SavedView) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tTABLE\tFILTERS\tSORTINGS\tUSED\tDESCRIPTION")
	for _, v := range views {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n",
			v.Name, v.Table, len(v.Spec.View.Filters), len(v.Spec.View.Sortings), v.UsageCount, v.Description)
	}
	return tw.Flush()
}

func writeView(w io.Writer, a *app, sv *view.SavedView) error {
	engine, err := sv.Spec.Engine(a.reg)
	if err != nil {
		return err
	}
	tree, err := engine.FilterTree()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(sv.Spec)
	if err != nil {
		return fmt.Errorf("failed to marshal view: %w", err)
	}

	_, err = fmt.Fprintf(w, "# %s (%s)\n# order_by: %s\n# filter_tree: %s\n%s", sv.Name, sv.ID, engine.SortParam(), tree, data)
	return err
}
