package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/meikuraledutech/smartflow"
	"github.com/spf13/cobra"
)

func flowsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flows",
		Short: "Inspect the saved-flow library",
	}
	cmd.AddCommand(flowsListCmd(), flowsShowCmd(), flowsDeleteCmd())
	return cmd
}

// withLibrary opens the configured store, loads the library and runs fn.
func withLibrary(cmd *cobra.Command, fn func(*smartflow.Library) error) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, closeStore, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	library := smartflow.NewLibrary(store, logger)
	library.Load(cmd.Context())
	return fn(library)
}

func flowsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved flows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLibrary(cmd, func(l *smartflow.Library) error {
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tSAVED\tNODES")
				for _, sf := range l.List() {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n",
						sf.ID, sf.Name, sf.Snapshot.GeneratedAt.Format("2006-01-02 15:04"), len(sf.Snapshot.Nodes))
				}
				return tw.Flush()
			})
		},
	}
}

func flowsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|name>",
		Short: "Print a saved flow's snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLibrary(cmd, func(l *smartflow.Library) error {
				sf, err := l.Get(args[0])
				if errors.Is(err, smartflow.ErrFlowNotFound) {
					sf, err = l.FindByName(args[0])
				}
				if err != nil {
					return err
				}
				out, err := json.MarshalIndent(sf.Snapshot, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			})
		},
	}
}

func flowsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved flow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLibrary(cmd, func(l *smartflow.Library) error {
				return l.Remove(cmd.Context(), args[0])
			})
		},
	}
}
