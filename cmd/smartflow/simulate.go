package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/meikuraledutech/smartflow"
	"github.com/spf13/cobra"
)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
	dimColor  = color.New(color.Faint)
)

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <snapshot.json>",
		Short: "Check that a flow snapshot can be saved and simulated",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := readSnapshot(args[0])
			if err != nil {
				return err
			}
			return reportValidity(cmd.OutOrStdout(), smartflow.FromSnapshot(snap))
		},
	}
}

func reportValidity(w io.Writer, f *smartflow.Flow) error {
	problems := f.Problems()
	if len(problems) == 0 {
		okColor.Fprintln(w, "valid")
		return nil
	}
	failColor.Fprintln(w, "invalid")
	for _, p := range problems {
		fmt.Fprintf(w, "  - %s\n", p)
	}
	return smartflow.ErrInvalidFlow
}

func simulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate <snapshot.json>",
		Short: "Resolve the destination a flow routes an attribute assignment to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := readSnapshot(args[0])
			if err != nil {
				return err
			}
			f := smartflow.FromSnapshot(snap)

			attrs := smartflow.Attributes{}
			if useDefaults, _ := cmd.Flags().GetBool("defaults"); useDefaults {
				attrs = f.Catalog().DefaultAttributes()
			}
			pairs, _ := cmd.Flags().GetStringToString("attr")
			for k, v := range pairs {
				attrs[k] = v
			}

			w := cmd.OutOrStdout()
			if lenient, _ := cmd.Flags().GetBool("lenient"); lenient {
				printEvaluation(w, f.Evaluate(attrs))
				return nil
			}
			sim, err := f.Simulate(attrs, time.Now())
			if err != nil {
				reportValidity(w, f)
				return err
			}
			printEvaluation(w, smartflow.Evaluation{Destination: sim.Destination, Path: sim.Path, Outcome: sim.Outcome})
			return nil
		},
	}
	cmd.Flags().StringToString("attr", nil, "attribute assignment, e.g. --attr day=sunday")
	cmd.Flags().Bool("defaults", false, "start from the first catalog value of every criterion")
	cmd.Flags().Bool("lenient", false, "evaluate even if the flow is not valid")
	return cmd
}

func printEvaluation(w io.Writer, ev smartflow.Evaluation) {
	okColor.Fprint(w, ev.Destination.Label)
	if ev.Destination.URL != "" && ev.Destination.URL != ev.Destination.Label {
		fmt.Fprintf(w, " (%s)", ev.Destination.URL)
	}
	fmt.Fprintln(w)

	path := make([]string, len(ev.Path))
	for i, ref := range ev.Path {
		path[i] = ref.String()
	}
	dimColor.Fprintf(w, "path: %s [%s]\n", strings.Join(path, " -> "), ev.Outcome)
}
