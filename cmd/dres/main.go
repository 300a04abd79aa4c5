// dres runs differential and difference elimination on YAML scenario files.
//
// Run: go run ./cmd/dres eliminate scenario.yaml
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"dalgebra"
)

var (
	verbose bool
	method  string
	bound   int
	timeout time.Duration
	dump    string
	byVec   string
)

func logger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadSystem(path string) (*dalgebra.System, error) {
	sc, err := dalgebra.LoadScenario(path)
	if err != nil {
		return nil, err
	}
	return sc.System()
}

func runContext() (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(context.Background(), timeout)
	}
	return context.WithCancel(context.Background())
}

func newEliminateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eliminate <scenario.yaml>",
		Short: "Compute the operator resultant of a scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sys, err := loadSystem(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := runContext()
			defer cancel()
			res := sys.DiffResultant(ctx, dalgebra.Options{
				Bound:          bound,
				Strategy:       dalgebra.Strategy(method),
				Logger:         logger(),
				DumpMatrixPath: dump,
			})
			if res.Status != dalgebra.StatusOK {
				return fmt.Errorf("%s: %s", res.Status, res.Detail)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "extension: %v\n", res.Extension)
			fmt.Fprintf(cmd.OutOrStdout(), "resultant: %s\n", res.Resultant)
			return nil
		},
	}
	cmd.Flags().StringVar(&method, "method", "auto", "elimination strategy: auto, macaulay or iterative")
	cmd.Flags().IntVar(&bound, "bound", dalgebra.DefaultBound, "bound for the extension search")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "wall-clock budget, 0 for none")
	cmd.Flags().StringVar(&dump, "dump", "", "path for the final Sylvester matrix dump")
	return cmd
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <scenario.yaml>",
		Short: "Report the SP2 extension search for a scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sys, err := loadSystem(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := runContext()
			defer cancel()
			fmt.Fprint(cmd.OutOrStdout(), sys)
			fmt.Fprintf(cmd.OutOrStdout(), "algebraic variables: %s\n",
				strings.Join(sys.AlgebraicVariables(), ", "))
			fmt.Fprintf(cmd.OutOrStdout(), "sp2: %v\n", sys.IsSP2())
			vec, err := sys.FindSP2Extension(ctx, bound)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sp2 extension: %v\n", vec)
			return nil
		},
	}
	cmd.Flags().IntVar(&bound, "bound", dalgebra.DefaultBound, "bound for the extension search")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "wall-clock budget, 0 for none")
	return cmd
}

func newExtendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extend <scenario.yaml>",
		Short: "Print the system extended by an operation vector",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sys, err := loadSystem(args[0])
			if err != nil {
				return err
			}
			var Ls []int
			for _, part := range strings.Split(byVec, ",") {
				n, err := strconv.Atoi(strings.TrimSpace(part))
				if err != nil {
					return fmt.Errorf("--by: %w", err)
				}
				Ls = append(Ls, n)
			}
			ext, err := sys.ExtendByOperation(Ls)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), ext)
			fmt.Fprintf(cmd.OutOrStdout(), "algebraic variables: %s\n",
				strings.Join(ext.AlgebraicVariables(), ", "))
			fmt.Fprintf(cmd.OutOrStdout(), "sp2: %v\n", ext.IsSP2())
			return nil
		},
	}
	cmd.Flags().StringVar(&byVec, "by", "", "comma-separated extension vector, one entry per equation")
	cmd.MarkFlagRequired("by")
	return cmd
}

func main() {
	root := &cobra.Command{
		Use:           "dres",
		Short:         "Differential and difference resultant elimination",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log the elimination steps")
	root.AddCommand(newEliminateCmd(), newCheckCmd(), newExtendCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "dres:", err)
		os.Exit(1)
	}
}
