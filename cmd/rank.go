package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func rankCmd(a *app) *cobra.Command {
	var (
		seedPath string
		example  bool
	)

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Print the ranking of a seed graph",
		Long: `Compute node importance for a seed graph and print it highest first.

  rankgraph rank --example
  rankgraph rank --seed edges.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			graph, err := a.loadGraph(seedPath, example)
			if err != nil {
				return err
			}

			result := a.engine().Compute(cmd.Context(), graph)
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "%s %s\n\n", Brand.Sprint(graph.Name), Subtle.Sprintf("(%d nodes, %d edges)", graph.Len(), len(graph.Edges())))

			rows := make([][]string, 0, len(result.Scores))
			for i, r := range result.Ranked() {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					strconv.Itoa(int(r.ID)),
					result.Format(r.ID),
					strconv.Itoa(len(graph.OutgoingEdges(r.ID))),
					strconv.Itoa(len(graph.IncomingEdges(r.ID))),
				})
			}
			table(out, []string{"#", "NODE", "RANK", "OUT", "IN"}, rows)
			fmt.Fprintln(out)

			if result.Converged {
				Good.Fprintf(out, "  converged after %d iterations\n", result.Iterations)
			} else {
				Warn.Fprintf(out, "  did not converge after %d iterations (delta %.2g)\n", result.Iterations, result.Delta)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&seedPath, "seed", "s", "", "Seed graph file (json, yaml, toml, csv)")
	cmd.Flags().BoolVar(&example, "example", false, "Use the six-node example graph")
	return cmd
}
