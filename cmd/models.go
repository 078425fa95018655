package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/answers/internal/cost"
	"github.com/sells-group/answers/internal/selector"
)

var modelsSample string

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the model catalog and show what the selector would pick",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := selector.LoadCatalog(cfg.Models.CatalogPath)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PROVIDER\tMODEL\tTIER\t$/1K IN\t$/1K OUT\tMAX TOKENS\tENABLED")
		for _, m := range catalog.Models {
			fmt.Fprintf(w, "%s\t%s\t%s\t%.4f\t%.4f\t%d\t%v\n",
				m.Provider, m.Model, m.Tier, m.CostPer1KIn, m.CostPer1KOut, m.MaxTokens, m.Enabled)
		}
		w.Flush()

		if modelsSample == "" {
			return nil
		}

		calc := cost.NewCalculator(catalog.Models)
		sel, err := selector.NewSelector(catalog, calc, cfg.Models.MaxOutputTokens).Select(modelsSample, 0)
		if err != nil {
			return err
		}

		fmt.Printf("\nSample query: %q\n", modelsSample)
		fmt.Printf("classified complexity=%s category=%s\n", sel.Complexity, sel.Category)
		fmt.Printf("selection (best first, est. cost $%.5f):\n", sel.EstimatedCost)
		for i, c := range sel.Candidates {
			fmt.Printf("  %d. %s/%s (%s)\n", i+1, c.Provider, c.Model, c.Tier)
		}
		return nil
	},
}

func init() {
	modelsCmd.Flags().StringVar(&modelsSample, "sample", "", "classify this query and show the candidate order")
	rootCmd.AddCommand(modelsCmd)
}
