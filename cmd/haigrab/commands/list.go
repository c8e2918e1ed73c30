package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"haigrab/lib/scrapers/haihuishou"
	"haigrab/lib/serviceutil"
)

var (
	listCatId       string
	listBrandIds    []string
	listOrderState  string
	listMinPrice    string
	listMaxPrice    string
	listSourceNames []string
	listPage        int
	listPageSize    int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List grabbable orders matching the given filter.",
	Run: func(cmd *cobra.Command, args []string) {
		workflow, cleanup, err := newWorkflow(cmd.Context(), true)
		if err != nil {
			serviceutil.Fatal("login", err)
		}
		defer cleanup()

		cond := haihuishou.GrabCondition{
			OrderState:              listOrderState,
			MinPrice:                listMinPrice,
			MaxPrice:                listMaxPrice,
			SourceManufacturerNames: splitNames(listSourceNames),
			PageSize:                listPageSize,
		}
		if listCatId != "" {
			cond.CategoryBrands = []haihuishou.CategoryBrands{{
				CategoryId: listCatId,
				BrandIds:   splitNames(listBrandIds),
			}}
		}

		page, err := workflow.ListOrders(cmd.Context(), cond, listPage)
		if err != nil {
			serviceutil.Fatal("list orders", err)
		}
		err = printJSON(page)
		if err != nil {
			serviceutil.Fatal("print orders", err)
		}
	},
}

// splitNames flattens repeated flags and comma-separated values into
// one list.
func splitNames(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func init() {
	listCmd.Flags().StringVar(&listCatId, "cat-id", "", "category id to filter on")
	listCmd.Flags().StringSliceVar(&listBrandIds, "brand-ids", nil, "brand ids under --cat-id")
	listCmd.Flags().StringVar(&listOrderState, "order-state", "", "order state (default \"10\", open)")
	listCmd.Flags().StringVar(&listMinPrice, "min-price", "", "minimum price, omitted when empty")
	listCmd.Flags().StringVar(&listMaxPrice, "max-price", "", "maximum price, omitted when empty")
	listCmd.Flags().StringSliceVar(&listSourceNames, "source-names", nil, "source manufacturer names")
	listCmd.Flags().IntVar(&listPage, "page", 1, "page index, 1-based")
	listCmd.Flags().IntVar(&listPageSize, "page-size", 20, "orders per page")
	rootCmd.AddCommand(listCmd)
}
