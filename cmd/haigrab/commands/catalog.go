package commands

import (
	"strconv"

	"github.com/spf13/cobra"

	"haigrab/lib/serviceutil"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List manufacturers and device categories (no login required).",
	Run: func(cmd *cobra.Command, args []string) {
		workflow, cleanup, err := newWorkflow(cmd.Context(), false)
		if err != nil {
			serviceutil.Fatal("init", err)
		}
		defer cleanup()

		catalogs, err := workflow.Catalogs(cmd.Context())
		if err != nil {
			serviceutil.Fatal("fetch catalogs", err)
		}
		err = printJSON(catalogs)
		if err != nil {
			serviceutil.Fatal("print catalogs", err)
		}
	},
}

var brandsCmd = &cobra.Command{
	Use:   "brands <catId>",
	Short: "List brands under a device category (no login required).",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		catId, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			serviceutil.Fatal("parse catId", err)
		}

		workflow, cleanup, err := newWorkflow(cmd.Context(), false)
		if err != nil {
			serviceutil.Fatal("init", err)
		}
		defer cleanup()

		brands, err := workflow.Brands(cmd.Context(), catId)
		if err != nil {
			serviceutil.Fatal("fetch brands", err)
		}
		err = printJSON(brands)
		if err != nil {
			serviceutil.Fatal("print brands", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
	rootCmd.AddCommand(brandsCmd)
}
