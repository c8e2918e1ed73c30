package commands

import (
	"strconv"

	"github.com/spf13/cobra"

	"haigrab/lib/serviceutil"
)

var grabCmd = &cobra.Command{
	Use:   "grab <recordId> <orderId>",
	Short: "Attempt to reserve an order for quoting.",
	Long: `Attempt to reserve an order for quoting. Losing the race to
another agent is a normal outcome, not an error: the command prints
status "lost" and exits zero.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		recordId, orderId, err := parseIdPair(args[0], args[1])
		if err != nil {
			serviceutil.Fatal("parse ids", err)
		}

		workflow, cleanup, err := newWorkflow(cmd.Context(), true)
		if err != nil {
			serviceutil.Fatal("login", err)
		}
		defer cleanup()

		outcome, err := workflow.Grab(cmd.Context(), recordId, orderId)
		if err != nil {
			serviceutil.Fatal("grab order", err)
		}
		err = printJSON(outcome)
		if err != nil {
			serviceutil.Fatal("print outcome", err)
		}
	},
}

func parseIdPair(record, order string) (int64, int64, error) {
	recordId, err := strconv.ParseInt(record, 10, 64)
	if err != nil {
		return 0, 0, err
	}
	orderId, err := strconv.ParseInt(order, 10, 64)
	if err != nil {
		return 0, 0, err
	}
	return recordId, orderId, nil
}

func init() {
	rootCmd.AddCommand(grabCmd)
}
