package commands

import (
	"github.com/spf13/cobra"

	"haigrab/lib/serviceutil"
	"haigrab/services/grabber"
)

var (
	quoteRemark string
	quoteResult int
)

var quoteCmd = &cobra.Command{
	Use:   "quote <recordId> <orderId> <price>",
	Short: "Submit a quotation for an order you already grabbed.",
	Args:  cobra.ExactArgs(3),
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

		data, err := workflow.Quote(cmd.Context(), grabber.QuoteRequest{
			RecordId:    recordId,
			OrderId:     orderId,
			ActualPrice: args[2],
			QuoteResult: quoteResult,
			Remark:      quoteRemark,
		})
		if err != nil {
			serviceutil.Fatal("submit quotation", err)
		}
		err = printJSON(data)
		if err != nil {
			serviceutil.Fatal("print quotation", err)
		}
	},
}

var updateQuoteCmd = &cobra.Command{
	Use:   "update-quote <recordId> <orderId> <price>",
	Short: "Revise an already-submitted quotation.",
	Args:  cobra.ExactArgs(3),
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

		data, err := workflow.UpdateQuote(cmd.Context(), recordId, orderId, args[2], quoteRemark)
		if err != nil {
			serviceutil.Fatal("update quotation", err)
		}
		err = printJSON(data)
		if err != nil {
			serviceutil.Fatal("print quotation", err)
		}
	},
}

func init() {
	quoteCmd.Flags().StringVar(&quoteRemark, "remark", "", "optional free-text remark")
	quoteCmd.Flags().IntVar(&quoteResult, "quote-result", 1, "quote result code (1 = priced)")
	updateQuoteCmd.Flags().StringVar(&quoteRemark, "remark", "", "optional free-text remark")
	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(updateQuoteCmd)
}
