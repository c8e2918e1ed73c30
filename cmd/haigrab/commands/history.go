package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"haigrab/lib/scrapers/haihuishou"
	"haigrab/lib/serviceutil"
	"haigrab/services/grabber"
)

var historyLimit int64

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent grab attempts and quotations from the local database.",
	Run: func(cmd *cobra.Command, args []string) {
		database := openAuditDb()
		if database == nil {
			serviceutil.Fatal("history", errors.New("no history database (see --db)"))
		}
		defer database.Close()

		workflow := grabber.NewService(haihuishou.NewClient(haihuishou.ClientOptions{}), database)
		history, err := workflow.History(cmd.Context(), historyLimit)
		if err != nil {
			serviceutil.Fatal("read history", err)
		}
		err = printJSON(history)
		if err != nil {
			serviceutil.Fatal("print history", err)
		}
	},
}

func init() {
	historyCmd.Flags().Int64Var(&historyLimit, "limit", 100, "maximum rows per table")
	rootCmd.AddCommand(historyCmd)
}
