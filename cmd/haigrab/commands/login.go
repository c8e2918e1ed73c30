package commands

import (
	"github.com/spf13/cobra"

	"haigrab/lib/serviceutil"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and print the session token and user id.",
	Run: func(cmd *cobra.Command, args []string) {
		workflow, cleanup, err := newWorkflow(cmd.Context(), true)
		if err != nil {
			serviceutil.Fatal("login", err)
		}
		defer cleanup()

		status := workflow.Status()
		err = printJSON(status)
		if err != nil {
			serviceutil.Fatal("print login status", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
}
