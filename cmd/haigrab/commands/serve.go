package commands

import (
	"os"

	"github.com/spf13/cobra"

	"haigrab/lib/scrapers/haihuishou"
	"haigrab/lib/serviceutil"
	"haigrab/lib/telemetry"
	"haigrab/services/grabber/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web UI backend.",
	Run: func(cmd *cobra.Command, args []string) {
		tel, err := telemetry.SetupFromEnv(cmd.Context(), "haigrab")
		if err != nil {
			serviceutil.Fatal("setup telemetry", err)
		}
		defer tel.Shutdown(cmd.Context())

		svc := server.New(server.Options{
			Vendor:        haihuishou.ClientOptions{},
			SessionSecret: os.Getenv("HAIHUISHOU_SECRET_KEY"),
			Database:      openAuditDb(),
		})
		serviceutil.StartHttpServer(serveAddr, svc.Router())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":5050", "listen address")
	rootCmd.AddCommand(serveCmd)
}
