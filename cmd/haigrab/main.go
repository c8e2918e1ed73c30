package main

import (
	"haigrab/cmd/haigrab/commands"
	"haigrab/lib/serviceutil"

	"github.com/joho/godotenv"
)

func main() {
	// credentials may live in a .env next to the binary
	godotenv.Load()
	commands.ExecuteContext(serviceutil.SignalContext())
}
