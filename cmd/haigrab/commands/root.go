package commands

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"haigrab/lib/configutil"
	"haigrab/lib/restyutil"
	"haigrab/lib/scrapers/haihuishou"
	"haigrab/lib/telemetry"
	"haigrab/services/grabber"
	"haigrab/services/grabber/db"

	"github.com/spf13/cobra"
)

var (
	loginName   string
	loginPwd    string
	dbPath      string
	verbose     bool
	dumpHttpDir string
)

var rootCmd = &cobra.Command{
	Use:   "haigrab",
	Short: "haigrab is a CLI for grabbing and quoting Haihuishou recycling orders.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(verbose)
		if dumpHttpDir != "" {
			haihuishou.SetRestyInstrumentOutput(restyutil.NewFilesystemOutput(dumpHttpDir))
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&loginName, "login-name", os.Getenv("HAIHUISHOU_LOGIN_NAME"), "login phone number")
	rootCmd.PersistentFlags().StringVar(&loginPwd, "login-pwd", os.Getenv("HAIHUISHOU_LOGIN_PWD"), "login password (plaintext or md5 digest)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "haigrab.db", "path to the grab/quote history database, empty to disable")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&dumpHttpDir, "dump-http", "", "dump raw vendor exchanges to this directory (requires -v)")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Config is the optional config.json5 fallback for credentials.
type Config struct {
	LoginName string `json:"login_name"`
	LoginPwd  string `json:"login_pwd"`
}

func prompt(label string) string {
	fmt.Fprint(os.Stderr, label)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

// credentials resolves the login pair: flags/env first, then
// config.json5, then an interactive prompt.
func credentials() (string, string, error) {
	name, pwd := loginName, loginPwd
	if name == "" || pwd == "" {
		cfg, err := configutil.ReadConfig[Config]("config.json5")
		if err == nil {
			if name == "" {
				name = cfg.LoginName
			}
			if pwd == "" {
				pwd = cfg.LoginPwd
			}
		} else if !os.IsNotExist(err) {
			return "", "", err
		}
	}
	if name == "" {
		name = prompt("login phone: ")
	}
	if pwd == "" {
		pwd = prompt("login password: ")
	}
	if name == "" || pwd == "" {
		return "", "", errors.New("login name and password are required")
	}
	return name, pwd, nil
}

func openAuditDb() *sql.DB {
	if dbPath == "" {
		return nil
	}
	database, err := db.Open(dbPath)
	if err != nil {
		slog.Warn("history database unavailable, continuing without it", "path", dbPath, "err", err)
		return nil
	}
	return database
}

// newWorkflow builds the workflow service, logging in first when the
// command needs a session.
func newWorkflow(ctx context.Context, needLogin bool) (grabber.Service, func(), error) {
	database := openAuditDb()
	cleanup := func() {
		if database != nil {
			database.Close()
		}
	}

	client := haihuishou.NewClient(haihuishou.ClientOptions{})
	workflow := grabber.NewService(client, database)

	if needLogin {
		name, pwd, err := credentials()
		if err != nil {
			cleanup()
			return grabber.Service{}, nil, err
		}
		_, err = workflow.Login(ctx, name, pwd)
		if err != nil {
			cleanup()
			return grabber.Service{}, nil, fmt.Errorf("login failed: %w", err)
		}
	}
	return workflow, cleanup, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
