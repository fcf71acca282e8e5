// Package main is the entrypoint for the dialect-gateway.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/morezero/dialect-gateway/internal/config"
	"github.com/morezero/dialect-gateway/internal/server"
	"github.com/morezero/dialect-gateway/pkg/bootstrap"
	"github.com/morezero/dialect-gateway/pkg/client"
	"github.com/morezero/dialect-gateway/pkg/db"
	"github.com/morezero/dialect-gateway/pkg/dispatcher"
	"github.com/morezero/dialect-gateway/pkg/wrapper"
)

const usage = `Usage: gateway [command]
       gateway serve                         Start the gateway (HTTP, optional NATS and call log).
       gateway migrate up                    Run call log migrations.
       gateway migrate status                Show migration status.
       gateway ensure-db                     Create the DATABASE_URL database if missing.
       gateway call <url> <method> [k=v...]  Call a method on a running gateway.
       gateway dialects                      List registered dialects after bootstrap.

Commands:
  serve           (default) Start the dialect gateway.
  migrate up      Run database migrations only.
  migrate status  Show whether the call_log table exists.
  ensure-db       Create the database named in DATABASE_URL on the same host.
  call            Arguments are k=v (string value) or k:=v (JSON value).
                  _type=<dialect> selects the request dialect (default json).
  dialects        Print the dialect table as JSON.

Environment: HTTP_ADDR (default :8080), DEFAULT_DIALECT, BOOTSTRAP_FILE, COMMS_URL,
DATABASE_URL, RUN_MIGRATIONS, MIGRATION_PATH, LOG_LEVEL. See README.
`

func main() {
	args := os.Args[1:]
	cmd := ""
	if len(args) > 0 && args[0] != "" {
		cmd = args[0]
	}

	switch cmd {
	case "migrate":
		if len(args) < 2 {
			log.Fatalf("gateway migrate: require subcommand (up, status)")
		}
		sub := args[1]
		switch sub {
		case "up":
			if err := runMigrateUp(); err != nil {
				log.Fatalf("gateway migrate up: %v", err)
			}
		case "status":
			if err := runMigrateStatus(); err != nil {
				log.Fatalf("gateway migrate status: %v", err)
			}
		default:
			log.Fatalf("gateway migrate: unknown subcommand %q (use up, status)", sub)
		}
		return
	case "ensure-db":
		if err := runEnsureDB(); err != nil {
			log.Fatalf("gateway ensure-db: %v", err)
		}
		return
	case "call":
		if len(args) < 3 {
			fmt.Fprintf(os.Stderr, "gateway call: require <url> <method>.\n%s", usage)
			os.Exit(1)
		}
		os.Exit(runCall(os.Stdout, os.Stderr, args[1], args[2], args[3:]))
	case "dialects":
		if err := runDialects(os.Stdout); err != nil {
			log.Fatalf("gateway dialects: %v", err)
		}
		return
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	case "serve", "":
		// serve (explicit or default)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q.\n%s", cmd, usage)
		os.Exit(1)
	}

	if err := server.Run(); err != nil {
		log.Fatalf("gateway: %v", err)
	}
}

func runMigrateUp() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	migrationSQL, err := db.LoadMigrationFiles(cfg.MigrationPath)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	if err := db.RunMigrations(ctx, pool, migrationSQL); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func runMigrateStatus() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	applied, err := db.MigrationStatus(ctx, pool, cfg.MigrationPath)
	if err != nil {
		return err
	}
	if applied {
		fmt.Println("call_log: applied")
	} else {
		fmt.Println("call_log: pending")
	}
	return nil
}

func runEnsureDB() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	return db.EnsureDatabase(context.Background(), cfg.DatabaseURL)
}

// runCall performs one client call and returns the process exit code:
// 0 on success, 1 for usage or connection failures, 2 for remote errors.
func runCall(stdout, stderr io.Writer, endpoint, method string, pairs []string) int {
	args, dialect, err := parseCallArgs(pairs)
	if err != nil {
		fmt.Fprintf(stderr, "gateway call: %v\n", err)
		return 1
	}

	opts := []client.Option{client.WithTimeout(30 * time.Second)}
	if dialect != "" {
		opts = append(opts, client.WithDialect(dialect))
	}
	c, err := client.New(endpoint, opts...)
	if err != nil {
		fmt.Fprintf(stderr, "gateway call: %v\n", err)
		return 1
	}

	result, err := c.Call(context.Background(), method, args)
	if err != nil {
		var remote *client.RemoteError
		if errors.As(err, &remote) {
			fmt.Fprintf(stderr, "gateway call: remote error: %v\n", remote)
			return 2
		}
		fmt.Fprintf(stderr, "gateway call: %v\n", err)
		return 1
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(stderr, "gateway call: encode result: %v\n", err)
		return 1
	}
	return 0
}

// parseCallArgs turns k=v and k:=json pairs into call arguments. The
// _type key selects the dialect and is not sent as an argument.
func parseCallArgs(pairs []string) (map[string]any, string, error) {
	args := make(map[string]any, len(pairs))
	dialect := ""
	for _, pair := range pairs {
		if k, raw, ok := strings.Cut(pair, ":="); ok && k != "" && !strings.Contains(k, "=") {
			var v any
			if err := json.Unmarshal([]byte(raw), &v); err != nil {
				return nil, "", fmt.Errorf("argument %s: invalid JSON value: %w", k, err)
			}
			args[k] = v
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, "", fmt.Errorf("argument %q must be k=v or k:=json", pair)
		}
		if k == wrapper.FieldType {
			dialect = v
			continue
		}
		args[k] = v
	}
	return args, dialect, nil
}

func runDialects(w io.Writer) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	reg, err := wrapper.NewDefaultRegistry()
	if err != nil {
		return err
	}
	bootstrapCfg, err := bootstrap.LoadBootstrapConfig(cfg.BootstrapFile)
	if err != nil {
		return err
	}
	if err := bootstrap.Apply(reg, bootstrapCfg); err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]interface{}{
		"default":  cfg.DefaultDialect,
		"dialects": dispatcher.ListDialects(reg),
	})
}
