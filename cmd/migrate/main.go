// Command migrate manages the voucherdesk schema.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/voucherdesk/backend/internal/infrastructure/config"
	"github.com/voucherdesk/backend/internal/infrastructure/logger"
	"github.com/voucherdesk/backend/internal/infrastructure/migration"
	"github.com/voucherdesk/backend/migrations"
	"go.uber.org/zap"
)

const scaffoldDir = "migrations"

var errUsage = errors.New("usage")

// schemaCommand runs against a connected database
type schemaCommand struct {
	usage string
	run   func(m *migration.Migrator, args []string, log *zap.Logger) error
}

var schemaCommands = map[string]schemaCommand{
	"up": {"up", func(m *migration.Migrator, _ []string, _ *zap.Logger) error {
		return m.Up()
	}},
	"down": {"down", func(m *migration.Migrator, _ []string, _ *zap.Logger) error {
		return m.Down()
	}},
	"step": {"step <n>", func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		n, err := intArg(args)
		if err != nil {
			return err
		}
		return m.Steps(n)
	}},
	"force": {"force <version>", func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		v, err := intArg(args)
		if err != nil {
			return err
		}
		return m.Force(v)
	}},
	"version": {"version", func(m *migration.Migrator, _ []string, log *zap.Logger) error {
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		if version == 0 {
			log.Info("No migrations applied")
			return nil
		}
		log.Info("Schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	}},
}

func main() {
	dir := flag.String("path", "", "Read migrations from this directory instead of the embedded set")
	level := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	log, err := logger.New(&logger.Config{
		Level:      *level,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: time.DateTime,
		Service:    "voucherdesk-migrate",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, flag.Args(), *dir, log)
	stop()
	_ = log.Sync()

	switch {
	case errors.Is(err, errUsage):
		printUsage()
		os.Exit(2)
	case err != nil:
		log.Error("migrate failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, dir string, log *zap.Logger) error {
	if len(args) == 0 {
		return errUsage
	}
	name, rest := args[0], args[1:]

	switch name {
	case "create":
		return create(dir, rest, log)
	case "list":
		return list(dir, log)
	}

	cmd, ok := schemaCommands[name]
	if !ok {
		log.Error("Unknown command", zap.String("command", name))
		return errUsage
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("ping database %s: %w", cfg.Database.DBName, err)
	}

	var src fs.FS = migrations.FS
	source := "embedded"
	if dir != "" {
		src, source = os.DirFS(dir), dir
	}
	log.Info("Migrating",
		zap.String("command", name),
		zap.String("source", source),
		zap.String("database", cfg.Database.DBName),
	)

	m, err := migration.New(db, src, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("close migrator", zap.Error(err))
		}
	}()

	// golang-migrate stops after the running file on GracefulStop
	go func() {
		<-ctx.Done()
		m.Stop()
	}()

	if err := cmd.run(m, rest, log); err != nil {
		return fmt.Errorf("%s: %w", cmd.usage, err)
	}
	return nil
}

func create(dir string, args []string, log *zap.Logger) error {
	if len(args) == 0 {
		return fmt.Errorf("create needs a name: %w", errUsage)
	}
	var description string
	if len(args) > 1 {
		description = args[1]
	}
	mf, err := migration.CreateMigration(orScaffoldDir(dir), args[0], description, time.Now())
	if err != nil {
		return err
	}
	log.Info("Migration created",
		zap.String("version", mf.Version),
		zap.String("up", mf.UpPath),
		zap.String("down", mf.DownPath),
	)
	return nil
}

func list(dir string, log *zap.Logger) error {
	found, err := migration.ListMigrations(orScaffoldDir(dir))
	if err != nil {
		return err
	}
	log.Info("Migrations on disk", zap.Int("count", len(found)))
	for _, m := range found {
		fmt.Println("  -", m)
	}
	return nil
}

func intArg(args []string) (int, error) {
	if len(args) == 0 {
		return 0, errUsage
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%q is not a number: %w", args[0], errUsage)
	}
	return n, nil
}

func orScaffoldDir(dir string) string {
	if dir == "" {
		return scaffoldDir
	}
	return dir
}

func printUsage() {
	fmt.Fprint(os.Stderr, `voucherdesk schema migrations

Usage:
  migrate [-path dir] [-log-level level] <command> [arguments]

Commands:
  up                    apply every pending migration
  down                  roll back every migration
  step <n>              apply n migrations, negative n rolls back
  version               print the applied version
  force <version>       mark version applied and clear the dirty flag
  create <name> [desc]  scaffold an up/down pair under ./migrations
  list                  list the up migrations on disk

The database is read from config.toml and VOUCHER_DATABASE_* variables.
`)
}
