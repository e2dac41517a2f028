// Command batch-upsert validates a batch file and optionally applies it.
//
//	batch-upsert --file ./data.json --entity-type productDoc --locale zh-CN --mode dry-run|apply --role editor|admin --actor script
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/goliatone/go-catalog"
	"github.com/goliatone/go-catalog/internal/batch"
	internalcommands "github.com/goliatone/go-catalog/internal/commands"
	batchcmd "github.com/goliatone/go-catalog/internal/commands/batch"
	"github.com/goliatone/go-catalog/internal/logging/console"
)

const (
	modeDryRun = "dry-run"
	modeApply  = "apply"
)

var errValidationFailed = errors.New("validation failed; apply skipped")

// Options captures the flags that shape the module.
type Options struct {
	Driver   string
	DSN      string
	LogLevel string
	Stderr   io.Writer
}

var moduleBuilder = buildModule

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("batch-upsert: load .env: %v", err)
	}
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, errValidationFailed) {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		log.Fatalf("batch-upsert: %v", err)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fset := flag.NewFlagSet("batch-upsert", flag.ContinueOnError)
	fset.SetOutput(stderr)
	file := fset.String("file", "", "Batch file (.json, .yaml, .yml, .csv, .md) or a directory of them")
	entityType := fset.String("entity-type", "", "product, productDoc, homepage, leaderboard, collection or media")
	locale := fset.String("locale", "", "Fallback locale for items without one")
	mode := fset.String("mode", modeDryRun, "dry-run validates only; apply writes when the batch is valid")
	role := fset.String("role", "editor", "Role used when applying: viewer, editor or admin")
	actor := fset.String("actor", "cli-batch", "Actor recorded on audit entries")
	driver := fset.String("db-driver", envOr("CATALOG_DB_DRIVER", "memory"), "Storage driver: memory, sqlite or postgres")
	dsn := fset.String("db-dsn", os.Getenv("CATALOG_DB_DSN"), "Storage DSN for sql drivers")
	logLevel := fset.String("log-level", envOr("CATALOG_LOG_LEVEL", "error"), "Minimum log level")

	if err := fset.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*file) == "" || strings.TrimSpace(*entityType) == "" {
		fset.Usage()
		return errors.New("--file and --entity-type are required")
	}
	switch *mode {
	case modeDryRun, modeApply:
	default:
		return fmt.Errorf("unknown mode %q", *mode)
	}

	items, err := loadItems(*file)
	if err != nil {
		return err
	}

	module, err := moduleBuilder(Options{Driver: *driver, DSN: *dsn, LogLevel: *logLevel, Stderr: stderr})
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	defer module.Close()
	if err := module.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	logger := internalcommands.CommandLogger(module.Container().LoggerProvider(), "batch")

	var validation *batch.ValidationResult
	validate := batchcmd.NewValidateBatchHandler(module.Batch(), logger, func(_ context.Context, result *batch.ValidationResult) {
		validation = result
	})
	if err := validate.Execute(ctx, batchcmd.ValidateBatchCommand{
		EntityType: *entityType,
		Locale:     *locale,
		Items:      items,
	}); err != nil {
		return fmt.Errorf("execute validate command: %w", err)
	}
	if err := printJSON(stdout, validateStep{Step: "validate", ValidationResult: validation}); err != nil {
		return err
	}

	if *mode == modeDryRun {
		return nil
	}
	if !validation.Valid {
		return errValidationFailed
	}

	var applied *batch.UpsertResult
	apply := batchcmd.NewApplyBatchHandler(module.Batch(), logger, func(_ context.Context, result *batch.UpsertResult) {
		applied = result
	})
	if err := apply.Execute(ctx, batchcmd.ApplyBatchCommand{
		EntityType: *entityType,
		Locale:     *locale,
		Items:      items,
		Role:       *role,
		ActorID:    *actor,
	}); err != nil {
		if errors.Is(err, batchcmd.ErrBatchInvalid) {
			return errValidationFailed
		}
		return fmt.Errorf("execute apply command: %w", err)
	}

	if err := printJSON(stdout, applyStep{Step: "apply", Result: applied}); err != nil {
		return err
	}
	return printJSON(stdout, diffStep{
		Step:   "diff",
		Before: validation.Stats,
		After:  diffAfter{Stats: validation.Stats, Applied: applied.Applied},
	})
}

type validateStep struct {
	Step string `json:"step"`
	*batch.ValidationResult
}

type applyStep struct {
	Step   string              `json:"step"`
	Result *batch.UpsertResult `json:"result"`
}

type diffStep struct {
	Step   string      `json:"step"`
	Before batch.Stats `json:"before"`
	After  diffAfter   `json:"after"`
}

type diffAfter struct {
	batch.Stats
	Applied int `json:"applied"`
}

func buildModule(opts Options) (*catalog.Module, error) {
	cfg := catalog.DefaultConfig()
	cfg.Storage.Driver = opts.Driver
	cfg.Storage.DSN = opts.DSN
	cfg.Logging.Level = opts.LogLevel

	consoleOpts := console.Options{Writer: opts.Stderr}
	if level, ok := console.ParseLevel(opts.LogLevel); ok {
		consoleOpts.MinLevel = &level
	}
	return catalog.New(cfg, catalog.WithLoggerProvider(console.NewProvider(consoleOpts)))
}

func loadItems(path string) ([]map[string]any, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return batch.LoadDirectory(os.DirFS(abs), ".")
	}
	return batch.LoadFile(os.DirFS(filepath.Dir(abs)), filepath.Base(abs))
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
