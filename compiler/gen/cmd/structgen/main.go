// structgen generates value-object Go code from a YAML mapping definition.
// Run: go run ./compiler/gen/cmd/structgen -config mapping.yaml -out ./model
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/syssam/structcol/compiler/gen"
	"github.com/syssam/structcol/compiler/load"
)

func main() {
	var (
		configPath = flag.String("config", "mapping.yaml", "path to the YAML mapping definition")
		out        = flag.String("out", ".", "output directory for generated files")
		pkg        = flag.String("pkg", "", "package name of generated files (defaults to the definition's package)")
		workers    = flag.Int("workers", 0, "maximum parallel file generation (defaults to GOMAXPROCS)")
		watch      = flag.Bool("watch", false, "watch the definition file and regenerate on change")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run := func() error {
		return generate(ctx, *configPath, *out, *pkg, *workers)
	}
	if err := run(); err != nil {
		slog.Error("generation failed", "config", *configPath, "err", err)
		if !*watch {
			os.Exit(1)
		}
	}
	if !*watch {
		return
	}
	slog.Info("watching for changes", "config", *configPath)
	if err := gen.Watch(ctx, *configPath, run); err != nil && ctx.Err() == nil {
		slog.Error("watcher stopped", "err", err)
		os.Exit(1)
	}
}

// generate reloads the definitions and runs one generation pass.
func generate(ctx context.Context, configPath, out, pkg string, workers int) error {
	spec, err := load.ParseFile(configPath)
	if err != nil {
		return err
	}
	if pkg == "" {
		pkg = spec.Package
	}
	cfg, err := gen.NewConfig(
		gen.WithTarget(out),
		gen.WithPackage(pkg),
		gen.WithWorkers(workers),
	)
	if err != nil {
		return err
	}
	if err := gen.NewGenerator(cfg, spec).Generate(ctx); err != nil {
		return err
	}
	slog.Info("generated", "types", len(spec.Types), "out", out)
	return nil
}
