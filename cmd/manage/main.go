// Command manage runs administrative tasks against the recipe database:
// seeding the ingredient and tag catalogs and promoting superusers.
//
//	manage load-ingredients -file data/ingredients.json
//	manage load-tags -file data/tags.json
//	manage promote -email admin@example.com
//
// It reads the same environment (DB_PATH, LOG_LEVEL, ...) as the server.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sakif/foodgram/internal/auth"
	"github.com/sakif/foodgram/internal/config"
	"github.com/sakif/foodgram/internal/logging"
	"github.com/sakif/foodgram/internal/repository/sqlite"
	"github.com/sakif/foodgram/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || isHelp(args[0]) {
		fmt.Fprint(stdout, usage())
		if len(args) == 0 {
			return 2
		}
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "manage: %v\n", err)
		return 1
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "manage: %v\n", err)
		return 1
	}
	db, err := sqlite.New(cfg.DBPath)
	if err != nil {
		fmt.Fprintf(stderr, "manage: %v\n", err)
		return 1
	}
	defer db.Close()

	a := &app{
		catalog: service.NewCatalogService(db, logger),
		users:   service.NewUserService(db, auth.NewPasswordService(), logger),
		out:     stdout,
	}
	return dispatch(ctx, a, args, stderr)
}

func isHelp(arg string) bool {
	return arg == "help" || arg == "-h" || arg == "--help"
}
