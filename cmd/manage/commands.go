package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/service"
)

var errUsage = errors.New("usage")

// app holds what the commands work with. Tests build one over an in-memory
// database.
type app struct {
	catalog *service.CatalogService
	users   *service.UserService
	out     io.Writer
}

type command struct {
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"load-ingredients": {
		usage: "load-ingredients -file <path>  bulk-load [{\"name\", \"measurement_unit\"}]; existing pairs are skipped",
		run:   loadIngredients,
	},
	"load-tags": {
		usage: "load-tags -file <path>         load [{\"name\", \"color\", \"slug\"}]; existing tags are skipped",
		run:   loadTags,
	},
	"promote": {
		usage: "promote -email <address>       grant superuser rights",
		run:   promote,
	},
}

func usage() string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Usage: manage <command> [flags]\n\nCommands:\n")
	for _, name := range names {
		fmt.Fprintf(&b, "  %s\n", commands[name].usage)
	}
	return b.String()
}

// dispatch runs one command and maps its outcome to an exit code:
// 0 on success, 2 on a usage error, 1 otherwise.
func dispatch(ctx context.Context, a *app, args []string, stderr io.Writer) int {
	name := strings.ToLower(args[0])
	c, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "Unknown command: %s\n\n%s", name, usage())
		return 2
	}

	switch err := c.run(ctx, a, args[1:]); {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintf(stderr, "Usage: manage %s\n", c.usage)
		return 2
	default:
		fmt.Fprintf(stderr, "%s error: %v\n", name, err)
		return 1
	}
}

// requiredFlag parses args with one string flag that must be set.
func requiredFlag(command, name, help string, args []string) (string, error) {
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	value := fs.String(name, "", help)
	if err := fs.Parse(args); err != nil {
		return "", errUsage
	}
	if strings.TrimSpace(*value) == "" {
		return "", errUsage
	}
	return *value, nil
}

func readJSONFile(path string, dst any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(dst); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

func loadIngredients(ctx context.Context, a *app, args []string) error {
	path, err := requiredFlag("load-ingredients", "file", "JSON file with the ingredients", args)
	if err != nil {
		return err
	}
	var items []model.Ingredient
	if err := readJSONFile(path, &items); err != nil {
		return err
	}

	inserted, err := a.catalog.ImportIngredients(ctx, items)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "loaded %d ingredients (%d already present)\n", inserted, len(items)-inserted)
	return nil
}

func loadTags(ctx context.Context, a *app, args []string) error {
	path, err := requiredFlag("load-tags", "file", "JSON file with the tags", args)
	if err != nil {
		return err
	}
	var tags []model.Tag
	if err := readJSONFile(path, &tags); err != nil {
		return err
	}

	created := 0
	for i, tag := range tags {
		if _, err := a.catalog.CreateTag(ctx, tag); err != nil {
			if errors.Is(err, apperror.ErrDuplicate) {
				continue
			}
			return fmt.Errorf("tag %d (%q): %w", i, tag.Slug, err)
		}
		created++
	}
	fmt.Fprintf(a.out, "loaded %d tags (%d already present)\n", created, len(tags)-created)
	return nil
}

func promote(ctx context.Context, a *app, args []string) error {
	email, err := requiredFlag("promote", "email", "email of the account to promote", args)
	if err != nil {
		return err
	}
	if err := a.users.Promote(ctx, email); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s is now a superuser\n", email)
	return nil
}
