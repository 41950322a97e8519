package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/k0kubun/pp/v3"
	"github.com/sqldef/modeldef"
	"github.com/sqldef/modeldef/database"
	"github.com/sqldef/modeldef/schema"
	"github.com/sqldef/modeldef/util"
	"golang.org/x/term"
)

// version and revision are set via -ldflags
var version = "dev"
var revision = "HEAD"

type cliOptions struct {
	Models      string   `short:"m" long:"models" description:"Read the model file, rather than stdin" value-name:"models_file" default:"-"`
	Config      string   `long:"config" description:"YAML file to specify: skip_tables, skip_drop, reset, before_apply" value-name:"config_file"`
	SkipTables  []string `long:"skip-table" description:"Regular expression of tables to leave alone (can be specified multiple times)" value-name:"pattern"`
	DryRun      bool     `long:"dry-run" description:"Don't run statements but just show them"`
	SkipDrop    bool     `long:"skip-drop" description:"Skip destructive changes such as DROP TABLE and DROP COLUMN"`
	Reset       bool     `long:"reset" description:"Drop and recreate tables that cannot be migrated without losing records"`
	Create      bool     `long:"create" description:"Create the database if it does not exist; with --reset, drop it first"`
	Prompt      bool     `long:"password-prompt" description:"Force password prompt"`
	BeforeApply string   `long:"before-apply" description:"Execute the given string before applying the statements"`
	Debug       bool     `long:"debug" description:"Print the parsed models and the result"`
	Help        bool     `long:"help" description:"Show this help"`
	Version     bool     `long:"version" description:"Show this version"`
}

type command struct {
	url     string
	models  string
	create  bool
	prompt  bool
	debug   bool
	options modeldef.Options
}

var errNoDatabase = errors.New("no database is specified")

// parseOptions returns nil without error when only help or version was asked for.
func parseOptions(args []string) (*command, error) {
	var opts cliOptions
	parser := flags.NewParser(&opts, flags.None)
	parser.Usage = "[OPTIONS] database_url < models.yml"
	args, err := parser.ParseArgs(args)
	if err != nil {
		return nil, err
	}

	if opts.Help {
		parser.WriteHelp(os.Stdout)
		return nil, nil
	}
	if opts.Version {
		fmt.Printf("%s (%s)\n", version, revision)
		return nil, nil
	}

	if len(args) == 0 {
		parser.WriteHelp(os.Stderr)
		return nil, errNoDatabase
	} else if len(args) > 1 {
		parser.WriteHelp(os.Stderr)
		return nil, fmt.Errorf("multiple databases are given: %v", args)
	}

	options := modeldef.Options{
		DryRun:      opts.DryRun,
		SkipDrop:    opts.SkipDrop,
		Reset:       opts.Reset,
		SkipTables:  opts.SkipTables,
		BeforeApply: opts.BeforeApply,
		Logger:      database.NewStdoutLogger(),
	}
	config, err := modeldef.ParseConfig(opts.Config)
	if err != nil {
		return nil, err
	}
	config.Apply(&options)
	if options.Reset && options.SkipDrop {
		return nil, errors.New("--reset cannot be combined with --skip-drop")
	}

	return &command{
		url:     args[0],
		models:  opts.Models,
		create:  opts.Create,
		prompt:  opts.Prompt,
		debug:   opts.Debug,
		options: options,
	}, nil
}

// connectionConfig resolves the password: $MODELDEF_PASSWORD overrides the
// URL, and the prompt overrides both.
func (c *command) connectionConfig() (schema.Dialect, database.Config, error) {
	d, config, err := database.ParseURL(c.url)
	if err != nil {
		return d, config, err
	}
	if password, ok := os.LookupEnv("MODELDEF_PASSWORD"); ok {
		config.Password = password
	}
	if c.prompt {
		fmt.Printf("Enter Password: ")
		pass, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return d, config, err
		}
		config.Password = string(pass)
	}
	return d, config, nil
}

func run(ctx context.Context, c *command) error {
	models, err := modeldef.ReadModels(c.models)
	if err != nil {
		return err
	}
	if c.debug {
		pp.Println(models)
	}

	d, config, err := c.connectionConfig()
	if err != nil {
		return err
	}
	if c.create && !c.options.DryRun {
		if err := modeldef.EnsureDatabaseConfig(ctx, d, config, c.options.Reset, c.options.Logger); err != nil {
			return err
		}
	}

	db, err := modeldef.OpenConfig(d, config)
	if err != nil {
		return err
	}
	defer db.Close()

	result, err := modeldef.Converge(ctx, db, models, c.options)
	if c.debug && result != nil {
		pp.Println(result)
	}
	return err
}

func main() {
	util.InitSlog()

	c, err := parseOptions(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	if c == nil {
		os.Exit(0)
	}
	if c.debug {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	if err := run(context.Background(), c); err != nil {
		log.Fatal(err)
	}
}
