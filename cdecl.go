// Command cdecl explains C declarations in English.
//
//	$ echo 'char *(*fp)(int);' | cdecl explain
//	fp is a pointer to function(int) returning pointer to char
//
// Environment variables:
//
//	CDECL_CONFIG=path  ini file to read settings from.
//	CDECLDEBUG=true    debug logging and stack traces on syntax errors.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const version = "0.2"

// errReported is returned by a command whose errors were already printed.
var errReported = errors.New("command failed")

type command interface {
	help() *commandHelp
	flags(flags *pflag.FlagSet)
	run(ctx context.Context, a *app, argv []string) error
}

type commandHelp struct {
	usage   string
	summary string
	args    cobra.PositionalArgs
}

// app is the state shared by every command run.
type app struct {
	stdout io.Writer
	stderr io.Writer
	log    *logrus.Logger
	src    *sources

	configPath string
	logLevel   string
	output     string
	includes   []string
	defines    []string
	typedefs   []string
	maxDepth   int
	jobs       int

	cfg *config
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	log := logrus.New()
	log.SetOutput(stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return &app{
		stdout: stdout,
		stderr: stderr,
		log:    log,
		src:    newSources(stdin),
	}
}

func (a *app) rootCommand(ctx context.Context) *cobra.Command {
	root := &cobra.Command{
		Use:           "cdecl COMMAND",
		Short:         "Explain C declarations in English",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Flags())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "ini file with settings (default $"+configEnv+" or ./"+defaultConfigFile+")")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warning or error")
	flags.StringVarP(&a.output, "output", "o", "-", "file to write output to, - for stdout")
	flags.StringArrayVarP(&a.includes, "include", "I", nil, "add a directory to the header search path")
	flags.StringArrayVarP(&a.defines, "define", "D", nil, "define a macro, NAME or NAME=VALUE")
	flags.StringSliceVar(&a.typedefs, "typedef", nil, "treat names as typedefs without seeing their definition")
	flags.IntVar(&a.maxDepth, "max-depth", 0, "deepest declaration tree to explain")
	flags.IntVar(&a.jobs, "jobs", 0, "number of files processed at once")

	commands := []command{
		&cmdExplain{},
		&cmdAST{},
		&cmdTokens{},
	}
	for _, cmd := range commands {
		help := cmd.help()
		cobraCmd := &cobra.Command{
			Use:   help.usage,
			Short: help.summary,
			Args:  help.args,
			RunE: func(_ *cobra.Command, args []string) error {
				return cmd.run(ctx, a, args)
			},
		}
		cmd.flags(cobraCmd.Flags())
		root.AddCommand(cobraCmd)
	}
	return root
}

// setup loads the config file and applies the command-line flags over it.
func (a *app) setup(flags *pflag.FlagSet) error {
	cfg, err := loadConfig(findConfig(a.configPath))
	if err != nil {
		return err
	}
	cfg.includePaths = append(cfg.includePaths, a.includes...)
	cfg.defines = append(cfg.defines, a.defines...)
	cfg.typedefs = append(cfg.typedefs, a.typedefs...)
	if flags.Changed("max-depth") {
		cfg.maxDepth = a.maxDepth
	}
	if flags.Changed("jobs") {
		cfg.jobs = a.jobs
	}
	if flags.Changed("log-level") {
		cfg.logLevel = a.logLevel
	}
	if os.Getenv("CDECLDEBUG") == "true" {
		cfg.logLevel = "debug"
	}

	level, err := logrus.ParseLevel(cfg.logLevel)
	if err != nil {
		return err
	}
	a.log.SetLevel(level)
	if cfg.jobs < 1 {
		return errors.Errorf("jobs must be at least 1, got %d", cfg.jobs)
	}
	if cfg.source == "" {
		a.log.Debug("no config file, using defaults")
	} else {
		a.log.Debugf("loaded config from %s", cfg.source)
	}
	a.cfg = cfg
	return nil
}

// writeOutput hands the -o destination to write.
func (a *app) writeOutput(write func(w io.Writer) error) error {
	if a.output == "-" {
		return write(a.stdout)
	}
	f, err := os.Create(a.output)
	if err != nil {
		return errors.Wrap(err, "failed to open output file")
	}
	writeErr := write(f)
	closeErr := f.Close()
	if writeErr != nil {
		return writeErr
	}
	return errors.WithStack(closeErr)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := newApp(stdin, stdout, stderr)
	root := a.rootCommand(ctx)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(stderr, "error: %s\n", err)
		}
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
