package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/n2code/dupcat"
	"github.com/n2code/dupcat/cmd/dupcat/flags"
	"github.com/n2code/dupcat/internal/errors"
	"github.com/n2code/dupcat/internal/filesystem"
	"github.com/n2code/dupcat/internal/logging"
	"github.com/n2code/dupcat/internal/output"
)

// cli carries everything a command needs. It is set up once per invocation before any command runs.
type cli struct {
	in         io.Reader
	out        io.Writer
	errOut     io.Writer
	config     *viper.Viper
	configFile string
	print      output.Printer
	log        zerolog.Logger
	logCloser  io.Closer
	engine     dupcat.Engine
	files      filesystem.FS //scanned trees, OS if nil
	wd         string
}

func run(ctx context.Context, args []string, in io.Reader, out io.Writer, errOut io.Writer) int {
	return (&cli{in: in, out: out, errOut: errOut}).execute(ctx, args)
}

func (c *cli) execute(ctx context.Context, args []string) int {
	c.config = viper.New()
	root := c.rootCommand()
	root.SetArgs(args)
	root.SetIn(c.in)
	root.SetOut(c.out)
	root.SetErr(c.errOut)

	err := root.ExecuteContext(ctx)
	if c.logCloser != nil {
		c.logCloser.Close()
	}
	if err != nil {
		fmt.Fprintf(c.errOut, "%s\n", err)
		if errors.IsUserCancelled(err) {
			return 3
		}
		return 1
	}
	return 0
}

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "dupcat",
		Short: "Content-addressed file catalog and duplicate finder",
		Long: `dupcat catalogs directory trees by file content, keeps those catalogs current
without re-reading unchanged files and finds duplicate content between directories
and across backup volumes. Nothing is ever deleted without typed confirmation.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.configFile, flags.Config, "", "config file (default is $HOME/.dupcat.yaml or ./.dupcat.yaml)")
	pf.BoolP(flags.Verbose, "v", false, "output more details on what is done")
	pf.BoolP(flags.Quiet, "q", false, "output only requested information")
	pf.String(flags.LogLevel, "", "log level (trace, debug, info, warn, error)")
	pf.String(flags.LogFormat, "auto", "log format (json, console, auto)")
	pf.String(flags.LogOutput, "stderr", "log destination (stderr, stdout, discard or a file path)")
	pf.String(flags.CatalogFile, dupcat.DefaultCatalogFileName, "name of the catalog file inside a cataloged directory")
	pf.Int(flags.ProgressEvery, 100, "files between progress log messages")
	pf.Bool(flags.VerifyBeforeDelete, false, "re-read duplicates right before deleting them")

	for key, flag := range map[string]string{
		flags.KeyVerbose:            flags.Verbose,
		flags.KeyQuiet:              flags.Quiet,
		flags.KeyLogLevel:           flags.LogLevel,
		flags.KeyLogFormat:          flags.LogFormat,
		flags.KeyLogOutput:          flags.LogOutput,
		flags.KeyCatalogFile:        flags.CatalogFile,
		flags.KeyProgressEvery:      flags.ProgressEvery,
		flags.KeyVerifyBeforeDelete: flags.VerifyBeforeDelete,
	} {
		if err := c.config.BindPFlag(key, pf.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("binding flag %s failed: %v", flag, err))
		}
	}

	root.AddCommand(
		c.buildCommand(),
		c.updateCommand(),
		c.showCommand(),
		c.lookupCommand(),
		c.dupsCommand(),
		c.volumeCommand(),
		c.versionCommand(),
	)
	return root
}

// setup reads the configuration and creates printer, logger and engine.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	if err := c.loadConfig(); err != nil {
		return err
	}
	verbose, quiet := c.config.GetBool(flags.KeyVerbose), c.config.GetBool(flags.KeyQuiet)
	if verbose && quiet {
		return fmt.Errorf("quiet mode and verbose mode are mutually exclusive")
	}

	c.wd = output.WorkingDirectory()
	c.print = output.NewPrinter(output.ClassesFor(verbose, quiet), isTerminal(c.out), c.out, c.errOut)

	level := c.config.GetString(flags.KeyLogLevel)
	if level == "" {
		level = "warn"
		if verbose {
			level = "info"
		}
	}
	c.log, c.logCloser = logging.NewLoggerFromConfig(&logging.Config{
		Level:      level,
		Format:     c.config.GetString(flags.KeyLogFormat),
		Output:     c.config.GetString(flags.KeyLogOutput),
		NoColor:    os.Getenv("NO_COLOR") != "",
		MaxSizeMB:  10,
		MaxBackups: 3,
	})
	c.log = c.log.With().Str("command", cmd.Name()).Logger()

	c.engine = dupcat.New(dupcat.Config{
		Log:                c.log,
		CatalogFileName:    c.config.GetString(flags.KeyCatalogFile),
		ProgressEvery:      c.config.GetInt(flags.KeyProgressEvery),
		VerifyBeforeDelete: c.config.GetBool(flags.KeyVerifyBeforeDelete),
		FS:                 c.files,
	})
	return nil
}

// loadConfig layers the config file and DUPCAT_* variables below explicitly given flags.
func (c *cli) loadConfig() error {
	c.config.SetEnvPrefix("DUPCAT")
	c.config.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	c.config.AutomaticEnv()

	if c.configFile != "" {
		c.config.SetConfigFile(c.configFile)
		if err := c.config.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s failed: %w", c.configFile, err)
		}
		return nil
	}
	if home, err := os.UserHomeDir(); err == nil {
		c.config.AddConfigPath(home)
	}
	c.config.AddConfigPath(".")
	c.config.SetConfigType("yaml")
	c.config.SetConfigName(".dupcat")
	if err := c.config.ReadInConfig(); err != nil {
		if _, missing := err.(viper.ConfigFileNotFoundError); !missing {
			return fmt.Errorf("reading config failed: %w", err)
		}
	}
	return nil
}

// display shortens absolute paths below the working directory.
func (c *cli) display(path string) string {
	if c.wd == "" {
		return path
	}
	return output.PleasantPath(path, c.wd, false)
}

func isTerminal(w io.Writer) bool {
	f, isFile := w.(*os.File)
	return isFile && term.IsTerminal(int(f.Fd()))
}
