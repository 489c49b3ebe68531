package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	dupedetector "github.com/mattkeenan/dupedetector/pkg"
)

const version = "0.1.0"

// flagValues holds the raw command line flags before they are layered onto
// the settings from the config file and the environment
type flagValues struct {
	chunkSize  string
	sampleSize string
	out        string
	hash       string
	symlinks   string
	ignore     []string
	configFile string
	verbose    int
	debug      string
	stats      bool
	overrides  []string
}

func main() {
	ctx, cancel := setupSignalHandler()
	defer cancel()

	rootCmd := newRootCmd(os.Stderr)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "dupedetector: %v\n", err)
		cancel()
		os.Exit(1)
	}
}

func newRootCmd(stderr io.Writer) *cobra.Command {
	flags := &flagValues{}

	cmd := &cobra.Command{
		Use:   "dupedetector [flags] PATH...",
		Short: "Detect duplicate files, hopefully quickly",
		Long: `dupedetector finds groups of files with identical content.

Files are grouped by size, then compared by hashing samples from the start,
middle and end of each file, and only the remaining candidates are hashed in
full. Directories are scanned recursively. The result is a JSON array of
arrays of paths.`,
		Version:       version,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := resolveSettings(cmd, flags, args)
			if err != nil {
				return err
			}

			dupedetector.SetVerboseLevel(settings.VerboseLevel)
			dupedetector.SetDebugFlags(settings.Debug)

			var notifier *dupedetector.Notifier
			if dupedetector.GetVerboseLevel() > 0 {
				notifier = dupedetector.NewNotifier(stderr)
			}

			result, err := dupedetector.Run(cmd.Context(), settings, notifier)
			if err != nil {
				return err
			}

			if settings.Stats {
				return dupedetector.WriteStats(stderr, result.Stats)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.chunkSize, "chunksize", "c", fmt.Sprint(dupedetector.DefaultChunkSize),
		"How many bytes to load into RAM for hashing at once. Files smaller than twice this are hashed in their entirety")
	cmd.Flags().StringVarP(&flags.sampleSize, "samplesize", "s", fmt.Sprint(dupedetector.DefaultSampleSize),
		"How many bytes of the files to sample from the beginning, middle, and end")
	cmd.Flags().StringVarP(&flags.out, "out", "o", dupedetector.DefaultOutput,
		"A file path to write the result to, or '-' for stdout")
	cmd.Flags().StringVar(&flags.hash, "hash", dupedetector.DefaultHashName, "Digest algorithm: md5, sha1, sha256, sha512")
	cmd.Flags().StringVar(&flags.symlinks, "symlinks", dupedetector.SymlinkAll, "Symlink mode: all, contained, none")
	cmd.Flags().StringArrayVar(&flags.ignore, "ignore", nil, "Regular expression of paths to skip, relative to each scanned directory (repeatable)")
	cmd.Flags().StringVar(&flags.configFile, "config", "", "config file (default is "+dupedetector.DefaultConfigPath()+")")
	cmd.Flags().CountVarP(&flags.verbose, "verbose", "v", "verbose output (repeat for more detail)")
	cmd.Flags().StringVar(&flags.debug, "debug", "", "Comma-separated debug flags: scan, sample")
	cmd.Flags().BoolVar(&flags.stats, "stats", false, "Print per-stage statistics to stderr")
	cmd.Flags().StringArrayVar(&flags.overrides, "set", nil, "Override a setting as key:value, e.g. chunk_size:4MB (repeatable)")

	return cmd
}

// resolveSettings layers defaults, the config file, the environment and the
// flags that were set explicitly
func resolveSettings(cmd *cobra.Command, flags *flagValues, args []string) (*dupedetector.Settings, error) {
	settings := dupedetector.DefaultSettings()

	configPath := flags.configFile
	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		configPath = dupedetector.DefaultConfigPath()
	}

	cfg, err := dupedetector.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Apply(settings); err != nil {
		return nil, err
	}

	if err := dupedetector.ApplyEnvironment(settings); err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("chunksize") {
		if settings.ChunkSize, err = dupedetector.ParseSize(flags.chunkSize); err != nil {
			return nil, &dupedetector.ConfigError{Key: "--chunksize", Err: err}
		}
	}
	if changed("samplesize") {
		if settings.SampleSize, err = dupedetector.ParseSize(flags.sampleSize); err != nil {
			return nil, &dupedetector.ConfigError{Key: "--samplesize", Err: err}
		}
	}
	if changed("out") {
		settings.Output = flags.out
	}
	if changed("hash") {
		settings.HashName = flags.hash
	}
	if changed("symlinks") {
		settings.SymlinkMode = flags.symlinks
	}
	if changed("verbose") {
		settings.VerboseLevel = min(flags.verbose, 3)
	}
	if changed("debug") {
		settings.Debug = flags.debug
	}
	if changed("stats") {
		settings.Stats = flags.stats
	}
	settings.Ignore = append(settings.Ignore, flags.ignore...)

	if err := dupedetector.ApplyOverrides(settings, flags.overrides); err != nil {
		return nil, err
	}

	settings.Paths = args
	return settings, nil
}
