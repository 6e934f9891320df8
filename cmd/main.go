package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"bootprobe/internal/config"
	"bootprobe/internal/detect"
	"bootprobe/internal/probe"
	"bootprobe/internal/structures"
	"bootprobe/internal/sysfs"
	"bootprobe/internal/writer"
)

var (
	// flags
	dryRun     bool
	yes        bool
	configPath string
	outputPath string
)

const defaultConfigPath = "/etc/bootprobe/config.yaml"

// errUsage marks command-line mistakes, which exit with a distinct code.
var errUsage = errors.New("invalid usage")

// rootCmd runs the whole pipeline: detect firmware mode, locate the boot
// device, resolve a stable path, confirm and write.
var rootCmd = &cobra.Command{
	Use:   "bootprobe",
	Short: "Bootprobe - detect the boot device for the system configuration",
	Long: `Bootprobe inspects the running system to decide between UEFI and BIOS
boot and selects a stable device identifier for the bootloader install
target. The decision is written as a single line ("UEFI:<path>" or a
bare "<path>") to a configuration file read by the system configuration
evaluator.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return fmt.Errorf("%w: unknown argument %q", errUsage, args[0])
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		required := configPath != ""
		path := configPath
		if path == "" {
			path = defaultConfigPath
		}
		cfg, err := config.LoadDetectConfig(path, required)
		if err != nil {
			return err
		}
		if outputPath != "" {
			cfg.Output = outputPath
		}

		opts := runOptions{dryRun: dryRun, yes: yes, confirm: writer.ConfirmStdin}
		return run(sysfs.New(), probe.New(), cfg, opts, os.Stdout, os.Stderr)
	},
}

// runOptions carries the flag values into the pipeline, with the
// confirmation prompt injectable for tests.
type runOptions struct {
	dryRun  bool
	yes     bool
	confirm func(line string) error
}

// run performs detection and, unless dry-run, confirms and writes the
// decision. The dry-run branch prints the exact line a real run would
// write and touches nothing.
func run(h *sysfs.Host, p *probe.Prober, cfg structures.DetectConfig, opts runOptions, out, errOut io.Writer) error {
	tgt, warnings, err := detect.Run(h, p, cfg)
	for _, w := range warnings {
		fmt.Fprintf(errOut, "Warning: %s\n", w)
	}
	if err != nil {
		if errors.Is(err, detect.ErrNoESP) {
			return fmt.Errorf("%w; create %s manually with a line like UEFI:/dev/disk/by-uuid/<uuid>", err, cfg.Output)
		}
		return err
	}

	line := tgt.Line()
	fmt.Fprintf(out, "Detected %s boot, target device: %s\n", tgt.Mode, tgt.Path)

	if opts.dryRun {
		fmt.Fprintln(out, line)
		return nil
	}

	if os.Geteuid() != 0 {
		fmt.Fprintf(errOut, "Warning: not running as root, writing %s will likely fail\n", cfg.Output)
	}
	if !opts.yes {
		if err := opts.confirm(line); err != nil {
			return err
		}
	}
	if err := writer.Write(cfg.Output, line); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %s\n", cfg.Output)
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of Bootprobe",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Bootprobe v0.1.0")
	},
}

func init() {
	rootCmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Detect and print the boot device without writing anything")
	rootCmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to the configuration file (defaults to "+defaultConfigPath+")")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Override the output file path")

	rootCmd.AddCommand(versionCmd)

	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errUsage, err)
	})
}

// exitCode maps failures onto the documented exit codes: 2 for usage
// errors and a missing ESP, 1 for everything else including a declined
// confirmation.
func exitCode(err error) int {
	switch {
	case errors.Is(err, errUsage), errors.Is(err, detect.ErrNoESP):
		return 2
	}
	return 1
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}
