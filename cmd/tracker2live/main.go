// Package main is the entry point for the tracker2live CLI
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/james-see/tracker2live/pkg/api"
	"github.com/james-see/tracker2live/pkg/converter"
	"github.com/james-see/tracker2live/pkg/tui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	outputDir     string
	templateFile  string
	panAutomation bool
	envelope      bool
	sampleOffset  bool
	mergeTracks   bool
	midiExport    bool
	noRecursive   bool
	serverPort    int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tracker2live",
	Short: "Convert tracker modules to Ableton Live projects",
	Long: `tracker2live converts Amiga ProTracker (.mod) and FastTracker 2 (.xm)
modules into Ableton Live projects (.als): one MIDI track per channel and
instrument, rendered samples, pan and sample-start automation, and tempo
taken from the module.

Examples:
  tracker2live convert song.xm
  tracker2live convert song.mod --envelope --pan-automation
  tracker2live convert-batch ./modules --sample-offset
  tracker2live tui
  tracker2live serve --port 8080`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
}

var convertCmd = &cobra.Command{
	Use:   "convert <file> [template.als]",
	Short: "Convert one module file to a Live project",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runConvert,
}

var convertBatchCmd = &cobra.Command{
	Use:   "convert-batch <dir>",
	Short: "Convert every module file under a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runConvertBatch,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	RunE:  runTUI,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

func init() {
	for _, cmd := range []*cobra.Command{convertCmd, convertBatchCmd} {
		cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default: <source-dir>/converted)")
		cmd.Flags().StringVarP(&templateFile, "template", "t", "", "Ableton template .als to populate")
		cmd.Flags().BoolVar(&panAutomation, "pan-automation", false, "Draw pan automation from 8xx commands")
		cmd.Flags().BoolVar(&envelope, "envelope", false, "Map FT2 volume envelopes onto device ADSR")
		cmd.Flags().BoolVar(&sampleOffset, "sample-offset", false, "Use Simpler with sample-start automation for 9xx commands")
	}
	convertCmd.Flags().BoolVar(&mergeTracks, "merge-tracks", false, "One merged track per instrument instead of per channel")
	convertCmd.Flags().BoolVar(&midiExport, "midi-export", false, "Also write one Standard MIDI File per track")
	convertBatchCmd.Flags().BoolVar(&noRecursive, "no-recursive", false, "Do not descend into subdirectories")

	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "Server port")

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(convertBatchCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
}

// buildOptions merges config-file defaults under the flags the user
// actually set.
func buildOptions(cmd *cobra.Command, args []string) (converter.Options, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return converter.Options{}, err
	}
	opts, err := converter.LoadConfig(cwd)
	if err != nil {
		return converter.Options{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("template") {
		opts.Template = templateFile
	}
	if flags.Changed("pan-automation") {
		opts.PanAutomation = panAutomation
	}
	if flags.Changed("envelope") {
		opts.Envelope = envelope
	}
	if flags.Changed("sample-offset") {
		opts.SampleOffset = sampleOffset
	}
	if flags.Changed("merge-tracks") {
		opts.MergeTracks = mergeTracks
	}
	if flags.Changed("midi-export") {
		opts.MIDIExport = midiExport
	}
	opts.OutputDir = outputDir
	opts.NoRecursive = noRecursive
	if len(args) > 1 {
		opts.Template = args[1]
	}
	return opts, nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	opts, err := buildOptions(cmd, args)
	if err != nil {
		return err
	}

	fmt.Printf("Converting %s\n", args[0])
	result, err := converter.Convert(args[0], opts)
	if err != nil {
		return err
	}
	fmt.Printf("Project: %s (%d tracks, %d notes, %.2f BPM)\n",
		result.Project, result.Tracks, result.Notes, result.BPM)
	return nil
}

func runConvertBatch(cmd *cobra.Command, args []string) error {
	opts, err := buildOptions(cmd, args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := converter.ConvertBatch(ctx, args[0], opts)
	if err != nil {
		return err
	}
	if result.Failed > 0 {
		return fmt.Errorf("%d file(s) failed", result.Failed)
	}
	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	return tui.Run()
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Printf("Starting tracker2live API server on port %d...\n", serverPort)
	fmt.Printf("Swagger docs available at http://localhost:%d/swagger/index.html\n", serverPort)
	return api.StartServer(serverPort)
}
