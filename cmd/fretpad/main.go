// Package main is the entry point for the fretpad CLI
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/james-see/fretpad/pkg/api"
	"github.com/james-see/fretpad/pkg/config"
	"github.com/james-see/fretpad/pkg/midiout/port"
	"github.com/james-see/fretpad/pkg/tui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configPath string
	debug      bool
	logFile    string
	midiOut    string
	recordPath string
	frets      int
	serverPort int
	force      bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fretpad",
	Short: "Play a fretboard of note pads from the terminal or over HTTP",
	Long: `fretpad lays out a board of note pads, one row per string and one
column per fret, and turns presses and slides into note-on/note-off
events. Events go to a MIDI output port, a .mid recording, the terminal
event log and the HTTP event stream.

Examples:
  fretpad play
  fretpad play --midi-out fluid --record take.mid
  fretpad serve --port 8080
  fretpad ports
  fretpad config init`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play the board in the terminal with the mouse",
	Args:  cobra.NoArgs,
	RunE:  runPlay,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI output ports",
	Args:  cobra.NoArgs,
	RunE:  runPorts,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "Configuration file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file")

	addSessionFlags(playCmd)
	addSessionFlags(serveCmd)
	addSessionFlags(configShowCmd)

	// Serve command
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "Server port")
	configShowCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "Server port")

	// Config init
	configInitCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(playCmd, serveCmd, portsCmd, configCmd)
}

func addSessionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&midiOut, "midi-out", "m", "", "MIDI output port (name substring)")
	cmd.Flags().StringVarP(&recordPath, "record", "r", "", "Record to this .mid file")
	cmd.Flags().IntVar(&frets, "frets", 0, "Number of frets")
}

// initLogger builds the slog logger. Without a log file it writes to w,
// which is io.Discard while the terminal UI owns the screen.
func initLogger(w io.Writer) (*slog.Logger, func(), error) {
	closeFn := func() {}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w = f
		closeFn = func() { _ = f.Close() }
	}
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug, // include file:line in debug mode
	})
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger, closeFn, nil
}

// loadConfig reads the configuration file and applies command line flags
// over it; flags win.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return config.Config{}, err
	}
	flags := cmd.Flags()
	if flags.Changed("midi-out") {
		cfg.MIDI.Out = midiOut
	}
	if flags.Changed("record") {
		cfg.MIDI.Record = recordPath
	}
	if flags.Changed("frets") {
		cfg.Board.Frets = frets
	}
	if flags.Changed("port") {
		cfg.Server.Port = serverPort
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closeLog, err := initLogger(io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()

	s, err := openSession(cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	return tui.Run(s.board, logger)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closeLog, err := initLogger(os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s, err := openSession(cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Starting fretpad API server on port %d...\n", cfg.Server.Port)
	fmt.Printf("Swagger docs available at http://localhost:%d/swagger/index.html\n", cfg.Server.Port)

	srv := api.New(s.board, logger)
	return srv.Run(ctx, cfg.Server.Port)
}

func runPorts(cmd *cobra.Command, args []string) error {
	defer port.CloseDriver()
	names := port.Outputs()
	if len(names) == 0 {
		fmt.Println("No MIDI output ports found")
		return nil
	}
	for i, name := range names {
		fmt.Printf("%2d  %s\n", i, name)
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	exists, err := config.Exists(configPath)
	if err != nil {
		return err
	}
	if exists && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
	}
	if err := config.Write(configPath, config.Default()); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", configPath)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if ok, _ := config.Exists(configPath); !ok {
		fmt.Fprintf(os.Stderr, "# %s not found, showing defaults\n", configPath)
	}
	return config.Encode(os.Stdout, cfg)
}
