package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ha1tch/fsm-designer/pkg/config"
	"github.com/ha1tch/fsm-designer/pkg/diagram"
	"github.com/ha1tch/fsm-designer/pkg/store"
)

// app holds state shared by every command.
type app struct {
	stdout, stderr io.Writer

	configPath string
	verbose    bool

	cfg    *config.Config
	logger *log.Logger
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr, cfg: config.Default()}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "fsmd",
		Short:        "fsmd works with FSM designer diagrams",
		Long:         `fsmd exports FSM designer diagrams to PNG, SVG, LaTeX and DOT, inspects them, manages the autosave slot and serves the HTTP API.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg

			level, err := log.ParseLevel(cfg.Log.Level)
			if err != nil {
				level = log.InfoLevel
			}
			if a.verbose {
				level = log.DebugLevel
			}
			a.logger = newLogger(a.stderr, level)
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(withLogger(ctx, a.logger))
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default "+config.DefaultPath()+")")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(a.exportCommand())
	root.AddCommand(a.infoCommand())
	root.AddCommand(a.serveCommand())
	root.AddCommand(a.vhdlCommand())
	root.AddCommand(a.autosaveCommand())
	root.AddCommand(a.configCommand())
	return root
}

// readBackup reads a snapshot from path, or stdin for "-".
func (a *app) readBackup(path string) (*diagram.Backup, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	b, err := diagram.ParseBackup(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// openStore opens the configured autosave store.
func (a *app) openStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, a.cfg.Store, loggerFromContext(ctx))
}

// loadInput reads the snapshot named by path, or the autosave slot when
// path is empty.
func (a *app) loadInput(ctx context.Context, path string) (*diagram.Backup, error) {
	if path != "" {
		return a.readBackup(path)
	}
	st, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	data, err := st.Get(ctx, a.cfg.Store.Key)
	if err != nil {
		return nil, fmt.Errorf("autosave slot %q: %w", a.cfg.Store.Key, err)
	}
	return diagram.ParseBackup(data)
}

// writeOutput writes data to path, or stdout for "" and "-".
func (a *app) writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := a.stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func parseFormats(s string) ([]diagram.Format, error) {
	var out []diagram.Format
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		f, err := diagram.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}
