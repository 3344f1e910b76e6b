package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/vanderheijden86/moonview/internal/store"
	"github.com/vanderheijden86/moonview/pkg/broadcast"
	"github.com/vanderheijden86/moonview/pkg/config"
	"github.com/vanderheijden86/moonview/pkg/debug"
	"github.com/vanderheijden86/moonview/pkg/loader"
	"github.com/vanderheijden86/moonview/pkg/ui"
	"github.com/vanderheijden86/moonview/pkg/version"
	"github.com/vanderheijden86/moonview/pkg/watcher"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (default: XDG config dir)")
	dbPath := flag.String("db", "", "Path to the favorites database (default: XDG data dir)")
	noWatch := flag.Bool("no-watch", false, "Disable watching the database for external changes")
	versionFlag := flag.Bool("version", false, "Show version")
	help := flag.Bool("help", false, "Show help")
	flag.Parse()

	if *help {
		fmt.Println("Usage: moonview [options]")
		fmt.Println("\nA terminal browser for your streaming catalog: play records,")
		fmt.Println("favorites and search results as interactive cards.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("moonview %s\n", version.Version)
		os.Exit(0)
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "moonview requires an interactive terminal")
		os.Exit(1)
	}

	var cfg config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFrom(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	path := cfg.DBPath
	if *dbPath != "" {
		path = *dbPath
	}
	if path == "" {
		path = config.DefaultDBPath()
	}
	if path == "" {
		fmt.Fprintln(os.Stderr, "Cannot determine database location; pass --db")
		os.Exit(1)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Cannot create data directory: %v\n", err)
		os.Exit(1)
	}

	st, err := store.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	snap, err := loader.Load(ctx, st)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading catalog: %v\n", err)
		os.Exit(1)
	}
	cards := loader.Cards(snap)
	debug.Log("loaded %d cards from %s", len(cards), path)

	hub := broadcast.NewHub()
	defer hub.Close()

	var w *watcher.Watcher
	watchEnabled := cfg.Watch.Enabled == nil || *cfg.Watch.Enabled
	if watchEnabled && !*noWatch {
		w, err = watcher.New(path,
			watcher.WithDebounce(time.Duration(cfg.Watch.DebounceMS)*time.Millisecond),
			watcher.WithPollInterval(time.Duration(cfg.Watch.PollIntervalMS)*time.Millisecond),
			watcher.WithOnError(func(err error) {
				debug.Log("watcher error: %v", err)
			}))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating watcher: %v\n", err)
			os.Exit(1)
		}
	}

	m := ui.NewModel(ui.ModelConfig{
		Cards:          cards,
		Service:        st,
		Store:          st,
		Hub:            hub,
		Watcher:        w,
		PressThreshold: time.Duration(cfg.UI.PressThresholdMS) * time.Millisecond,
		MoveTolerance:  cfg.UI.MoveTolerance,
	})

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.UI.Mouse == nil || *cfg.UI.Mouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	p := tea.NewProgram(m, opts...)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running UI: %v\n", err)
		os.Exit(1)
	}
}
