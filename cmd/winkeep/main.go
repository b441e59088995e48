package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"golang.org/x/term"

	"github.com/winkeep/winkeep/internal/config"
	"github.com/winkeep/winkeep/internal/daemon"
	"github.com/winkeep/winkeep/internal/ipc"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "state":
		os.Exit(runState(os.Args[2:]))
	case "snap":
		os.Exit(runSnap(os.Args[2:]))
	case "move":
		os.Exit(runMove(os.Args[2:]))
	case "displays":
		os.Exit(runDisplays(os.Args[2:]))
	case "flush":
		os.Exit(runFlush(os.Args[2:]))
	case "reload":
		os.Exit(runReload(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: winkeep <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the winkeep daemon (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status and statistics")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  state get           Show a window's persisted state")
	fmt.Fprintln(w, "  state set           Update fields of a window's state")
	fmt.Fprintln(w, "  state reset         Reset a window to configured defaults")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  snap                Snap a window to a work-area edge")
	fmt.Fprintln(w, "  move                Move a window to another display")
	fmt.Fprintln(w, "  displays            List attached displays")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  flush               Force an immediate state write")
	fmt.Fprintln(w, "  reload              Reload the daemon configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print effective configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'winkeep <command> --help' for command-specific options.")
}

func runDaemon(args []string) int {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: winkeep daemon [--config PATH] [--debug]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Run the window state daemon in the foreground.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	configPath := fs.String("config", "", "Config file path (default: ~/.config/winkeep/config.yaml)")
	debug := fs.Bool("debug", false, "Enable debug logging")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "daemon takes no arguments")
		fs.Usage()
		return 2
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := daemon.Run(ctx, daemon.Options{ConfigPath: *configPath, Debug: *debug}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: winkeep status")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	stats, err := client.GetStats()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("daemon_running: %v\n", stats.DaemonRunning)
	fmt.Printf("records:        %d\n", stats.Records)
	fmt.Printf("displays:       %d\n", stats.Displays)
	fmt.Printf("uptime_seconds: %d\n", stats.UptimeSeconds)
	for window, ts := range stats.LastSaved {
		if ts.IsZero() {
			fmt.Printf("last_saved[%s]: never\n", window)
			continue
		}
		fmt.Printf("last_saved[%s]: %s\n", window, ts.Format("2006-01-02 15:04:05"))
	}
	return 0
}

func printStateUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  winkeep state get <window>")
	fmt.Fprintln(w, "  winkeep state set [flags] <window>")
	fmt.Fprintln(w, "  winkeep state reset <window>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Windows: main, floating")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'winkeep state <command> --help' for command-specific options.")
}

func runState(args []string) int {
	if len(args) == 0 {
		printStateUsage(os.Stderr)
		return 2
	}
	if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printStateUsage(os.Stdout)
		return 0
	}

	client := ipc.NewClient()

	switch args[0] {
	case "get":
		fs := flag.NewFlagSet("get", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		fs.Usage = func() {
			fmt.Fprintln(os.Stderr, "Usage: winkeep state get <window>")
		}
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(os.Stderr, "state get requires <window>")
			fs.Usage()
			return 2
		}

		st, err := client.GetState(fs.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return printState(st)

	case "set":
		fs := flag.NewFlagSet("set", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		fs.Usage = func() {
			fmt.Fprintln(os.Stderr, "Usage: winkeep state set [flags] <window>")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Only the provided flags change; the result is validated against")
			fmt.Fprintln(os.Stderr, "configured size bounds and the live display topology.")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Flags:")
			fs.PrintDefaults()
		}
		width := fs.Int("width", -1, "Window width in pixels")
		height := fs.Int("height", -1, "Window height in pixels")
		x := fs.String("x", "", "Window x position")
		y := fs.String("y", "", "Window y position")
		maximized := fs.String("maximized", "", "Maximize the window (true/false)")
		minimized := fs.String("minimized", "", "Minimize the window (true/false)")
		fullscreen := fs.String("fullscreen", "", "Fullscreen the window (true/false)")
		visible := fs.String("visible", "", "Show or hide the window (true/false)")
		onTop := fs.String("always-on-top", "", "Keep the window above others (true/false)")
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(os.Stderr, "state set requires <window>")
			fs.Usage()
			return 2
		}

		var patch ipc.StatePatch
		if *width >= 0 {
			patch.Width = width
		}
		if *height >= 0 {
			patch.Height = height
		}
		var parseErr error
		patch.X, parseErr = parseIntFlag(*x, parseErr)
		patch.Y, parseErr = parseIntFlag(*y, parseErr)
		patch.Maximized, parseErr = parseBoolFlag(*maximized, parseErr)
		patch.Minimized, parseErr = parseBoolFlag(*minimized, parseErr)
		patch.FullScreen, parseErr = parseBoolFlag(*fullscreen, parseErr)
		patch.Visible, parseErr = parseBoolFlag(*visible, parseErr)
		patch.AlwaysOnTop, parseErr = parseBoolFlag(*onTop, parseErr)
		if parseErr != nil {
			fmt.Fprintln(os.Stderr, parseErr)
			return 2
		}

		st, err := client.SetState(fs.Arg(0), patch)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return printState(st)

	case "reset":
		fs := flag.NewFlagSet("reset", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		fs.Usage = func() {
			fmt.Fprintln(os.Stderr, "Usage: winkeep state reset <window>")
		}
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(os.Stderr, "state reset requires <window>")
			fs.Usage()
			return 2
		}

		st, err := client.ResetState(fs.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return printState(st)

	default:
		fmt.Fprintf(os.Stderr, "Unknown state command: %s\n\n", args[0])
		printStateUsage(os.Stderr)
		return 2
	}
}

func runSnap(args []string) int {
	fs := flag.NewFlagSet("snap", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: winkeep snap <window> <edge>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Edges: left, right, top, bottom, top-left, top-right,")
		fmt.Fprintln(os.Stderr, "       bottom-left, bottom-right, maximize")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "snap requires <window> <edge>")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	st, err := client.Snap(fs.Arg(0), fs.Arg(1))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return printState(st)
}

func runMove(args []string) int {
	fs := flag.NewFlagSet("move", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: winkeep move <window> <display-id>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Center a window on a display. Display ids come from 'winkeep displays'.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "move requires <window> <display-id>")
		fs.Usage()
		return 2
	}
	displayID, err := strconv.Atoi(fs.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid display id: %s\n", fs.Arg(1))
		return 2
	}

	client := ipc.NewClient()
	st, err := client.MoveToDisplay(fs.Arg(0), displayID)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return printState(st)
}

func runDisplays(args []string) int {
	fs := flag.NewFlagSet("displays", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: winkeep displays [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	jsonOut := fs.Bool("json", false, "Output as JSON")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "displays takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	data, err := client.GetDisplays()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	// Piped output gets JSON so scripts do not parse the table.
	if *jsonOut || !term.IsTerminal(int(os.Stdout.Fd())) {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(data); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	for _, d := range data.Displays {
		marker := " "
		if d.Primary {
			marker = "*"
		}
		fmt.Printf("%s %d  %-12s %dx%d+%d+%d  work: %dx%d+%d+%d\n",
			marker, d.ID, d.Name,
			d.Width, d.Height, d.X, d.Y,
			d.WorkW, d.WorkH, d.WorkX, d.WorkY)
	}
	return 0
}

func runFlush(args []string) int {
	if len(args) > 0 {
		fmt.Fprintln(os.Stderr, "Usage: winkeep flush")
		return 2
	}
	if err := ipc.NewClient().Flush(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runReload(args []string) int {
	if len(args) > 0 {
		fmt.Fprintln(os.Stderr, "Usage: winkeep reload")
		return 2
	}
	if err := ipc.NewClient().Reload(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("Configuration reloaded")
	return 0
}

func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  winkeep config validate [--file PATH]")
	fmt.Fprintln(w, "  winkeep config print [--file PATH]")
}

func runConfig(args []string) int {
	if len(args) == 0 {
		printConfigUsage(os.Stderr)
		return 2
	}
	if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printConfigUsage(os.Stdout)
		return 0
	}

	switch args[0] {
	case "validate", "print":
		fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		fs.Usage = func() {
			fmt.Fprintf(os.Stderr, "Usage: winkeep config %s [--file PATH]\n", args[0])
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Flags:")
			fs.PrintDefaults()
		}
		file := fs.String("file", "", "Config file path (default: ~/.config/winkeep/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}
		if fs.NArg() != 0 {
			fmt.Fprintf(os.Stderr, "config %s takes no arguments\n", args[0])
			fs.Usage()
			return 2
		}

		var cfg *config.Config
		var err error
		if *file != "" {
			cfg, err = config.LoadFromPath(*file)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}

		if args[0] == "validate" {
			fmt.Println("Configuration is valid")
			return 0
		}
		if err := cfg.Print(os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config command: %s\n\n", args[0])
		printConfigUsage(os.Stderr)
		return 2
	}
}

func printState(st *ipc.WindowStateData) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(st); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func parseIntFlag(s string, prev error) (*int, error) {
	if prev != nil || s == "" {
		return nil, prev
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("invalid integer value: %q", s)
	}
	return &v, nil
}

func parseBoolFlag(s string, prev error) (*bool, error) {
	if prev != nil || s == "" {
		return nil, prev
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return nil, fmt.Errorf("invalid boolean value: %q", s)
	}
	return &v, nil
}
