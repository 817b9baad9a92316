package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lowji194/bumx/config"
	"github.com/lowji194/bumx/devices"
	"github.com/lowji194/bumx/farm"
	"github.com/lowji194/bumx/reporter"
	"github.com/lowji194/bumx/resources"
	"github.com/lowji194/bumx/server"
	"github.com/lowji194/bumx/utils"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const keyCtrlC = 3

var errNoDevices = errors.New("no online devices")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Prepare every online device and run the job loop on all of them",
	Long: `Downloads missing artifacts, lists online devices and waits for confirmation,
then prepares atx-agent on each device and runs the job loop until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runFarm,
}

func init() {
	rootCmd.AddCommand(runCmd)
	addRunFlags(runCmd)
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "start without waiting for a key press")
	cmd.Flags().StringVar(&listenAddr, "listen", "", "serve run status over JSON-RPC and websocket on this address (overrides config)")
	cmd.Flags().BoolVar(&enableCORS, "cors", false, "enable CORS support for the status server")
	cmd.Flags().DurationVar(&findTimeout, "timeout", 0, "element lookup timeout (overrides config)")
	cmd.Flags().IntVar(&portBase, "port-base", 0, "first local forward port (overrides config)")
}

func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("listen") {
		cfg.Listen = listenAddr
	}
	if cmd.Flags().Changed("timeout") && findTimeout > 0 {
		cfg.Agent.FindTimeout = findTimeout
	}
	if cmd.Flags().Changed("port-base") && portBase > 0 {
		cfg.Agent.PortBase = portBase
	}
}

func runFarm(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyRunFlags(cmd, cfg)

	// the console owns the terminal from here on
	if cfg.LogFile != "" {
		closer, err := utils.OpenLogFile(cfg.LogFile)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer closer.Close()
	}

	out := os.Stdout
	fmt.Fprintln(out, "Starting atx-agent automation...")

	artifacts := resources.DefaultArtifacts(cfg.Resources)
	for _, result := range resources.EnsureResources(ctx, cfg.Resources.Dir, artifacts) {
		fmt.Fprintln(out, describeResource(result))
	}

	bridge := newBridge()
	online, headerLines, err := chooseDevices(ctx, out, newKeyReader(os.Stdin), bridge, assumeYes)
	if err != nil {
		return err
	}

	console := reporter.New(out, headerLines+2)
	if len(online) == 0 {
		console.Report("", "[ERROR] no devices, exiting.")
		return errNoDevices
	}

	if missing := resources.Missing(artifacts); len(missing) > 0 {
		utils.Warn("missing resources: %s, devices without them will fail to prepare", strings.Join(missing, ", "))
	}

	serials := make([]string, 0, len(online))
	for _, d := range online {
		serials = append(serials, d.Serial)
	}
	console.Reserve(serials...)

	bootstrapper := devices.NewBootstrapper(bridge, console, cfg)
	f := farm.New(bridge, bootstrapper, console, cfg, shutdownHook)

	if cfg.Listen != "" {
		status := server.New(f, console, enableCORS)
		go func() {
			if err := status.Start(ctx, cfg.Listen); err != nil {
				utils.Error("status server stopped: %v", err)
			}
		}()
	}

	f.Run(ctx, online)
	return nil
}

func describeResource(result resources.Result) string {
	switch {
	case result.Error != "":
		return fmt.Sprintf("[ERROR] failed to download %s: %s", result.Label, result.Error)
	case result.Downloaded:
		return fmt.Sprintf("[OK] downloaded %s", result.Label)
	default:
		return fmt.Sprintf("[CHECK] found %s", result.Label)
	}
}

// keyReader returns one key press.
type keyReader interface {
	ReadKey() (byte, error)
}

func newKeyReader(in *os.File) keyReader {
	if term.IsTerminal(int(in.Fd())) {
		return &rawKeyReader{in: in}
	}
	return &lineKeyReader{r: bufio.NewReader(in)}
}

// rawKeyReader reads a single byte with the terminal in raw mode.
type rawKeyReader struct {
	in *os.File
}

func (k *rawKeyReader) ReadKey() (byte, error) {
	fd := int(k.in.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return 0, err
	}
	defer func() { _ = term.Restore(fd, state) }()

	var buf [1]byte
	if _, err := k.in.Read(buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// lineKeyReader treats each input line as a key press; an empty line is Enter.
type lineKeyReader struct {
	r *bufio.Reader
}

func (k *lineKeyReader) ReadKey() (byte, error) {
	line, err := k.r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return 0, err
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return '\r', nil
	}
	return line[0], nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// chooseDevices lists online devices until the user presses Enter. Any other
// key lists them again. It returns the devices and how many lines it printed
// since clearing the screen.
func chooseDevices(ctx context.Context, out io.Writer, keys keyReader, bridge devices.Bridge, skipPrompt bool) ([]devices.Device, int, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		if isTerminal(out) {
			fmt.Fprint(out, "\x1b[2J\x1b[H")
		}

		lines := 0
		printLine := func(format string, args ...interface{}) {
			fmt.Fprintf(out, format+"\n", args...)
			lines++
		}

		printLine("Loading device list...")
		all, err := bridge.ListDevices(ctx)
		if err != nil {
			utils.Error("failed to list devices: %v", err)
			printLine("[ERROR] %v", err)
		}

		online := devices.OnlineDevices(all)
		if len(online) == 0 {
			printLine("[ERROR] no devices found!")
		} else {
			printLine("[INFO] devices:")
			for i, d := range online {
				printLine("[%d] %s - (%s)", i+1, d.Serial, d.State)
			}
		}

		if skipPrompt {
			return online, lines, nil
		}

		printLine("")
		printLine("Press [1] to reload, or [Enter] to continue...")

		key, err := keys.ReadKey()
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read key: %w", err)
		}

		switch key {
		case '\r', '\n':
			return online, lines, nil
		case keyCtrlC:
			return nil, 0, context.Canceled
		}
	}
}
