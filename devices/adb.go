package devices

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/lowji194/bumx/utils"
)

// AdbBridge drives the adb command line tool.
type AdbBridge struct {
	path string
}

func NewAdbBridge(path string) *AdbBridge {
	if path == "" {
		path = "adb"
	}
	return &AdbBridge{path: path}
}

func (a *AdbBridge) command(ctx context.Context, serial string, args ...string) *exec.Cmd {
	if serial != "" {
		args = append([]string{"-s", serial}, args...)
	}
	return exec.CommandContext(ctx, a.path, args...)
}

func (a *AdbBridge) run(ctx context.Context, serial string, args ...string) ([]byte, error) {
	utils.Verbose("adb -s %s %s", serial, strings.Join(args, " "))
	return a.command(ctx, serial, args...).CombinedOutput()
}

// ListDevices runs `adb devices` and returns every listed device, online or not.
func (a *AdbBridge) ListDevices(ctx context.Context) ([]Device, error) {
	output, err := a.run(ctx, "", "devices")
	if err != nil {
		return nil, fmt.Errorf("failed to run 'adb devices': %w\nOutput: %s", err, string(output))
	}

	return parseAdbDevicesOutput(string(output)), nil
}

func parseAdbDevicesOutput(output string) []Device {
	var devices []Device

	lines := strings.Split(output, "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "List of devices") || strings.HasPrefix(line, "*") {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}

		devices = append(devices, Device{
			Serial: parts[0],
			State:  parseState(parts[1]),
		})
	}

	return devices
}

func (a *AdbBridge) Shell(ctx context.Context, serial, command string) (string, error) {
	output, err := a.run(ctx, serial, "shell", command)
	if err != nil {
		return string(output), fmt.Errorf("shell %q failed: %w\nOutput: %s", command, err, string(output))
	}
	return string(output), nil
}

// ShellDetached starts the command and reaps it in the background. The adb
// process is killed when ctx is done.
func (a *AdbBridge) ShellDetached(ctx context.Context, serial, command string) error {
	utils.Verbose("adb -s %s shell %s (detached)", serial, command)
	cmd := a.command(ctx, serial, "shell", command)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %q: %w", command, err)
	}

	go func() {
		if err := cmd.Wait(); err != nil {
			utils.Verbose("detached %q on %s exited: %v", command, serial, err)
		}
	}()

	return nil
}

func (a *AdbBridge) Install(ctx context.Context, serial, apkPath string, reinstall bool) error {
	args := []string{"install"}
	if reinstall {
		args = append(args, "-r")
	}
	args = append(args, apkPath)

	output, err := a.run(ctx, serial, args...)
	if err != nil {
		return fmt.Errorf("failed to install %s: %w\nOutput: %s", apkPath, err, string(output))
	}
	if strings.Contains(string(output), "Failure") {
		return fmt.Errorf("failed to install %s: %s", apkPath, strings.TrimSpace(string(output)))
	}
	return nil
}

func (a *AdbBridge) Push(ctx context.Context, serial, localPath, remotePath string) error {
	output, err := a.run(ctx, serial, "push", localPath, remotePath)
	if err != nil {
		return fmt.Errorf("failed to push %s: %w\nOutput: %s", localPath, err, string(output))
	}
	return nil
}

// Forward maps local tcp port to the device port, replacing an existing mapping.
func (a *AdbBridge) Forward(ctx context.Context, serial string, localPort, remotePort int) error {
	output, err := a.run(ctx, serial, "forward", tcpSpec(localPort), tcpSpec(remotePort))
	if err != nil {
		return fmt.Errorf("failed to forward port %d: %w\nOutput: %s", localPort, err, string(output))
	}
	return nil
}

func (a *AdbBridge) RemoveForward(ctx context.Context, serial string, localPort int) error {
	output, err := a.run(ctx, serial, "forward", "--remove", tcpSpec(localPort))
	if err != nil {
		return fmt.Errorf("failed to remove forward %d: %w\nOutput: %s", localPort, err, string(output))
	}
	return nil
}

func tcpSpec(port int) string {
	return "tcp:" + strconv.Itoa(port)
}
