package devices

import (
	"context"
	"fmt"
)

// State is the adb connection state of a device.
type State string

const (
	StateOnline       State = "online"
	StateOffline      State = "offline"
	StateUnauthorized State = "unauthorized"
	StateUnknown      State = "unknown"
)

// parseState maps the state column of `adb devices` to a State.
func parseState(s string) State {
	switch s {
	case "device":
		return StateOnline
	case "offline":
		return StateOffline
	case "unauthorized":
		return StateUnauthorized
	default:
		return StateUnknown
	}
}

// Device is one attached Android device. Port is the local forward port
// assigned for this run; zero until AssignPorts runs.
type Device struct {
	Serial string `json:"serial"`
	State  State  `json:"state"`
	Port   int    `json:"port,omitempty"`
}

func (d Device) Online() bool {
	return d.State == StateOnline
}

func (d Device) String() string {
	return fmt.Sprintf("%s (%s)", d.Serial, d.State)
}

// Bridge is the device debugging bridge. Shell waits for the command and
// returns its output; ShellDetached starts the command and returns without
// waiting for it to finish.
type Bridge interface {
	ListDevices(ctx context.Context) ([]Device, error)
	Shell(ctx context.Context, serial, command string) (string, error)
	ShellDetached(ctx context.Context, serial, command string) error
	Install(ctx context.Context, serial, apkPath string, reinstall bool) error
	Push(ctx context.Context, serial, localPath, remotePath string) error
	Forward(ctx context.Context, serial string, localPort, remotePort int) error
	RemoveForward(ctx context.Context, serial string, localPort int) error
}

// OnlineDevices filters out devices that cannot be driven.
func OnlineDevices(devices []Device) []Device {
	var online []Device
	for _, d := range devices {
		if d.Online() {
			online = append(online, d)
		}
	}
	return online
}

// AssignPorts gives device i the local port base+i. The assignment is fixed
// for the rest of the run.
func AssignPorts(devices []Device, base int) []Device {
	assigned := make([]Device, len(devices))
	for i, d := range devices {
		d.Port = base + i
		assigned[i] = d
	}
	return assigned
}
