package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/lowji194/bumx/devices"
)

// CommandResponse represents a standardized response format for all commands
type CommandResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data interface{}) *CommandResponse {
	return &CommandResponse{
		Status: "ok",
		Data:   data,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(err error) *CommandResponse {
	return &CommandResponse{
		Status: "error",
		Error:  err.Error(),
	}
}

// FindDevice looks up an attached device by serial, offline ones included.
func FindDevice(ctx context.Context, bridge devices.Bridge, serial string) (devices.Device, error) {
	if serial == "" {
		return devices.Device{}, fmt.Errorf("device serial is required")
	}

	all, err := bridge.ListDevices(ctx)
	if err != nil {
		return devices.Device{}, fmt.Errorf("error getting devices: %w", err)
	}

	for _, d := range all {
		if d.Serial == serial {
			return d, nil
		}
	}

	return devices.Device{}, fmt.Errorf("device not found: %s", serial)
}

// FindDeviceOrAutoSelect finds a device by serial, or picks the only online
// device when serial is empty.
func FindDeviceOrAutoSelect(ctx context.Context, bridge devices.Bridge, serial string) (devices.Device, error) {
	if serial != "" {
		return FindDevice(ctx, bridge, serial)
	}

	all, err := bridge.ListDevices(ctx)
	if err != nil {
		return devices.Device{}, fmt.Errorf("error getting devices: %w", err)
	}

	online := devices.OnlineDevices(all)
	if len(online) == 0 {
		return devices.Device{}, fmt.Errorf("no online devices found")
	}

	if len(online) > 1 {
		return devices.Device{}, fmt.Errorf("multiple devices found (%d), please specify --device with one of: %s", len(online), getDeviceIDList(online))
	}

	return online[0], nil
}

// getDeviceIDList returns a comma-separated list of serials for error messages
func getDeviceIDList(list []devices.Device) string {
	var ids []string
	for _, d := range list {
		ids = append(ids, d.Serial)
	}
	return fmt.Sprintf("[%s]", strings.Join(ids, ", "))
}
