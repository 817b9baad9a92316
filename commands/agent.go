package commands

import (
	"context"
	"fmt"

	"github.com/lowji194/bumx/config"
	"github.com/lowji194/bumx/devices"
)

// AgentPrepareRequest represents the parameters for preparing one device
type AgentPrepareRequest struct {
	DeviceID string `json:"deviceId"`
	Port     int    `json:"port,omitempty"`
}

type AgentPrepareResponse struct {
	Serial string `json:"serial"`
	Port   int    `json:"port"`
	URL    string `json:"url"`
}

// AgentPrepareCommand provisions and starts atx-agent on one device and
// forwards it to a local port.
func AgentPrepareCommand(ctx context.Context, bridge devices.Bridge, reporter devices.Reporter, cfg *config.Config, req AgentPrepareRequest) *CommandResponse {
	device, err := FindDeviceOrAutoSelect(ctx, bridge, req.DeviceID)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("error finding device: %v", err))
	}

	if !device.Online() {
		return NewErrorResponse(fmt.Errorf("device %s is %s", device.Serial, device.State))
	}

	port := req.Port
	if port == 0 {
		port = cfg.Agent.PortBase
	}

	bootstrapper := devices.NewBootstrapper(bridge, reporter, cfg)
	if !bootstrapper.PrepareAgent(ctx, device, port) {
		return NewErrorResponse(fmt.Errorf("failed to prepare atx-agent on device %s", device.Serial))
	}

	return NewSuccessResponse(AgentPrepareResponse{
		Serial: device.Serial,
		Port:   port,
		URL:    fmt.Sprintf("http://127.0.0.1:%d", port),
	})
}
