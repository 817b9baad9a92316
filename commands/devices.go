package commands

import (
	"context"

	"github.com/lowji194/bumx/devices"
)

// DevicesCommand lists attached devices. Without showAll only online ones are
// returned.
func DevicesCommand(ctx context.Context, bridge devices.Bridge, showAll bool) *CommandResponse {
	list, err := bridge.ListDevices(ctx)
	if err != nil {
		return NewErrorResponse(err)
	}

	if !showAll {
		list = devices.OnlineDevices(list)
	}
	if list == nil {
		list = []devices.Device{}
	}

	return NewSuccessResponse(map[string]interface{}{
		"devices": list,
	})
}
