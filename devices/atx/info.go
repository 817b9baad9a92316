package atx

import (
	"context"
	"fmt"

	"github.com/lowji194/bumx/types"
)

// Info fetches the agent /info document.
func (d *Driver) Info(ctx context.Context) (*types.AgentInfo, error) {
	var info types.AgentInfo
	if err := d.getJSON(ctx, "/info", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetScreenSize returns display width and height, 0 when not reported.
func (d *Driver) GetScreenSize(ctx context.Context) (int, int, error) {
	info, err := d.Info(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get screen size: %w", err)
	}
	if info.Display == nil {
		return 0, 0, nil
	}
	return info.Display.Width, info.Display.Height, nil
}

// GetCurrentPackage returns the foreground application package.
func (d *Driver) GetCurrentPackage(ctx context.Context) (string, error) {
	info, err := d.Info(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get current package: %w", err)
	}
	return info.CurrentPackage, nil
}

// Ping reports whether the agent answered /info with a non-empty body.
func (d *Driver) Ping(ctx context.Context) (bool, error) {
	body, err := d.getBytes(ctx, "/info")
	if err != nil {
		return false, err
	}
	return len(body) > 0, nil
}
