package atx

import (
	"context"
	"fmt"
	"os"
)

// Screenshot returns the raw image bytes of the current screen.
func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	data, err := d.getBytes(ctx, "/screenshot")
	if err != nil {
		return nil, fmt.Errorf("failed to take screenshot: %w", err)
	}
	return data, nil
}

// TakeScreenshot writes the current screen to path.
func (d *Driver) TakeScreenshot(ctx context.Context, path string) error {
	data, err := d.Screenshot(ctx)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write screenshot to %s: %w", path, err)
	}
	return nil
}
