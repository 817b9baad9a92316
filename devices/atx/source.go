package atx

import (
	"context"
	"encoding/json"
	"fmt"
)

// GetPageSource returns the raw window hierarchy dump.
func (d *Driver) GetPageSource(ctx context.Context) (string, error) {
	result, err := d.call(ctx, "dumpWindowHierarchy", map[string]bool{"compressed": false})
	if err != nil {
		return "", fmt.Errorf("failed to dump hierarchy: %w", err)
	}
	if result == nil {
		return "", nil
	}

	var source string
	if err := json.Unmarshal(result, &source); err != nil {
		// not a JSON string, hand back the raw document
		return string(result), nil
	}
	return source, nil
}

// OpenDeeplink launches uri through an ACTION_VIEW intent targeted at pkg.
func (d *Driver) OpenDeeplink(ctx context.Context, uri, pkg string) error {
	data := map[string]string{
		"action": "android.intent.action.VIEW",
		"uri":    uri,
		"pkg":    pkg,
	}
	if _, err := d.post(ctx, "/app/intent", data); err != nil {
		return fmt.Errorf("failed to open %s: %w", uri, err)
	}
	return nil
}
