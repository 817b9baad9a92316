package atx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lowji194/bumx/types"
	"github.com/lowji194/bumx/utils"
)

var (
	ErrNotFound    = errors.New("element not found")
	ErrUnsupported = errors.New("unsupported operation")
)

// FindElement returns the first element matching by. XPath is a single round
// trip; the other strategies retry until found or the driver timeout elapses.
func (d *Driver) FindElement(ctx context.Context, by By) (*Element, error) {
	if by.IsXPath() {
		elements, err := d.FindElements(ctx, by)
		if err != nil {
			return nil, err
		}
		if len(elements) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, by)
		}
		return elements[0], nil
	}

	return d.findBySelector(ctx, by)
}

// FindElements evaluates an XPath selector and returns every match. Other
// strategies fail with ErrUnsupported before any request is made.
func (d *Driver) FindElements(ctx context.Context, by By) ([]*Element, error) {
	if !by.IsXPath() {
		return nil, fmt.Errorf("%w: FindElements supports only xpath, got %s", ErrUnsupported, by)
	}

	nodes, err := d.xpath(ctx, by.Value())
	if err != nil {
		return nil, err
	}

	elements := make([]*Element, 0, len(nodes))
	for _, node := range nodes {
		elements = append(elements, newElement(d, node))
	}
	return elements, nil
}

func (d *Driver) xpath(ctx context.Context, expression string) ([]types.UINode, error) {
	result, err := d.call(ctx, "xpath", map[string]string{"expression": expression})
	if err != nil {
		return nil, fmt.Errorf("xpath %q failed: %w", expression, err)
	}
	if result == nil {
		return nil, nil
	}

	var nodes []types.UINode
	if err := json.Unmarshal(result, &nodes); err != nil {
		return nil, fmt.Errorf("failed to parse xpath result: %w", err)
	}
	return nodes, nil
}

// findBySelector asks the agent for the selector's text, dumps the whole tree
// and picks the first node whose text is equal. The match is by text only, so
// two elements showing the same text are indistinguishable.
func (d *Driver) findBySelector(ctx context.Context, by By) (*Element, error) {
	start := time.Now()

	for time.Since(start) < d.timeout {
		element, err := d.matchSelectorText(ctx, by)
		if err != nil {
			utils.Verbose("lookup %s on %s: %v", by, d.baseURL, err)
		}
		if element != nil {
			return element, nil
		}

		if err := utils.Sleep(ctx, d.pollInterval); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w: %s within %s", ErrNotFound, by, d.timeout)
}

func (d *Driver) matchSelectorText(ctx context.Context, by By) (*Element, error) {
	result, err := d.call(ctx, "getText", map[string]interface{}{"selector": by.uiSelector()})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}

	var text string
	if err := json.Unmarshal(result, &text); err != nil {
		return nil, fmt.Errorf("unexpected getText result: %w", err)
	}
	if text == "" {
		return nil, nil
	}

	nodes, err := d.xpath(ctx, "//*")
	if err != nil {
		return nil, err
	}

	for _, node := range nodes {
		if node.TextOrEmpty() == text {
			return newElement(d, node), nil
		}
	}

	return nil, nil
}
