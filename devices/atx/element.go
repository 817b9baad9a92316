package atx

import (
	"context"
	"fmt"

	"github.com/lowji194/bumx/types"
)

// Element is a snapshot of a located element: its center point and text at
// lookup time. It is never re-validated, so Click hits the recorded
// coordinates even if the screen changed since.
type Element struct {
	driver *Driver
	X      int
	Y      int
	Text   string
}

func newElement(d *Driver, node types.UINode) *Element {
	var x, y int
	if node.Bounds != nil {
		x, y = node.Bounds.Center()
	}
	return &Element{driver: d, X: x, Y: y, Text: node.TextOrEmpty()}
}

// Click taps the element's recorded center.
func (e *Element) Click(ctx context.Context) error {
	return e.driver.Tap(ctx, e.X, e.Y)
}

// SendKeys sets the text of the element. The agent locates the target by the
// captured text, not by a stable id.
func (e *Element) SendKeys(ctx context.Context, text string) error {
	params := map[string]interface{}{
		"selector": map[string]string{"text": e.Text},
		"text":     text,
	}
	if _, err := e.driver.call(ctx, "setText", params); err != nil {
		return fmt.Errorf("failed to set text: %w", err)
	}
	return nil
}

func (e *Element) GetText() string {
	return e.Text
}

func (e *Element) String() string {
	return fmt.Sprintf("element(%d,%d %q)", e.X, e.Y, e.Text)
}
