package atx

import "context"

// Tap clicks the screen at (x, y).
func (d *Driver) Tap(ctx context.Context, x, y int) error {
	return d.fire(ctx, "/touch/click", map[string]int{"x": x, "y": y})
}

// LongTap presses (x, y) for duration seconds.
func (d *Driver) LongTap(ctx context.Context, x, y int, duration float64) error {
	data := map[string]interface{}{"x": x, "y": y, "duration": duration}
	return d.fire(ctx, "/touch/long_click", data)
}

// Swipe drags from (x1, y1) to (x2, y2) over duration seconds.
func (d *Driver) Swipe(ctx context.Context, x1, y1, x2, y2 int, duration float64) error {
	data := map[string]interface{}{
		"x1":       x1,
		"y1":       y1,
		"x2":       x2,
		"y2":       y2,
		"duration": duration,
	}
	return d.fire(ctx, "/swipe", data)
}

func (d *Driver) PressBack(ctx context.Context) error {
	return d.fire(ctx, "/press/back", struct{}{})
}

func (d *Driver) Home(ctx context.Context) error {
	return d.fire(ctx, "/press/home", struct{}{})
}

func (d *Driver) OpenRecentApps(ctx context.Context) error {
	return d.fire(ctx, "/press/recent", struct{}{})
}
