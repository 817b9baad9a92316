// Package reporter renders per-device status lines on the terminal. Each
// device owns one fixed row; all writes are serialized by a single mutex.
package reporter

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/lowji194/bumx/types"
	"golang.org/x/term"
)

const (
	defaultWidth     = 80
	subscriberBuffer = 64
)

type level int

const (
	levelDefault level = iota
	levelInfo
	levelJob
	levelError
)

func levelOf(message string) level {
	switch {
	case strings.Contains(message, "[INFO]"):
		return levelInfo
	case strings.Contains(message, "[JOB]"):
		return levelJob
	case strings.Contains(message, "[LỖI]"), strings.Contains(message, "[ERROR]"):
		return levelError
	default:
		return levelDefault
	}
}

// Console is safe for concurrent use by every device task.
type Console struct {
	mu      sync.Mutex
	out     io.Writer
	tty     bool
	fd      int
	now     func() time.Time
	styles  map[level]lipgloss.Style
	rows    map[string]*types.ConsoleLine
	nextRow int

	subs    map[int]chan types.ConsoleLine
	nextSub int
}

// New creates a console writing to out. firstRow is the 1-based terminal row
// given to the first device; rows below it are handed out in order.
func New(out io.Writer, firstRow int) *Console {
	if firstRow < 1 {
		firstRow = 1
	}

	c := &Console{
		out:     out,
		fd:      -1,
		now:     time.Now,
		rows:    make(map[string]*types.ConsoleLine),
		nextRow: firstRow,
		subs:    make(map[int]chan types.ConsoleLine),
	}

	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		c.tty = true
		c.fd = int(f.Fd())
	}

	renderer := lipgloss.NewRenderer(out)
	c.styles = map[level]lipgloss.Style{
		levelDefault: renderer.NewStyle().Foreground(lipgloss.Color("15")),
		levelInfo:    renderer.NewStyle().Foreground(lipgloss.Color("11")),
		levelJob:     renderer.NewStyle().Foreground(lipgloss.Color("10")),
		levelError:   renderer.NewStyle().Foreground(lipgloss.Color("9")),
	}

	return c
}

// Reserve assigns rows to serials in the given order, skipping ones that
// already have a row.
func (c *Console) Reserve(serials ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, serial := range serials {
		c.rowFor(serial)
	}
}

// Report rewrites the device's row with a timestamped message. An empty
// serial appends a new line below every device row instead.
func (c *Console) Report(serial, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	text := fmt.Sprintf("[%s] %s", now.Format("15:04:05"), message)
	style := c.styles[levelOf(message)]

	var line types.ConsoleLine
	var b strings.Builder

	if serial == "" {
		line = types.ConsoleLine{Row: c.nextRow, Message: text, Time: now}
		if c.tty {
			fmt.Fprintf(&b, "\x1b[%d;1H\x1b[2K%s", c.nextRow, style.Render(c.fit(text)))
			c.nextRow++
			fmt.Fprintf(&b, "\x1b[%d;1H", c.nextRow)
		} else {
			c.nextRow++
			b.WriteString(text)
			b.WriteString("\n")
		}
	} else {
		row := c.rowFor(serial)
		row.Message = text
		row.Time = now
		line = *row

		if c.tty {
			fmt.Fprintf(&b, "\x1b[%d;1H\x1b[2K%s\x1b[%d;1H", row.Row, style.Render(c.fit(text)), c.nextRow)
		} else {
			b.WriteString(text)
			b.WriteString("\n")
		}
	}

	// one Write per update keeps rows from interleaving
	_, _ = io.WriteString(c.out, b.String())
	c.publish(line)
}

// Lines returns the last message of every device, ordered by row.
func (c *Console) Lines() []types.ConsoleLine {
	c.mu.Lock()
	defer c.mu.Unlock()

	lines := make([]types.ConsoleLine, 0, len(c.rows))
	for _, row := range c.rows {
		lines = append(lines, *row)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Row < lines[j].Row })
	return lines
}

// Subscribe returns a feed of every rendered line. Slow readers miss lines
// rather than blocking writers. Call the returned func to unsubscribe.
func (c *Console) Subscribe() (<-chan types.ConsoleLine, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	ch := make(chan types.ConsoleLine, subscriberBuffer)
	c.subs[id] = ch

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
}

func (c *Console) publish(line types.ConsoleLine) {
	for _, ch := range c.subs {
		select {
		case ch <- line:
		default:
		}
	}
}

// rowFor must be called with mu held.
func (c *Console) rowFor(serial string) *types.ConsoleLine {
	row, ok := c.rows[serial]
	if !ok {
		row = &types.ConsoleLine{Serial: serial, Row: c.nextRow}
		c.rows[serial] = row
		c.nextRow++
	}
	return row
}

// fit truncates text so a row never wraps into the next device's row.
func (c *Console) fit(text string) string {
	width := defaultWidth
	if c.fd >= 0 {
		if w, _, err := term.GetSize(c.fd); err == nil && w > 1 {
			width = w
		}
	}

	runes := []rune(text)
	if len(runes) < width {
		return text
	}
	return string(runes[:width-1])
}
