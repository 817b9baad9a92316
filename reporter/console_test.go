package reporter

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkWriter records every Write call separately.
type chunkWriter struct {
	mu     sync.Mutex
	chunks []string
}

func (w *chunkWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.chunks = append(w.chunks, string(p))
	return len(p), nil
}

func fixedClock() time.Time {
	return time.Date(2026, 1, 2, 9, 4, 5, 0, time.UTC)
}

func newTestConsole(out *chunkWriter, tty bool) *Console {
	c := New(out, 3)
	c.tty = tty
	c.now = fixedClock
	return c
}

func TestLevelOf(t *testing.T) {
	assert.Equal(t, levelInfo, levelOf("[INFO] [SER1] ok"))
	assert.Equal(t, levelJob, levelOf("[JOB] [SER1] Làm job 1"))
	assert.Equal(t, levelError, levelOf("[LỖI] [SER1] boom"))
	assert.Equal(t, levelError, levelOf("[ERROR] [SER1] boom"))
	assert.Equal(t, levelDefault, levelOf("plain text"))
}

func TestReportAssignsRowsInFirstSeenOrder(t *testing.T) {
	out := &chunkWriter{}
	c := newTestConsole(out, true)

	c.Report("SER2", "[INFO] [SER2] first")
	c.Report("SER1", "[INFO] [SER1] second")
	c.Report("SER2", "[JOB] [SER2] again")

	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "SER2", lines[0].Serial)
	assert.Equal(t, 3, lines[0].Row)
	assert.Equal(t, "[09:04:05] [JOB] [SER2] again", lines[0].Message)
	assert.Equal(t, "SER1", lines[1].Serial)
	assert.Equal(t, 4, lines[1].Row)

	require.Len(t, out.chunks, 3)
	assert.True(t, strings.HasPrefix(out.chunks[0], "\x1b[3;1H\x1b[2K"))
	assert.True(t, strings.HasPrefix(out.chunks[1], "\x1b[4;1H\x1b[2K"))
	assert.True(t, strings.HasPrefix(out.chunks[2], "\x1b[3;1H\x1b[2K"))
	assert.Contains(t, out.chunks[2], "again")
	// cursor parks below the last device row
	assert.True(t, strings.HasSuffix(out.chunks[2], "\x1b[5;1H"))
}

func TestReserveKeepsOrder(t *testing.T) {
	out := &chunkWriter{}
	c := newTestConsole(out, true)

	c.Reserve("SER1", "SER2", "SER1")
	c.Report("SER2", "[INFO] [SER2] hello")
	c.Report("SER1", "[INFO] [SER1] hello")

	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "SER1", lines[0].Serial)
	assert.Equal(t, 3, lines[0].Row)
	assert.Equal(t, "SER2", lines[1].Serial)
	assert.Equal(t, 4, lines[1].Row)
	assert.Len(t, out.chunks, 2)
}

func TestReportWithoutSerialAppends(t *testing.T) {
	out := &chunkWriter{}
	c := newTestConsole(out, true)

	c.Report("SER1", "[INFO] [SER1] row")
	c.Report("", "[INFO] Đang tải tài nguyên")
	c.Report("SER2", "[INFO] [SER2] row")

	require.Len(t, out.chunks, 3)
	assert.True(t, strings.HasPrefix(out.chunks[1], "\x1b[4;1H\x1b[2K"))
	assert.True(t, strings.HasPrefix(out.chunks[2], "\x1b[5;1H\x1b[2K"))

	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, 5, lines[1].Row)
}

func TestReportPlainOutput(t *testing.T) {
	out := &chunkWriter{}
	c := newTestConsole(out, false)

	c.Report("SER1", "[INFO] [SER1] ready")
	c.Report("", "[INFO] done")

	assert.Equal(t, []string{
		"[09:04:05] [INFO] [SER1] ready\n",
		"[09:04:05] [INFO] done\n",
	}, out.chunks)
}

func TestConcurrentReportsNeverInterleave(t *testing.T) {
	out := &chunkWriter{}
	c := newTestConsole(out, true)
	c.Reserve("SER1", "SER2")

	const perDevice = 200
	var wg sync.WaitGroup
	for _, serial := range []string{"SER1", "SER2"} {
		wg.Add(1)
		go func(serial string) {
			defer wg.Done()
			for i := 0; i < perDevice; i++ {
				c.Report(serial, fmt.Sprintf("[JOB] [%s] Làm job %d", serial, i))
			}
		}(serial)
	}
	wg.Wait()

	require.Len(t, out.chunks, 2*perDevice)
	for _, chunk := range out.chunks {
		switch {
		case strings.Contains(chunk, "[SER1]"):
			assert.True(t, strings.HasPrefix(chunk, "\x1b[3;1H\x1b[2K"), chunk)
			assert.NotContains(t, chunk, "[SER2]")
		case strings.Contains(chunk, "[SER2]"):
			assert.True(t, strings.HasPrefix(chunk, "\x1b[4;1H\x1b[2K"), chunk)
			assert.NotContains(t, chunk, "[SER1]")
		default:
			t.Fatalf("unexpected chunk %q", chunk)
		}
	}

	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0].Message, fmt.Sprintf("job %d", perDevice-1))
	assert.Contains(t, lines[1].Message, fmt.Sprintf("job %d", perDevice-1))
}

func TestFitTruncatesToWidth(t *testing.T) {
	c := New(&bytes.Buffer{}, 1)
	long := strings.Repeat("x", 200)
	assert.Len(t, c.fit(long), defaultWidth-1)
	assert.Equal(t, "short", c.fit("short"))
}

func TestSubscribe(t *testing.T) {
	out := &chunkWriter{}
	c := newTestConsole(out, false)

	lines, cancel := c.Subscribe()
	c.Report("SER1", "[INFO] [SER1] one")

	select {
	case line := <-lines:
		assert.Equal(t, "SER1", line.Serial)
		assert.Equal(t, "[09:04:05] [INFO] [SER1] one", line.Message)
	case <-time.After(time.Second):
		t.Fatal("no line delivered")
	}

	cancel()
	_, open := <-lines
	assert.False(t, open)

	// cancelling twice is harmless
	cancel()
	c.Report("SER1", "[INFO] [SER1] two")
}
