package farm

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lowji194/bumx/automation"
	"github.com/lowji194/bumx/config"
	"github.com/lowji194/bumx/devices"
	"github.com/lowji194/bumx/devices/atx"
	"github.com/lowji194/bumx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emptyScreen struct{}

func (emptyScreen) FindElements(ctx context.Context, by atx.By) ([]*atx.Element, error) {
	return nil, nil
}

func (emptyScreen) GetScreenSize(ctx context.Context) (int, int, error) {
	return 1080, 2400, nil
}

func (emptyScreen) Swipe(ctx context.Context, x1, y1, x2, y2 int, duration float64) error {
	return nil
}

type preparerStub struct {
	mu     sync.Mutex
	ports  map[string]int
	refuse map[string]bool
}

func (p *preparerStub) PrepareAgent(ctx context.Context, device devices.Device, localPort int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ports == nil {
		p.ports = make(map[string]int)
	}
	p.ports[device.Serial] = localPort
	return !p.refuse[device.Serial]
}

type bridgeStub struct {
	devices.Bridge

	mu      sync.Mutex
	removed []int
}

func (b *bridgeStub) RemoveForward(ctx context.Context, serial string, localPort int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removed = append(b.removed, localPort)
	return nil
}

type nopReporter struct{}

func (nopReporter) Report(serial, message string) {}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Agent.PortBase = 7912
	cfg.Pacing = config.Pacing{
		Popup:        time.Millisecond,
		Settle:       time.Millisecond,
		Job:          time.Millisecond,
		ErrorBackoff: time.Millisecond,
		Poll:         time.Millisecond,
	}
	return cfg
}

func online(serials ...string) []devices.Device {
	list := make([]devices.Device, 0, len(serials))
	for _, s := range serials {
		list = append(list, devices.Device{Serial: s, State: devices.StateOnline})
	}
	return list
}

func startFarm(t *testing.T, f *Farm, devs []devices.Device) (context.CancelFunc, <-chan []devices.Device) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan []devices.Device, 1)
	go func() { done <- f.Run(ctx, devs) }()
	t.Cleanup(cancel)
	return cancel, done
}

func waitDone(t *testing.T, done <-chan []devices.Device) []devices.Device {
	t.Helper()
	select {
	case assigned := <-done:
		return assigned
	case <-time.After(5 * time.Second):
		t.Fatal("farm did not stop")
		return nil
	}
}

func TestRunAssignsPortsAndDrivesEveryDevice(t *testing.T) {
	preparer := &preparerStub{}
	bridge := &bridgeStub{}
	hooks := devices.NewShutdownHook()

	f := New(bridge, preparer, nopReporter{}, testConfig(), hooks)
	var screensMu sync.Mutex
	screens := map[int]bool{}
	f.newScreen = func(port int) automation.Screen {
		screensMu.Lock()
		screens[port] = true
		screensMu.Unlock()
		return emptyScreen{}
	}

	cancel, done := startFarm(t, f, online("SER1", "SER2"))

	require.Eventually(t, func() bool {
		status := f.Status()
		if len(status) != 2 {
			return false
		}
		for _, s := range status {
			if s.Phase != types.PhaseRunning || s.Jobs == 0 {
				return false
			}
		}
		return true
	}, 3*time.Second, 5*time.Millisecond)

	cancel()
	assigned := waitDone(t, done)

	require.Len(t, assigned, 2)
	assert.Equal(t, 7912, assigned[0].Port)
	assert.Equal(t, 7913, assigned[1].Port)
	assert.Equal(t, map[string]int{"SER1": 7912, "SER2": 7913}, preparer.ports)
	assert.Equal(t, map[int]bool{7912: true, 7913: true}, screens)

	status := f.Status()
	require.Len(t, status, 2)
	assert.Equal(t, "SER1", status[0].Serial)
	assert.Equal(t, types.PhaseStopped, status[0].Phase)
	assert.Equal(t, "SER2", status[1].Serial)
	assert.Equal(t, types.PhaseStopped, status[1].Phase)

	assert.Equal(t, 2, hooks.Count())
	require.NoError(t, hooks.Shutdown())
	assert.ElementsMatch(t, []int{7912, 7913}, bridge.removed)
}

func TestRunKeepsOtherDevicesWhenOneFailsToPrepare(t *testing.T) {
	preparer := &preparerStub{refuse: map[string]bool{"SER1": true}}
	hooks := devices.NewShutdownHook()

	f := New(&bridgeStub{}, preparer, nopReporter{}, testConfig(), hooks)
	f.newScreen = func(port int) automation.Screen { return emptyScreen{} }

	cancel, done := startFarm(t, f, online("SER1", "SER2"))

	require.Eventually(t, func() bool {
		status := f.Status()
		if len(status) != 2 {
			return false
		}
		return status[0].Phase == types.PhaseFailed && status[1].Phase == types.PhaseRunning
	}, 3*time.Second, 5*time.Millisecond)

	cancel()
	waitDone(t, done)

	status := f.Status()
	assert.Equal(t, types.PhaseFailed, status[0].Phase)
	assert.Equal(t, "agent not ready", status[0].LastError)
	assert.Equal(t, types.PhaseStopped, status[1].Phase)
	assert.Equal(t, 1, hooks.Count())
}

func TestRunRecoversFromPanickingDevice(t *testing.T) {
	f := New(&bridgeStub{}, &preparerStub{}, nopReporter{}, testConfig(), nil)
	f.newScreen = func(port int) automation.Screen {
		if port == 7912 {
			panic("driver exploded")
		}
		return emptyScreen{}
	}

	cancel, done := startFarm(t, f, online("SER1", "SER2"))

	require.Eventually(t, func() bool {
		status := f.Status()
		if len(status) != 2 {
			return false
		}
		return status[0].Phase == types.PhaseFailed && status[1].Phase == types.PhaseRunning
	}, 3*time.Second, 5*time.Millisecond)

	cancel()
	waitDone(t, done)

	status := f.Status()
	assert.Equal(t, "driver exploded", status[0].LastError)
	assert.Equal(t, types.PhaseStopped, status[1].Phase)
}

func TestRunIDIsUnique(t *testing.T) {
	a := New(&bridgeStub{}, &preparerStub{}, nopReporter{}, testConfig(), nil)
	b := New(&bridgeStub{}, &preparerStub{}, nopReporter{}, testConfig(), nil)
	assert.NotEmpty(t, a.RunID())
	assert.NotEqual(t, a.RunID(), b.RunID())
}
