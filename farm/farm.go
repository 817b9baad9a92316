// Package farm runs one automation task per device and tracks their status.
package farm

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lowji194/bumx/automation"
	"github.com/lowji194/bumx/config"
	"github.com/lowji194/bumx/devices"
	"github.com/lowji194/bumx/devices/atx"
	"github.com/lowji194/bumx/types"
	"github.com/lowji194/bumx/utils"
)

const forwardCleanupTimeout = 5 * time.Second

type Reporter interface {
	Report(serial, message string)
}

// Preparer gets a device's agent ready on a local port.
type Preparer interface {
	PrepareAgent(ctx context.Context, device devices.Device, localPort int) bool
}

type Farm struct {
	bridge   devices.Bridge
	preparer Preparer
	reporter Reporter
	cfg      *config.Config
	hooks    *devices.ShutdownHook

	newScreen func(port int) automation.Screen

	runID     string
	startedAt time.Time

	mu     sync.Mutex
	status map[string]*types.DeviceStatus
}

func New(bridge devices.Bridge, preparer Preparer, reporter Reporter, cfg *config.Config, hooks *devices.ShutdownHook) *Farm {
	f := &Farm{
		bridge:   bridge,
		preparer: preparer,
		reporter: reporter,
		cfg:      cfg,
		hooks:    hooks,
		runID:    uuid.New().String(),
		status:   make(map[string]*types.DeviceStatus),
	}
	f.newScreen = f.localDriver
	return f
}

func (f *Farm) localDriver(port int) automation.Screen {
	driver := atx.NewLocalDriver(port, f.cfg.Agent.FindTimeout)
	driver.SetPollInterval(f.cfg.Pacing.Poll)
	return driver
}

func (f *Farm) RunID() string {
	return f.runID
}

func (f *Farm) StartedAt() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.startedAt
}

// Run assigns ports from the configured base and drives every device
// concurrently until ctx is cancelled and all device tasks have returned.
func (f *Farm) Run(ctx context.Context, devs []devices.Device) []devices.Device {
	assigned := devices.AssignPorts(devs, f.cfg.Agent.PortBase)

	f.mu.Lock()
	f.startedAt = time.Now()
	for _, d := range assigned {
		f.status[d.Serial] = &types.DeviceStatus{
			Serial:    d.Serial,
			Port:      d.Port,
			Phase:     types.PhasePending,
			UpdatedAt: time.Now(),
		}
	}
	f.mu.Unlock()

	utils.Info("run %s: starting %d device(s)", f.runID, len(assigned))

	var wg sync.WaitGroup
	for _, d := range assigned {
		wg.Add(1)
		go func(d devices.Device) {
			defer wg.Done()
			f.runDevice(ctx, d)
		}(d)
	}
	wg.Wait()

	utils.Info("run %s: all device tasks finished", f.runID)
	return assigned
}

func (f *Farm) runDevice(ctx context.Context, device devices.Device) {
	log := utils.WithDevice(device.Serial)

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("device task panicked: %v", r)
			f.reporter.Report(device.Serial, fmt.Sprintf("[ERROR] [%s] fatal error: %v", device.Serial, r))
			f.update(device.Serial, func(s *types.DeviceStatus) {
				s.Phase = types.PhaseFailed
				s.LastError = fmt.Sprint(r)
			})
		}
	}()

	if !utils.IsPortAvailable("127.0.0.1", device.Port) {
		log.Warnf("local port %d is already in use, forward may replace it", device.Port)
	}

	f.update(device.Serial, func(s *types.DeviceStatus) { s.Phase = types.PhasePreparing })
	if !f.preparer.PrepareAgent(ctx, device, device.Port) {
		f.update(device.Serial, func(s *types.DeviceStatus) {
			s.Phase = types.PhaseFailed
			s.LastError = "agent not ready"
		})
		return
	}
	f.registerForwardCleanup(device)

	f.reporter.Report(device.Serial, fmt.Sprintf("[INFO] [%s] atx-agent ready on port %d", device.Serial, device.Port))
	f.update(device.Serial, func(s *types.DeviceStatus) { s.Phase = types.PhaseRunning })

	runner := automation.NewRunner(f.newScreen(device.Port), f.reporter, device.Serial, f.cfg.Pacing)
	runner.OnIteration = func(stats automation.Stats) {
		f.update(device.Serial, func(s *types.DeviceStatus) {
			s.Jobs = stats.Jobs
			s.Completed = stats.Completed
		})
	}

	err := runner.Run(ctx)
	log.Infof("device task stopped: %v", err)
	f.update(device.Serial, func(s *types.DeviceStatus) { s.Phase = types.PhaseStopped })
}

func (f *Farm) registerForwardCleanup(device devices.Device) {
	if f.hooks == nil {
		return
	}

	f.hooks.Register(fmt.Sprintf("forward %s tcp:%d", device.Serial, device.Port), func() error {
		ctx, cancel := context.WithTimeout(context.Background(), forwardCleanupTimeout)
		defer cancel()
		return f.bridge.RemoveForward(ctx, device.Serial, device.Port)
	})
}

func (f *Farm) update(serial string, fn func(s *types.DeviceStatus)) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.status[serial]
	if !ok {
		return
	}
	fn(s)
	s.UpdatedAt = time.Now()
}

// Status returns a copy of every device's status ordered by port.
func (f *Farm) Status() []types.DeviceStatus {
	f.mu.Lock()
	defer f.mu.Unlock()

	list := make([]types.DeviceStatus, 0, len(f.status))
	for _, s := range f.status {
		list = append(list, *s)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Port < list[j].Port })
	return list
}
