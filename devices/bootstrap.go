package devices

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lowji194/bumx/config"
	"github.com/lowji194/bumx/devices/atx"
	"github.com/lowji194/bumx/utils"
)

const (
	HelperPackage   = "com.github.uiautomator"
	RemoteAgentPath = "/data/local/tmp/atx-agent"

	instrumentCommand = "am instrument -w -r -e debug false -e class com.github.uiautomator.stub.Stub " +
		"com.github.uiautomator.test/android.support.test.runner.AndroidJUnitRunner"

	healthRequestTimeout = 5 * time.Second
)

// Reporter receives progress lines for a device.
type Reporter interface {
	Report(serial, message string)
}

// Bootstrapper provisions and starts atx-agent on a device.
type Bootstrapper struct {
	bridge   Bridge
	reporter Reporter

	apkPath        string
	agentPath      string
	remotePort     int
	startDelay     time.Duration
	healthAttempts int
	healthInterval time.Duration

	ping  func(ctx context.Context, port int) (bool, error)
	sleep func(ctx context.Context, d time.Duration) error
}

func NewBootstrapper(bridge Bridge, reporter Reporter, cfg *config.Config) *Bootstrapper {
	return &Bootstrapper{
		bridge:         bridge,
		reporter:       reporter,
		apkPath:        cfg.Resources.APKPath(),
		agentPath:      cfg.Resources.AgentPath(),
		remotePort:     cfg.Agent.RemotePort,
		startDelay:     cfg.Agent.StartDelay,
		healthAttempts: cfg.Agent.HealthAttempts,
		healthInterval: cfg.Agent.HealthInterval,
		ping:           pingAgent,
		sleep:          utils.Sleep,
	}
}

func pingAgent(ctx context.Context, port int) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, healthRequestTimeout)
	defer cancel()
	return atx.NewLocalDriver(port, 0).Ping(ctx)
}

func agentStartCommand(remotePort int) string {
	return fmt.Sprintf("nohup %s server --nouia --addr :%d >/dev/null 2>&1 &", RemoteAgentPath, remotePort)
}

// PrepareAgent installs what is missing, starts the agent, forwards localPort
// and waits for the agent to answer. Any failure is reported and turns into
// false; nothing done before the failure is undone.
func (b *Bootstrapper) PrepareAgent(ctx context.Context, device Device, localPort int) bool {
	serial := device.Serial

	if err := b.prepare(ctx, serial, localPort); err != nil {
		utils.WithDevice(serial).Errorf("prepare agent: %v", err)
		b.reporter.Report(serial, fmt.Sprintf("[ERROR] [%s] failed to prepare atx-agent: %v", serial, err))
		return false
	}

	ok, err := b.waitForAgent(ctx, localPort)
	if err != nil || !ok {
		utils.WithDevice(serial).Warnf("agent on port %d unreachable: %v", localPort, err)
		b.reporter.Report(serial, fmt.Sprintf("[ERROR] [%s] cannot reach atx-agent on port %d", serial, localPort))
		return false
	}

	return true
}

func (b *Bootstrapper) prepare(ctx context.Context, serial string, localPort int) error {
	if err := b.ensureHelperPackage(ctx, serial); err != nil {
		return err
	}

	if err := b.ensureAgentBinary(ctx, serial); err != nil {
		return err
	}

	b.reporter.Report(serial, fmt.Sprintf("[INFO] [%s] starting uiautomator...", serial))
	if err := b.bridge.ShellDetached(ctx, serial, instrumentCommand); err != nil {
		return err
	}

	b.reporter.Report(serial, fmt.Sprintf("[INFO] [%s] starting atx-agent...", serial))
	if _, err := b.bridge.Shell(ctx, serial, "pkill atx-agent"); err != nil {
		// nothing to kill is the common case
		utils.WithDevice(serial).Debugf("pkill atx-agent: %v", err)
	}
	if err := b.bridge.ShellDetached(ctx, serial, agentStartCommand(b.remotePort)); err != nil {
		return err
	}

	return b.bridge.Forward(ctx, serial, localPort, b.remotePort)
}

func (b *Bootstrapper) ensureHelperPackage(ctx context.Context, serial string) error {
	output, err := b.bridge.Shell(ctx, serial, "pm list packages")
	if err != nil {
		return fmt.Errorf("failed to list packages: %w", err)
	}

	for _, line := range strings.Split(output, "\n") {
		if strings.Contains(strings.TrimSpace(line), HelperPackage) {
			return nil
		}
	}

	b.reporter.Report(serial, fmt.Sprintf("[INFO] [%s] installing app-uiautomator.apk...", serial))
	return b.bridge.Install(ctx, serial, b.apkPath, true)
}

func (b *Bootstrapper) ensureAgentBinary(ctx context.Context, serial string) error {
	// ls exits non-zero for a missing file, the output is what matters
	output, _ := b.bridge.Shell(ctx, serial, "ls "+RemoteAgentPath)
	if !strings.Contains(strings.ToLower(output), "no such file") {
		return nil
	}

	b.reporter.Report(serial, fmt.Sprintf("[INFO] [%s] pushing atx-agent...", serial))
	if err := b.bridge.Push(ctx, serial, b.agentPath, RemoteAgentPath); err != nil {
		return err
	}

	if _, err := b.bridge.Shell(ctx, serial, "chmod 755 "+RemoteAgentPath); err != nil {
		return fmt.Errorf("failed to chmod atx-agent: %w", err)
	}
	return nil
}

// waitForAgent polls /info at most healthAttempts times, healthInterval apart.
func (b *Bootstrapper) waitForAgent(ctx context.Context, port int) (bool, error) {
	if err := b.sleep(ctx, b.startDelay); err != nil {
		return false, err
	}

	var lastErr error
	for attempt := 1; attempt <= b.healthAttempts; attempt++ {
		ok, err := b.ping(ctx, port)
		if err == nil && ok {
			return true, nil
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("empty response")
		}
		utils.Verbose("agent on port %d not ready (attempt %d/%d): %v", port, attempt, b.healthAttempts, lastErr)

		if attempt < b.healthAttempts {
			if err := b.sleep(ctx, b.healthInterval); err != nil {
				return false, err
			}
		}
	}

	return false, lastErr
}
