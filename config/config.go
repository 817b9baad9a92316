// Package config loads bumx settings from an ini file. Every key is optional;
// a missing file yields the built-in defaults.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"gopkg.in/ini.v1"
)

const DefaultPath = "bumx.ini"

const (
	defaultAPKURL   = "https://github.com/lowji194/AtxSharp/raw/refs/heads/main/app/app-uiautomator.apk"
	defaultAgentURL = "https://github.com/lowji194/AtxSharp/raw/refs/heads/main/app/atx-agent"
)

type Resources struct {
	Dir      string
	APKURL   string
	AgentURL string
}

// APKPath is the local helper package artifact.
func (r Resources) APKPath() string {
	return filepath.Join(r.Dir, "app-uiautomator.apk")
}

// AgentPath is the local atx-agent executable artifact.
func (r Resources) AgentPath() string {
	return filepath.Join(r.Dir, "atx-agent")
}

type Agent struct {
	PortBase       int
	RemotePort     int
	FindTimeout    time.Duration
	StartDelay     time.Duration
	HealthAttempts int
	HealthInterval time.Duration
}

// Pacing holds the fixed pauses of the job loop.
type Pacing struct {
	Popup        time.Duration
	Settle       time.Duration
	Job          time.Duration
	ErrorBackoff time.Duration
	Poll         time.Duration
}

type Config struct {
	Resources Resources
	Agent     Agent
	Pacing    Pacing
	LogFile   string
	Listen    string
}

func Default() *Config {
	return &Config{
		Resources: Resources{
			Dir:      "appatx",
			APKURL:   defaultAPKURL,
			AgentURL: defaultAgentURL,
		},
		Agent: Agent{
			PortBase:       7912,
			RemotePort:     7912,
			FindTimeout:    30 * time.Second,
			StartDelay:     2 * time.Second,
			HealthAttempts: 5,
			HealthInterval: time.Second,
		},
		Pacing: Pacing{
			Popup:        500 * time.Millisecond,
			Settle:       3 * time.Second,
			Job:          5 * time.Second,
			ErrorBackoff: 2 * time.Second,
			Poll:         500 * time.Millisecond,
		},
		LogFile: "bumx.log",
	}
}

// Load reads path on top of the defaults.
func Load(path string) (*Config, error) {
	file, err := ini.LooseLoad(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := Default()

	res := file.Section("resources")
	cfg.Resources.Dir = res.Key("dir").MustString(cfg.Resources.Dir)
	cfg.Resources.APKURL = res.Key("apk_url").MustString(cfg.Resources.APKURL)
	cfg.Resources.AgentURL = res.Key("agent_url").MustString(cfg.Resources.AgentURL)

	agent := file.Section("agent")
	cfg.Agent.PortBase = agent.Key("port_base").MustInt(cfg.Agent.PortBase)
	cfg.Agent.RemotePort = agent.Key("remote_port").MustInt(cfg.Agent.RemotePort)
	cfg.Agent.FindTimeout = agent.Key("find_timeout").MustDuration(cfg.Agent.FindTimeout)
	cfg.Agent.StartDelay = agent.Key("start_delay").MustDuration(cfg.Agent.StartDelay)
	cfg.Agent.HealthAttempts = agent.Key("health_attempts").MustInt(cfg.Agent.HealthAttempts)
	cfg.Agent.HealthInterval = agent.Key("health_interval").MustDuration(cfg.Agent.HealthInterval)

	pacing := file.Section("pacing")
	cfg.Pacing.Popup = pacing.Key("popup").MustDuration(cfg.Pacing.Popup)
	cfg.Pacing.Settle = pacing.Key("settle").MustDuration(cfg.Pacing.Settle)
	cfg.Pacing.Job = pacing.Key("job").MustDuration(cfg.Pacing.Job)
	cfg.Pacing.ErrorBackoff = pacing.Key("error_backoff").MustDuration(cfg.Pacing.ErrorBackoff)
	cfg.Pacing.Poll = pacing.Key("poll").MustDuration(cfg.Pacing.Poll)

	cfg.LogFile = file.Section("log").Key("file").MustString(cfg.LogFile)
	cfg.Listen = file.Section("server").Key("listen").MustString(cfg.Listen)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Agent.PortBase <= 0 || c.Agent.PortBase > 65535 {
		return fmt.Errorf("agent.port_base out of range: %d", c.Agent.PortBase)
	}
	if c.Agent.RemotePort <= 0 || c.Agent.RemotePort > 65535 {
		return fmt.Errorf("agent.remote_port out of range: %d", c.Agent.RemotePort)
	}
	if c.Agent.HealthAttempts < 1 {
		return fmt.Errorf("agent.health_attempts must be at least 1")
	}
	if c.Agent.FindTimeout <= 0 {
		return fmt.Errorf("agent.find_timeout must be positive")
	}
	return nil
}
