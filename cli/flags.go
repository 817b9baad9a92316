package cli

import "time"

var (
	verbose    bool
	configPath string
	adbPath    string

	// all device commands
	deviceId string

	// for run command
	assumeYes   bool
	listenAddr  string
	enableCORS  bool
	findTimeout time.Duration
	portBase    int

	// for screen commands
	agentPort            int
	preparePort          int
	screenshotOutputPath string
	tapX                 int
	tapY                 int
	tapXPath             string
)
