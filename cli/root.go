package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/lowji194/bumx/config"
	"github.com/lowji194/bumx/devices"
	"github.com/lowji194/bumx/utils"
	"github.com/spf13/cobra"
)

const version = "dev"

// rootCmd represents the base command. Without a subcommand it starts a run.
var rootCmd = &cobra.Command{
	Use:   "bumx",
	Short: "Drive the bum job app on every attached Android device",
	Long:  `Installs and starts atx-agent on each attached Android device and loops through the bum app jobs on all of them in parallel.`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runFarm,
}

var shutdownHook = devices.NewShutdownHook()

func initConfig() {
	utils.SetVerbose(verbose)
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "path to the ini config file")
	rootCmd.PersistentFlags().StringVar(&adbPath, "adb", "adb", "path to the adb executable")
	addRunFlags(rootCmd)
}

// SetShutdownHook shares the process-wide cleanup hooks with the commands.
func SetShutdownHook(hook *devices.ShutdownHook) {
	shutdownHook = hook
}

// Execute runs the root command. Cancelling ctx stops a run in progress.
func Execute(ctx context.Context) error {
	// enable microseconds in logs
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	return rootCmd.ExecuteContext(ctx)
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

func newBridge() devices.Bridge {
	return devices.NewAdbBridge(adbPath)
}

// printJson is a helper function to print JSON responses
func printJson(data interface{}) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(jsonData))
}
