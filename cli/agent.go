package cli

import (
	"fmt"
	"os"

	"github.com/lowji194/bumx/commands"
	"github.com/lowji194/bumx/reporter"
	"github.com/spf13/cobra"
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "atx-agent management commands",
}

var agentPrepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Install and start atx-agent on one device",
	Long:  `Installs the uiautomator helper and atx-agent when missing, starts both and forwards the agent to a local port.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		req := commands.AgentPrepareRequest{
			DeviceID: deviceId,
			Port:     preparePort,
		}

		// progress goes to stderr so stdout stays plain JSON
		progress := reporter.New(os.Stderr, 1)
		response := commands.AgentPrepareCommand(cmd.Context(), newBridge(), progress, cfg, req)
		printJson(response)
		if response.Status == "error" {
			return fmt.Errorf("%s", response.Error)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(agentCmd)
	agentCmd.AddCommand(agentPrepareCmd)

	agentPrepareCmd.Flags().StringVar(&deviceId, "device", "", "serial of the device to prepare")
	agentPrepareCmd.Flags().IntVar(&preparePort, "port", 0, "local port to forward the agent to (defaults to the port base)")
}
