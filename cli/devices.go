package cli

import (
	"fmt"

	"github.com/lowji194/bumx/commands"
	"github.com/spf13/cobra"
)

var (
	showAllDevices bool
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List connected devices",
	Long:  `List the Android devices adb can see. Offline and unauthorized devices are hidden unless --all is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		response := commands.DevicesCommand(cmd.Context(), newBridge(), showAllDevices)
		printJson(response)
		if response.Status == "error" {
			return fmt.Errorf("%s", response.Error)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)

	devicesCmd.Flags().BoolVar(&showAllDevices, "all", false, "show all devices including offline ones")
}
