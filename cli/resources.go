package cli

import (
	"fmt"

	"github.com/lowji194/bumx/commands"
	"github.com/spf13/cobra"
)

var resourcesCmd = &cobra.Command{
	Use:   "resources",
	Short: "Download the atx artifacts",
	Long:  `Downloads app-uiautomator.apk and atx-agent into the resource directory when they are missing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		response := commands.ResourcesCommand(cmd.Context(), cfg)
		printJson(response)
		if response.Status == "error" {
			return fmt.Errorf("%s", response.Error)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resourcesCmd)
}
