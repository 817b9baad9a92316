package cli

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/lowji194/bumx/commands"
	"github.com/spf13/cobra"
)

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "One-shot calls against a forwarded atx-agent",
	Long:  `Talks to an atx-agent that is already forwarded to a local port, for example by "bumx agent prepare".`,
}

var screenInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show device and display info reported by the agent",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		response := commands.ScreenInfoCommand(cmd.Context(), commands.ScreenRequest{Port: agentPort})
		return printResponse(response)
	},
}

var screenshotCmd = &cobra.Command{
	Use:   "screenshot",
	Short: "Take a screenshot",
	Long:  `Takes a screenshot and saves it as a PNG file. Use --output - to write the image to stdout.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := commands.ScreenshotRequest{
			ScreenRequest: commands.ScreenRequest{Port: agentPort},
			OutputPath:    screenshotOutputPath,
		}

		response := commands.ScreenshotCommand(cmd.Context(), req)

		// Handle stdout output for binary data
		if screenshotOutputPath == "-" && response.Status == "ok" {
			if screenshotResp, ok := response.Data.(commands.ScreenshotResponse); ok && screenshotResp.Data != "" {
				imageBytes, err := base64.StdEncoding.DecodeString(screenshotResp.Data)
				if err != nil {
					return fmt.Errorf("failed to decode image data: %v", err)
				}
				_, err = os.Stdout.Write(imageBytes)
				if err != nil {
					return fmt.Errorf("failed to write to stdout: %v", err)
				}
				return nil
			}
		}

		return printResponse(response)
	},
}

var screenDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump the UI hierarchy XML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		response := commands.DumpCommand(cmd.Context(), commands.ScreenRequest{Port: agentPort})
		return printResponse(response)
	},
}

var screenTapCmd = &cobra.Command{
	Use:   "tap",
	Short: "Tap a point or the first element matching an XPath",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := commands.TapRequest{
			ScreenRequest: commands.ScreenRequest{Port: agentPort},
			X:             tapX,
			Y:             tapY,
			XPath:         tapXPath,
		}
		response := commands.TapCommand(cmd.Context(), req)
		return printResponse(response)
	},
}

func printResponse(response *commands.CommandResponse) error {
	printJson(response)
	if response.Status == "error" {
		return fmt.Errorf("%s", response.Error)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(screenCmd)
	screenCmd.AddCommand(screenInfoCmd, screenshotCmd, screenDumpCmd, screenTapCmd)

	screenCmd.PersistentFlags().IntVar(&agentPort, "port", 7912, "local port the agent is forwarded to")

	screenshotCmd.Flags().StringVarP(&screenshotOutputPath, "output", "o", "", "output file path, - for stdout")

	screenTapCmd.Flags().IntVar(&tapX, "x", 0, "x coordinate")
	screenTapCmd.Flags().IntVar(&tapY, "y", 0, "y coordinate")
	screenTapCmd.Flags().StringVar(&tapXPath, "xpath", "", "tap the center of the first element matching this xpath instead")
}
