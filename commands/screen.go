package commands

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lowji194/bumx/devices/atx"
)

// newDriver connects to an agent already forwarded to a local port.
var newDriver = func(port int) *atx.Driver {
	return atx.NewLocalDriver(port, atx.DefaultFindTimeout)
}

// ScreenRequest addresses an agent by its forwarded local port.
type ScreenRequest struct {
	Port int `json:"port"`
}

func (r ScreenRequest) driver() (*atx.Driver, error) {
	if r.Port <= 0 {
		return nil, fmt.Errorf("agent port is required")
	}
	return newDriver(r.Port), nil
}

// ScreenInfoResponse represents the response for a screen info command
type ScreenInfoResponse struct {
	Serial         string `json:"serial,omitempty"`
	Model          string `json:"model,omitempty"`
	CurrentPackage string `json:"currentPackage,omitempty"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
}

func ScreenInfoCommand(ctx context.Context, req ScreenRequest) *CommandResponse {
	driver, err := req.driver()
	if err != nil {
		return NewErrorResponse(err)
	}

	info, err := driver.Info(ctx)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("error getting agent info: %v", err))
	}

	response := ScreenInfoResponse{
		Serial:         info.Serial,
		Model:          info.Model,
		CurrentPackage: info.CurrentPackage,
	}
	if info.Display != nil {
		response.Width = info.Display.Width
		response.Height = info.Display.Height
	}

	return NewSuccessResponse(response)
}

// ScreenshotRequest represents the parameters for taking a screenshot
type ScreenshotRequest struct {
	ScreenRequest
	OutputPath string `json:"outputPath,omitempty"` // file path, "-" for stdout, or empty for default naming
}

// ScreenshotResponse represents the response for a screenshot command
type ScreenshotResponse struct {
	Data     string `json:"data,omitempty"`     // base64 encoded image data
	FilePath string `json:"filePath,omitempty"` // path where file was saved
}

func ScreenshotCommand(ctx context.Context, req ScreenshotRequest) *CommandResponse {
	driver, err := req.driver()
	if err != nil {
		return NewErrorResponse(err)
	}

	imageBytes, err := driver.Screenshot(ctx)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("error taking screenshot: %v", err))
	}

	if req.OutputPath == "-" {
		return NewSuccessResponse(ScreenshotResponse{Data: base64.StdEncoding.EncodeToString(imageBytes)})
	}

	finalPath := req.OutputPath
	if finalPath == "" {
		timestamp := time.Now().Format("20060102150405")
		finalPath = fmt.Sprintf("screenshot-%d-%s.png", req.Port, timestamp)
	}

	finalPath, err = filepath.Abs(finalPath)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("invalid output path: %v", err))
	}

	if err := os.WriteFile(finalPath, imageBytes, 0o600); err != nil {
		return NewErrorResponse(fmt.Errorf("error writing file: %v", err))
	}

	return NewSuccessResponse(ScreenshotResponse{FilePath: finalPath})
}

// DumpResponse represents the response for a hierarchy dump
type DumpResponse struct {
	Source string `json:"source"`
}

func DumpCommand(ctx context.Context, req ScreenRequest) *CommandResponse {
	driver, err := req.driver()
	if err != nil {
		return NewErrorResponse(err)
	}

	source, err := driver.GetPageSource(ctx)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("failed to dump UI: %v", err))
	}

	return NewSuccessResponse(DumpResponse{Source: source})
}

// TapRequest taps either a point or the first element matching XPath.
type TapRequest struct {
	ScreenRequest
	X     int    `json:"x"`
	Y     int    `json:"y"`
	XPath string `json:"xpath,omitempty"`
}

type TapResponse struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func TapCommand(ctx context.Context, req TapRequest) *CommandResponse {
	driver, err := req.driver()
	if err != nil {
		return NewErrorResponse(err)
	}

	if req.XPath != "" {
		element, err := driver.FindElement(ctx, atx.ByXPath(req.XPath))
		if err != nil {
			return NewErrorResponse(err)
		}
		if err := element.Click(ctx); err != nil {
			return NewErrorResponse(fmt.Errorf("failed to tap element: %v", err))
		}
		return NewSuccessResponse(TapResponse{X: element.X, Y: element.Y})
	}

	if err := driver.Tap(ctx, req.X, req.Y); err != nil {
		return NewErrorResponse(fmt.Errorf("failed to tap: %v", err))
	}
	return NewSuccessResponse(TapResponse{X: req.X, Y: req.Y})
}
