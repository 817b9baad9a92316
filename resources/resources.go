// Package resources makes sure the atx artifacts pushed to devices exist locally.
package resources

import (
	"context"

	"github.com/lowji194/bumx/config"
	"github.com/lowji194/bumx/utils"
)

// Artifact is a local file backed by a public download URL.
type Artifact struct {
	Path  string `json:"path"`
	URL   string `json:"url"`
	Label string `json:"label"`
}

// Result is the outcome for a single artifact.
type Result struct {
	Label      string `json:"label"`
	Path       string `json:"path"`
	Downloaded bool   `json:"downloaded"`
	Error      string `json:"error,omitempty"`
}

func DefaultArtifacts(res config.Resources) []Artifact {
	return []Artifact{
		{Path: res.APKPath(), URL: res.APKURL, Label: "app-uiautomator.apk"},
		{Path: res.AgentPath(), URL: res.AgentURL, Label: "atx-agent"},
	}
}

// EnsureResources downloads every artifact missing under dir. A failed
// download is logged and recorded but never stops the remaining ones.
func EnsureResources(ctx context.Context, dir string, artifacts []Artifact) []Result {
	created, err := utils.EnsureDir(dir)
	if err != nil {
		utils.Error("failed to create resource directory %s: %v", dir, err)
	} else if created {
		utils.Info("created resource directory %s", dir)
	}

	results := make([]Result, 0, len(artifacts))
	for _, artifact := range artifacts {
		result := Result{Label: artifact.Label, Path: artifact.Path}

		if utils.FileExists(artifact.Path) {
			utils.Verbose("found %s at %s", artifact.Label, artifact.Path)
			results = append(results, result)
			continue
		}

		utils.Info("downloading %s from %s", artifact.Label, artifact.URL)
		if err := utils.DownloadFile(ctx, artifact.URL, artifact.Path); err != nil {
			utils.Error("failed to download %s: %v", artifact.Label, err)
			result.Error = err.Error()
		} else {
			utils.Info("downloaded %s", artifact.Label)
			result.Downloaded = true
		}

		results = append(results, result)
	}

	return results
}

// Missing returns the labels of artifacts that are still absent.
func Missing(artifacts []Artifact) []string {
	var missing []string
	for _, artifact := range artifacts {
		if !utils.FileExists(artifact.Path) {
			missing = append(missing, artifact.Label)
		}
	}
	return missing
}
