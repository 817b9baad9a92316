package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/lowji194/bumx/config"
	"github.com/lowji194/bumx/resources"
)

// ResourcesCommand downloads missing artifacts. It fails when any artifact is
// still missing afterwards.
func ResourcesCommand(ctx context.Context, cfg *config.Config) *CommandResponse {
	artifacts := resources.DefaultArtifacts(cfg.Resources)
	results := resources.EnsureResources(ctx, cfg.Resources.Dir, artifacts)

	if missing := resources.Missing(artifacts); len(missing) > 0 {
		return &CommandResponse{
			Status: "error",
			Data:   map[string]interface{}{"resources": results},
			Error:  fmt.Sprintf("missing resources: %s", strings.Join(missing, ", ")),
		}
	}

	return NewSuccessResponse(map[string]interface{}{
		"resources": results,
	})
}
