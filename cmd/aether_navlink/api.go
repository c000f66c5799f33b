package main

import (
	"github.com/ProjectAether/navlink/internal/api"
	"github.com/ProjectAether/navlink/internal/config"
)

// checkServerStatus logs whether the link server answers its health check.
func checkServerStatus() {
	cfg := config.GetAPIConfig()
	if cfg.ServerURL == "" {
		return
	}
	if err := api.New(cfg.ServerURL, cfg.APIKey).Healthcheck(); err != nil {
		Logger.Info("Link server offline", "url", cfg.ServerURL, "reason", err)
		return
	}
	Logger.Info("Link server online", "url", cfg.ServerURL)
}

// uploadExport sends an exported link file to the link server when uploads
// are enabled.
func uploadExport(path string, linkCount int) {
	cfg := config.GetAPIConfig()
	if path == "" || !cfg.UploadOnShutdown || cfg.ServerURL == "" {
		return
	}
	err := api.New(cfg.ServerURL, cfg.APIKey).Upload(path, api.UploadMetadata{
		Level:            sessionCtx.Level(),
		ExtensionVersion: CurrentExtensionVersion,
		LinkCount:        linkCount,
	})
	if err != nil {
		Logger.Error("Failed to upload link export", "path", path, "error", err)
		return
	}
	Logger.Info("Uploaded link export", "path", path, "links", linkCount)
}
