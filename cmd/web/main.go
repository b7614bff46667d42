// Command web runs the solar resource dashboard server.
package main

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"
	"os"

	"solarcli/internal/app"
)

//go:embed static
var staticFS embed.FS

func main() {
	frontend, err := fs.Sub(staticFS, "static")
	if err != nil {
		slog.Error("failed to open embedded frontend", "error", err)
		os.Exit(1)
	}

	application, err := app.NewApplication(frontend)
	if err != nil {
		slog.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(context.Background()); err != nil {
		application.Logger.Error("server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
