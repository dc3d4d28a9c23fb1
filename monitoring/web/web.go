// Package web serves the status page of the monitoring server.
package web

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
)

//go:embed dist/*
var staticAssets embed.FS

// AssetDirEnv names the environment variable that points the server to a
// directory of pages to serve instead of the embedded ones.
const AssetDirEnv = "SEGMMU_MONITOR_ASSETS"

// Assets returns the pages of the status page. If SEGMMU_MONITOR_ASSETS names
// a directory, the pages are read from it so that they can be edited without
// rebuilding.
func Assets() (http.FileSystem, error) {
	if dir, ok := os.LookupEnv(AssetDirEnv); ok && dir != "" {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("monitor assets: %w", err)
		}

		if !info.IsDir() {
			return nil, fmt.Errorf("monitor assets: %s is not a directory", dir)
		}

		return http.Dir(dir), nil
	}

	subFS, err := fs.Sub(staticAssets, "dist")
	if err != nil {
		return nil, err
	}

	return http.FS(subFS), nil
}

// Handler serves the pages. The page polls the API, so it is never cached.
// It falls back to the embedded pages if the asset directory is unusable.
func Handler() http.Handler {
	assets, err := Assets()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v, serving the embedded pages\n", err)

		subFS, _ := fs.Sub(staticAssets, "dist")
		assets = http.FS(subFS)
	}

	files := http.FileServer(assets)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		files.ServeHTTP(w, r)
	})
}
