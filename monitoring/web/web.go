// Package web includes the static pages of the monitor.
package web

import (
	"embed"
	"io/fs"
	"net/http"
	"os"
	"path"
	"runtime"
	"strings"
)

//go:embed dist/*
var staticAssets embed.FS

// GetAssets returns the static assets. With MMIODRV_MONITOR_DEV set they are
// served from the source tree so pages can be edited without rebuilding.
func GetAssets() http.FileSystem {
	if isDevelopmentMode() {
		_, file, _, ok := runtime.Caller(0)
		if !ok {
			panic("error getting path")
		}

		return http.Dir(path.Join(path.Dir(file), "dist"))
	}

	sub, err := fs.Sub(staticAssets, "dist")
	if err != nil {
		panic(err)
	}

	return http.FS(sub)
}

func isDevelopmentMode() bool {
	v, ok := os.LookupEnv("MMIODRV_MONITOR_DEV")
	if !ok {
		return false
	}

	return strings.ToLower(v) == "true" || v == "1"
}
