package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"

	"github.com/eringen/spacetraveling"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(os.Args[2:])
	case "build":
		err = runBuild(os.Args[2:])
	case "import":
		err = runImport(os.Args[2:])
	case "paths":
		err = runPaths(os.Args[2:])
	case "version":
		fmt.Printf("spacetraveling %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads .env (if present) into the environment, then the
// SiteConfig from the environment.
func loadConfig() (spacetraveling.SiteConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return spacetraveling.SiteConfig{}, fmt.Errorf("load .env: %w", err)
	}
	return spacetraveling.LoadConfig()
}

func newLogger(cfg spacetraveling.SiteConfig, prefix string) *log.Logger {
	logger := log.New(prefix)
	logger.SetLevel(spacetraveling.ParseLogLevel(cfg.LogLevel))
	return logger
}

func printUsage() {
	fmt.Println(`spacetraveling - A blog front-end for a headless CMS, built with Go, Echo, and templ

Usage:
  spacetraveling <command> [arguments]

Commands:
  serve                 Serve the site over HTTP
  build [-out dir]      Export the site as static files
        [-banners]      Download and downscale banner images into the export
        [-rps n]        Limit requests per second to the content source
  import <file.yaml>    Load documents from a YAML file into the SQLite store
  paths                 Print the slug of every post
  version               Print the spacetraveling version
  help                  Show this help message

Configuration is read from the environment and from a .env file in the
working directory (PRISMIC_ENDPOINT, CONTENT_SOURCE, SITE_URL, ...).

Examples:
  PRISMIC_ENDPOINT=https://myrepo.cdn.prismic.io/api/v2 spacetraveling serve
  CONTENT_SOURCE=sqlite spacetraveling import posts.yaml
  spacetraveling build -out dist -banners`)
}
