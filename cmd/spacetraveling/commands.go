package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/eringen/spacetraveling"
	"github.com/eringen/spacetraveling/views"
)

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	static := fs.String("static", "public", "directory of user static assets served under /public/")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	src, closeSource, err := spacetraveling.NewSource(cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	app := spacetraveling.New(cfg, src, views.Default(cfg), spacetraveling.WithStaticDir(*static))
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	app.Echo.Logger.Infof("serving %s from %s on %s", cfg.ContentType, cfg.Source, cfg.Addr)
	return app.Run(ctx)
}

func runBuild(args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	out := fs.String("out", "dist", "output directory")
	banners := fs.Bool("banners", false, "download banner images into the export")
	rps := fs.Float64("rps", 0, "requests per second to the content source (0 = unlimited)")
	workers := fs.Int("workers", 4, "posts rendered concurrently")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	src, closeSource, err := spacetraveling.NewSource(cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger(cfg, "build")
	exp := &spacetraveling.Exporter{
		Config:            cfg,
		Source:            src,
		Views:             views.Default(cfg),
		OutDir:            *out,
		Banners:           *banners,
		HTTPClient:        &http.Client{Timeout: cfg.RequestTimeout},
		RequestsPerSecond: *rps,
		Workers:           *workers,
		Logger:            logger,
	}
	stats, err := exp.Export(ctx)
	logger.Infof("wrote %d posts and %d listing pages to %s (%d failed)", stats.Posts, stats.MorePages+1, *out, stats.Failed)
	return err
}

func runImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: spacetraveling import <file.yaml>")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer f.Close()

	store, err := spacetraveling.NewStore(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.Import(context.Background(), f, cfg.ContentType)
	if err != nil {
		return err
	}
	newLogger(cfg, "import").Infof("imported %d documents into %s", n, cfg.DatabasePath)
	return nil
}

func runPaths(args []string) error {
	fs := flag.NewFlagSet("paths", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	src, closeSource, err := spacetraveling.NewSource(cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	site := &spacetraveling.Site{Source: src, ContentType: cfg.ContentType, PageSize: cfg.PageSize}
	slugs, err := site.DetailPaths(context.Background())
	if err != nil {
		return err
	}
	for _, slug := range slugs {
		fmt.Println(spacetraveling.PostPath(slug))
	}
	return nil
}
