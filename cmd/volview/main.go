package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"volview/internal/models"
	"volview/pkg/config"
	"volview/pkg/logging"
	"volview/pkg/view"
	"volview/pkg/visualization"
	"volview/pkg/volumeio"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "volview.yaml", "Path to YAML configuration file")
	writeConfig := flag.Bool("write-config", false, "Write the default configuration to -config and exit")
	maskPath := flag.String("mask", "", "Segmentation volume to overlay on the image")
	logLevel := flag.String("log-level", "", "Override the configured log level (debug, info, warning, error, silent)")
	cachePath := flag.String("cache", "", "Write the image volume to this raw cache (.vol) and exit")
	extractSlices := flag.Bool("extract-slices", false, "Extract the image volume as JPEG slices along all axes and exit")
	slicesDir := flag.String("slices-dir", "slices", "Directory to save extracted slices")
	screenshotDir := flag.String("screenshot-dir", ".", "Directory for screenshots")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [image.nii[.gz] | image.hdr | image.vol | picture.png ...]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if *writeConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if err := cfg.Log.SetLogger(); err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}
	defer logging.Shutdown()

	opts := cfg.LoaderOptions()
	if *maskPath != "" {
		opts.Classify = volumeio.AnyClassifier(opts.Classify, volumeio.PathClassifier(*maskPath))
	}
	loader := volumeio.NewLoader(opts)

	files := flag.Args()
	if *maskPath != "" {
		files = append(files, *maskPath)
	}

	if *cachePath != "" || *extractSlices {
		if err := exportVolume(loader, cfg.ViewParams(), flag.Args(), *cachePath, *extractSlices, *slicesDir); err != nil {
			log.Fatalf("Export failed: %v", err)
		}
		return
	}

	fmt.Println("================================")
	fmt.Println("VOLVIEW: SLICE VIEWER FOR VOLUMETRIC SCANS")
	fmt.Printf("  %s: cycle axis   %s: reset view   %s: screenshot\n",
		cfg.Keys.CycleAxis, cfg.Keys.ResetView, cfg.Keys.Screenshot)
	fmt.Println("  wheel: slice   shift+wheel: zoom   left drag: pan   right drag: windowing")
	fmt.Println("================================")

	params := cfg.ViewParams()
	store := visualization.NewTextureStore()
	renderer := visualization.NewRenderer(store, cfg.Window.Width, cfg.Window.Height, float32(cfg.Overlay.Opacity))
	views := view.NewDispatcher(
		view.NewVolumeView(params, loader, store),
		view.NewPlanarView(params, store),
	)
	defer views.Close()

	for _, f := range files {
		views.OnLoad(f)
	}

	game := &hostGame{
		views:         views,
		renderer:      renderer,
		width:         cfg.Window.Width,
		height:        cfg.Window.Height,
		screenshotKey: cfg.Keys.Screenshot,
		screenshotDir: *screenshotDir,
	}
	if err := runWindow(game, cfg.Window.Title); err != nil {
		log.Fatalf("Viewer failed: %v", err)
	}
}

// exportVolume runs the headless modes on the first volume in files
func exportVolume(loader *volumeio.Loader, params view.Params, files []string, cachePath string, extract bool, slicesDir string) error {
	if len(files) == 0 {
		return fmt.Errorf("no input volume given")
	}

	startTime := time.Now()
	vol, err := loader.Load(files[0])
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %s in %.2f seconds\n", files[0], time.Since(startTime).Seconds())

	if cachePath != "" {
		if err := volumeio.SaveCache(cachePath, vol); err != nil {
			return err
		}
		fmt.Printf("Volume cache saved to: %s\n", cachePath)
	}

	if extract {
		win := params.ImageWindow
		if vol.IsMask {
			win = params.MaskWindow
		}
		fmt.Println("\nExtracting slices along all axes...")
		for _, axis := range []models.Axis{models.Sagittal, models.Coronal, models.Axial} {
			axisDir := filepath.Join(slicesDir, axis.String())
			fmt.Printf("Saving %s slices to: %s\n", axis, axisDir)

			if err := visualization.SaveSliceSequence(vol, axis, win, axisDir); err != nil {
				logging.Warningf("Failed to save %s slices: %v", axis, err)
			}
		}
		fmt.Println("Slice extraction completed!")
	}
	return nil
}
