// Package main provides the entry point for the braille reading locator:
// it calibrates the page in a reading video and reports the character
// under each tracked fingertip.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"ricebraille/internal/app"
	"ricebraille/internal/calibration"
	"ricebraille/internal/config"
	"ricebraille/internal/locate"
	"ricebraille/internal/tracking"
	"ricebraille/internal/version"
	"ricebraille/ui/picker"
)

const appTitle = "Braille Reader Locator"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfgPath := flag.String("config", "", "YAML configuration file")
	videoPath := flag.String("video", "", "Reading session video")
	imagePath := flag.String("image", "", "Still image of the page instead of a video")
	pagePath := flag.String("page", "", "BRF file with the page text")
	samplesPath := flag.String("samples", "", "Fingertip samples CSV")
	calPath := flag.String("calibration", "", "Saved calibration JSON (skips detection)")
	fingerName := flag.String("finger", "", "Only report this finger (thumb, index, middle, ring, pinky)")
	onPage := flag.Bool("on-page", false, "Only report samples inside the printable area")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s\n", appTitle, version.String())
		return
	}
	log.Printf("Starting %s v%s", appTitle, version.Version)

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	if *pagePath != "" {
		cfg.PageFile = *pagePath
	}
	if cfg.PageFile == "" || *samplesPath == "" {
		fmt.Println("Usage: ricebraille -page <brf> -samples <csv> (-video <file> | -image <file> | -calibration <json>)")
		os.Exit(1)
	}

	state, err := app.NewState(cfg)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	defer state.Close()

	var hits int
	state.On(app.EventCalibrated, func(data interface{}) {
		meta := data.(*calibration.TransformMetadata)
		w, h := meta.RectifiedPixels()
		c := meta.Corners()
		log.Printf("Calibrated: page %dx%d px, TL %v BR %v", w, h, c.TopLeft, c.BottomRight)
	})
	state.On(app.EventCalibrationFailed, func(data interface{}) {
		if state.Session == nil {
			return
		}
		for _, a := range state.Session.Attempts() {
			log.Printf("  %s frame %d: %v", a.Stage, a.Frame, a.Err)
		}
	})
	state.On(app.EventReading, func(data interface{}) {
		r := data.(locate.Reading)
		if r.OnPage() {
			hits++
		} else if *onPage {
			return
		}
		fmt.Println(r)
	})

	if err := state.LoadPage(cfg.PageFile); err != nil {
		log.Fatalf("%v", err)
	}

	switch {
	case *videoPath != "":
		err = state.OpenVideo(*videoPath)
	case *imagePath != "":
		err = state.OpenImage(*imagePath)
	}
	if err != nil {
		log.Fatalf("Failed to open source: %v", err)
	}

	if *calPath != "" {
		meta, err := calibration.LoadMetadata(*calPath)
		if err != nil {
			log.Fatalf("%v", err)
		}
		state.SetCalibration(meta)
	} else {
		pk := picker.New(cfg.Manual.MaxWidth, cfg.Manual.MaxHeight)
		pk.Debug = cfg.Debug
		state.PointerSource = pk

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		_, err := state.Calibrate(ctx)
		stop()
		if err != nil {
			log.Fatalf("Calibration failed: %v", err)
		}
	}

	samples, err := tracking.ReadFile(*samplesPath, state.TrackingOptions())
	if err != nil {
		log.Fatalf("Failed to read samples: %v", err)
	}
	if *fingerName != "" {
		f, err := tracking.ParseFinger(*fingerName)
		if err != nil {
			log.Fatalf("%v", err)
		}
		samples = locate.Filter(samples, f)
	}

	readings, err := state.Locate(samples)
	if err != nil {
		log.Fatalf("Lookup failed: %v", err)
	}
	log.Printf("Resolved %d samples, %d on the printable area", len(readings), hits)
}
