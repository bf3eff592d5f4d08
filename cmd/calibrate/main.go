// Command calibrate locates a braille page in a video or still image and
// prints the pixel-to-page transform.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"ricebraille/internal/app"
	"ricebraille/internal/config"
	"ricebraille/internal/page"
	"ricebraille/internal/version"
	"ricebraille/ui/picker"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfgPath := flag.String("config", "", "YAML configuration file")
	videoPath := flag.String("video", "", "Path to video file")
	imagePath := flag.String("image", "", "Path to still image (PNG, JPEG, TIFF, BMP)")
	layoutName := flag.String("layout", "", "Registered page layout name")
	layoutFile := flag.String("layout-file", "", "JSON page layout file")
	corners := flag.String("corners", "", "Manual corners as x,y;x,y;x,y;x,y (skips the picker)")
	noManual := flag.Bool("no-manual", false, "Disable the manual corner picker")
	debugDir := flag.String("debug-dir", "", "Write corner and rectified overlays here")
	save := flag.String("save", "", "Save the calibration as JSON")
	pagePath := flag.String("page", "", "BRF page for -point lookups")
	point := flag.String("point", "", "Pixel x,y to resolve after calibration")
	debug := flag.Bool("debug", false, "Verbose detection logging")
	listLayouts := flag.Bool("layouts", false, "List registered layouts and exit")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *listLayouts {
		for _, name := range page.ListLayouts() {
			fmt.Println(name)
		}
		return
	}
	if (*videoPath == "") == (*imagePath == "") {
		fmt.Println("Usage: calibrate (-video <file> | -image <file>) [-config <yaml>] [-corners x,y;...] [-point x,y -page <brf>]")
		os.Exit(1)
	}

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
	}
	if *layoutName != "" {
		cfg.Layout = *layoutName
	}
	if *layoutFile != "" {
		cfg.LayoutFile = *layoutFile
	}
	if *corners != "" {
		pts, err := app.ParseCorners(*corners)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid -corners: %v\n", err)
			os.Exit(1)
		}
		cfg.Manual.Corners = pts
	}
	if *noManual {
		cfg.Manual.Enabled = false
	}
	if *debugDir != "" {
		cfg.DebugDir = *debugDir
	}
	if *debug {
		cfg.Debug = true
	}

	state, err := app.NewState(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	defer state.Close()

	pk := picker.New(cfg.Manual.MaxWidth, cfg.Manual.MaxHeight)
	pk.Debug = cfg.Debug
	state.PointerSource = pk

	if *videoPath != "" {
		err = state.OpenVideo(*videoPath)
	} else {
		err = state.OpenImage(*imagePath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open source: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("=== Calibrating %s ===\n", state.SourcePath)
	meta, err := state.Calibrate(ctx)
	for _, a := range state.Session.Attempts() {
		status := "ok"
		if a.Err != nil {
			status = a.Err.Error()
		}
		fmt.Printf("  %-6s frame %5d: %s\n", a.Stage, a.Frame, status)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Calibration failed: %v\n", err)
		os.Exit(1)
	}

	c := meta.Corners()
	rs, ds := meta.RectifiedSize(), meta.DesiredSize()
	h := meta.Matrix().Rows()
	fmt.Printf("\n=== Result (session %s) ===\n", state.Session.ID)
	fmt.Printf("Corners: TL(%.1f,%.1f) TR(%.1f,%.1f) BR(%.1f,%.1f) BL(%.1f,%.1f)\n",
		c.TopLeft.X, c.TopLeft.Y, c.TopRight.X, c.TopRight.Y,
		c.BottomRight.X, c.BottomRight.Y, c.BottomLeft.X, c.BottomLeft.Y)
	fmt.Printf("Rectified: %.1f x %.1f px\n", rs.Width, rs.Height)
	fmt.Printf("Page: %.4f x %.4f in\n", ds.Width, ds.Height)
	fmt.Println("Homography:")
	for _, row := range h {
		fmt.Printf("  [% .6e % .6e % .6e]\n", row[0], row[1], row[2])
	}

	if *save != "" {
		if err := meta.SaveToFile(*save); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to save calibration: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Saved calibration to %s\n", *save)
	}

	if *point == "" {
		return
	}
	pt, err := app.ParsePoint(*point)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid -point: %v\n", err)
		os.Exit(1)
	}
	if *pagePath == "" {
		phys, ok := meta.MapPoint(pt)
		if !ok {
			fmt.Println("Point projects to infinity")
			return
		}
		fmt.Printf("Point (%.1f,%.1f) -> (%.4f,%.4f) in, cell %s\n",
			pt.X, pt.Y, phys.X, phys.Y, state.Layout.Quantize(phys))
		return
	}
	if err := state.LoadPage(*pagePath); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	r, err := state.LocatePoint(pt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Lookup failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(r)
}
