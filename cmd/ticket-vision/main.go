package main

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"log"
	"os"

	"github.com/disintegration/imaging"

	img "github.com/ironsheep/ticket-vision/internal/imaging"
	"github.com/ironsheep/ticket-vision/internal/ocr"
	"github.com/ironsheep/ticket-vision/internal/scan"
	"github.com/ironsheep/ticket-vision/internal/server"
	"github.com/ironsheep/ticket-vision/internal/ticket"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("ticket-vision %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printUsage()
			return
		case "validate":
			runValidate(os.Args[2:])
			return
		case "analyze":
			runAnalyze(os.Args[2:])
			return
		}
	}

	// Configure logging to stderr (stdout is for the JSON-RPC stream)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if os.Getenv("TICKET_VISION_LOG_LEVEL") == "debug" {
		log.Printf("ticket-vision v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	srv := server.New()
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func printUsage() {
	fmt.Println("ticket-vision - extract bingo ticket grids from photographs")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  ticket-vision                        Serve JSON-RPC over stdin/stdout")
	fmt.Println("  ticket-vision validate <image> [out.png]")
	fmt.Println("                                       Fast ticket detection; prints JSON and")
	fmt.Println("                                       optionally writes the preview overlay")
	fmt.Println("  ticket-vision analyze <image> [out.png]")
	fmt.Println("                                       Full analysis through the recognizer;")
	fmt.Println("                                       prints ticket JSON and optionally writes")
	fmt.Println("                                       the annotated composite sheet")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  TICKET_VISION_LOG_LEVEL=debug    Enable debug logging")
}

func runValidate(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: ticket-vision validate <image> [overlay.png]")
		os.Exit(2)
	}
	src := mustDecode(args[0])

	v := scan.Validate(src)
	printJSON(map[string]interface{}{
		"is_valid":     v.IsValid,
		"message":      v.Message,
		"ticket_count": v.TicketCount,
	})
	if len(args) > 1 {
		mustSave(v.Overlay, args[1])
	}
	if !v.IsValid {
		os.Exit(1)
	}
}

func runAnalyze(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: ticket-vision analyze <image> [debug.png]")
		os.Exit(2)
	}
	src := mustDecode(args[0])

	engine, err := ocr.Default()
	if err != nil {
		fmt.Fprintf(os.Stderr, "recognition engine unavailable: %v\n", err)
		os.Exit(1)
	}

	a, err := scan.Analyze(context.Background(), src, engine)
	if err != nil {
		fmt.Fprintf(os.Stderr, "analysis failed: %v\n", err)
		os.Exit(1)
	}

	results := a.Results
	if results == nil {
		results = []ticket.Result{}
	}
	printJSON(results)
	if len(args) > 1 {
		mustSave(a.Debug, args[1])
	}
}

func mustDecode(path string) image.Image {
	src, err := img.DecodeFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	return src
}

func mustSave(m image.Image, path string) {
	if err := imaging.Save(m, path); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write %s: %v\n", path, err)
		os.Exit(1)
	}
}

func printJSON(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode result: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(b))
}
