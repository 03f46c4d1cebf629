// worldmap renders an exported world as an ASCII map with its plot
// summary. It accepts both the YAML export and the binary archive
// record.
//
// Usage:
//
//	go run ./cmd/worldmap -input world.yaml
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/oisee/emergent-adventure/internal/world"
	"github.com/oisee/emergent-adventure/internal/world/export"
)

func main() {
	inputFile := flag.String("input", "world.yaml", "Path to a world export (YAML or binary record)")
	outputFile := flag.String("output", "", "Output file (empty for stdout)")
	showLegend := flag.Bool("legend", true, "Show legend")
	markAnchors := flag.Bool("anchors", true, "Mark plot anchors with @")
	flag.Parse()

	data, err := os.ReadFile(*inputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}

	w, err := decode(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing world: %v\n", err)
		os.Exit(1)
	}

	var output strings.Builder
	output.WriteString(fmt.Sprintf("World Map (Seed: %d, %dx%d, Genre: %s)\n",
		w.Params.Seed, w.Params.Width, w.Params.Height, w.Params.Genre))
	output.WriteString(strings.Repeat("=", 50) + "\n\n")
	output.WriteString(w.RenderMap(*markAnchors))
	output.WriteString("\n")
	output.WriteString(w.Summary())

	if *showLegend {
		output.WriteString("\n")
		output.WriteString(world.Legend())
	}

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, []byte(output.String()), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Map written to %s\n", *outputFile)
	} else {
		fmt.Print(output.String())
	}
}

// decode sniffs the record format: archive records open with the binary
// magic, everything else is treated as YAML.
func decode(data []byte) (*world.WorldState, error) {
	if bytes.HasPrefix(data, []byte("EAWD")) {
		return export.Decode(data)
	}
	return export.DecodeYAML(data)
}
