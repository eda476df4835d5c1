// Command isoform samples the boundary of a CSG solid defined in a
// Lisp model file and writes the classified point sets as JSON for an
// external viewer.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
)

func main() {
	var (
		in      = flag.String("in", "", "model source file (required)")
		out     = flag.String("out", "", "output JSON file (default stdout)")
		density = flag.Float64("density", 0, "override cloud density (points per unit volume)")
		seed    = flag.Int64("seed", 0, "override the random seed")
		workers = flag.Int("workers", 0, "override the sampling worker count")
	)
	flag.Parse()

	if *in == "" {
		flag.Usage()
		os.Exit(2)
	}

	source, err := os.ReadFile(*in)
	if err != nil {
		log.Fatalf("read %s: %v", *in, err)
	}

	app := NewApp()
	if *density > 0 {
		app.density = density
	}
	if *seed != 0 {
		app.seed = seed
	}
	if *workers > 0 {
		app.workers = workers
	}

	result := app.Evaluate(string(source))

	for _, w := range result.Warnings {
		log.Printf("warning: %s", w)
	}
	for _, e := range result.Errors {
		if e.Line > 0 {
			log.Printf("error: line %d: %s", e.Line, e.Message)
		} else {
			log.Printf("error: %s", e.Message)
		}
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("encode result: %v", err)
	}

	if *out == "" {
		os.Stdout.Write(data)
		os.Stdout.Write([]byte("\n"))
	} else if err := os.WriteFile(*out, data, 0o644); err != nil {
		log.Fatalf("write %s: %v", *out, err)
	}

	var points int
	for _, ps := range result.PointSets {
		points += len(ps.Points) / 3
	}
	log.Printf("%d point sets, %d points, %d errors", len(result.PointSets), points, len(result.Errors))

	if len(result.Errors) > 0 {
		os.Exit(1)
	}
}
