//go:build ignore

// Package main generates a synthetic corpus for benchmarking index builds
// and searches.
// Usage: go run scripts/generate-test-corpus.go -docs 5000 -output testdata/bench/corpus.yaml
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/hybridsearch/internal/corpus"
)

var (
	numDocs    = flag.Int("docs", 1000, "Number of documents to generate")
	outputPath = flag.String("output", "testdata/bench/corpus.yaml", "Output file (.yaml or .json)")
	seed       = flag.Int64("seed", 42, "Random seed for reproducibility")
	sentences  = flag.Int("sentences", 6, "Sentences per document")
)

var topics = []string{
	"carbon pricing", "solar energy", "wind power", "glacier retreat",
	"ocean heat", "battery storage", "grid reliability", "heat pumps",
	"urban transit", "forest carbon", "methane leaks", "drought risk",
}

var subjects = []string{
	"Researchers", "Regulators", "Utilities", "City planners",
	"Field surveys", "Satellite records", "Industry groups", "Economists",
}

var verbs = []string{
	"report", "estimate", "question", "confirm", "model", "track", "project", "compare",
}

var objects = []string{
	"annual emissions", "installation costs", "regional demand", "peak load",
	"long-term trends", "seasonal variation", "policy outcomes", "supply chains",
}

var sources = []string{
	"climate-journal", "energy-review", "policy-notes", "field-reports", "data-digest",
}

func sentence(r *rand.Rand, topic string) string {
	return fmt.Sprintf("%s %s %s linked to %s.",
		subjects[r.Intn(len(subjects))],
		verbs[r.Intn(len(verbs))],
		objects[r.Intn(len(objects))],
		topic)
}

func generate(r *rand.Rand, n int) []corpus.Document {
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	docs := make([]corpus.Document, n)
	for i := range docs {
		topic := topics[r.Intn(len(topics))]
		parts := make([]string, *sentences)
		for j := range parts {
			parts[j] = sentence(r, topic)
		}
		docs[i] = corpus.Document{
			ID:        fmt.Sprintf("doc-%05d", i),
			Title:     fmt.Sprintf("Notes on %s #%d", topic, i),
			Source:    sources[r.Intn(len(sources))],
			Published: base.AddDate(0, 0, r.Intn(1800)).Format("2006-01-02"),
			Content:   strings.Join(parts, " "),
		}
	}
	return docs
}

func main() {
	flag.Parse()
	r := rand.New(rand.NewSource(*seed))

	docs := generate(r, *numDocs)

	if err := os.MkdirAll(filepath.Dir(*outputPath), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	if strings.EqualFold(filepath.Ext(*outputPath), ".json") {
		store, err := corpus.NewStore(docs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error building corpus: %v\n", err)
			os.Exit(1)
		}
		if err := store.WriteFile(*outputPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", *outputPath, err)
			os.Exit(1)
		}
	} else {
		data, err := yaml.Marshal(corpus.File{Documents: docs})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding corpus: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*outputPath, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", *outputPath, err)
			os.Exit(1)
		}
	}

	fmt.Printf("Generated %d documents in %s\n", len(docs), *outputPath)
}
