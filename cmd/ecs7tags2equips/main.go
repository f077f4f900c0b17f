// Command ecs7tags2equips builds equips.json from the converted tag
// database and optionally exports the tag dictionary.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"rh-editor/internal/extract"
	"rh-editor/internal/model"
	"rh-editor/internal/output"
)

func main() {
	var (
		dbDir     string
		pattern   string
		outPath   string
		allPoints bool
		tagsCSV   string
		tagsYAML  string
		telegraf  string
		mimicDir  string
		noMimic   bool
	)
	_ = godotenv.Load()
	flag.StringVar(&dbDir, "db", envOr("ECS7_DB_DIR", filepath.Join("resources", "FlsaProDb")), "directory of the converted *.sqlite tag database")
	flag.StringVar(&pattern, "pattern", extract.DefaultTagPattern, "SQL LIKE pattern of tag names")
	flag.StringVar(&outPath, "o", "equips.json", "output equipment file (.json or .yaml)")
	flag.BoolVar(&allPoints, "all", false, "include virtual points (PointId <= 0)")
	flag.StringVar(&tagsCSV, "csv", "", "also write the tag dictionary as CSV (e.g. tags.csv)")
	flag.StringVar(&tagsYAML, "yaml", "", "also write the tag dictionary as YAML (e.g. tags.yaml)")
	flag.StringVar(&telegraf, "telegraf", "", "also write the telegraf OPC UA node list (e.g. tags.telegraf.conf)")
	flag.StringVar(&mimicDir, "mimics", "", "scan *.g mimic files in this directory for tag references")
	flag.BoolVar(&noMimic, "without-mimic", false, "with -mimics: export only tags referenced by no mimic")
	flag.Parse()

	tdb, err := extract.OpenTagDB(dbDir)
	if err != nil {
		log.Fatalf("open tag database: %v", err)
	}
	defer tdb.Close()

	ctx := context.Background()
	rows, err := tdb.Points(ctx, pattern, !allPoints)
	if err != nil {
		log.Fatalf("query tags: %v", err)
	}
	log.Printf("%d tags match %q (only analog points: %t)", len(rows), pattern, !allPoints)

	logger := log.New(os.Stderr, "", log.LstdFlags)
	f := extract.Filter{Exclude: extract.ReservedSuffixes}
	res := extract.Extract(extract.DatabaseRows(rows), f, extract.DefaultMapping(), logger)
	if err := output.WriteEquipment(outPath, res.Records); err != nil {
		log.Fatalf("write %s: %v", outPath, err)
	}
	log.Printf("saved %d equipment to %s (%d skipped)", len(res.Records), outPath, len(res.Skipped))

	if tagsCSV == "" && tagsYAML == "" && telegraf == "" && mimicDir == "" {
		return
	}
	tags := tdb.Tags(ctx, rows, extract.DefaultMapping())
	if mimicDir != "" {
		n, err := extract.ScanMimics(mimicDir, tags)
		if err != nil {
			log.Fatalf("scan mimics: %v", err)
		}
		orphans := extract.WithoutMimic(tags)
		log.Printf("scanned %d mimics, %d tags without mimic", n, len(orphans))
		for _, t := range orphans {
			log.Printf("  no mimic: %s %s", t.Tag, strings.TrimSpace(t.DescEng))
		}
		if noMimic {
			tags = orphans
		}
	}
	exports := []struct {
		path  string
		write func(string, []model.Tag) error
	}{
		{tagsCSV, output.WriteTagsCSV},
		{tagsYAML, output.WriteTagsYAML},
		{telegraf, output.WriteTelegraf},
	}
	for _, e := range exports {
		if e.path == "" {
			continue
		}
		if err := e.write(e.path, tags); err != nil {
			log.Fatalf("write %s: %v", e.path, err)
		}
		log.Printf("saved %d tags to %s", len(tags), e.path)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
