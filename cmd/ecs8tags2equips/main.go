// Command ecs8tags2equips builds equips2.json from the point list
// spreadsheet export.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"regexp"

	"github.com/joho/godotenv"

	"rh-editor/internal/extract"
	"rh-editor/internal/output"
)

func main() {
	var (
		xlsx    string
		sheet   string
		pattern string
		outPath string
	)
	_ = godotenv.Load()
	def := os.Getenv("ECS8_POINTS")
	if def == "" {
		def = filepath.Join("resources", "Points.xlsx")
	}
	flag.StringVar(&xlsx, "xlsx", def, "point list spreadsheet")
	flag.StringVar(&sheet, "sheet", "", "worksheet name (default: first sheet)")
	flag.StringVar(&pattern, "pattern", extract.DefaultSheetPattern.String(), "regular expression on Designation")
	flag.StringVar(&outPath, "o", "equips2.json", "output equipment file (.json or .yaml)")
	flag.Parse()

	re, err := regexp.Compile(pattern)
	if err != nil {
		log.Fatalf("bad pattern: %v", err)
	}
	rows, err := extract.ReadSheet(xlsx, sheet)
	if err != nil {
		log.Fatalf("read points: %v", err)
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)
	res := extract.Extract(extract.SpreadsheetRows(rows), extract.Filter{Match: re}, extract.DefaultMapping(), logger)
	if err := output.WriteEquipment(outPath, res.Records); err != nil {
		log.Fatalf("write %s: %v", outPath, err)
	}
	log.Printf("%d rows, %d matched, %d skipped: saved %d equipment to %s",
		len(rows), len(rows)-res.Ineligible, len(res.Skipped), len(res.Records), outPath)
}
