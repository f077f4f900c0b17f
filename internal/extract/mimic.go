package extract

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"rh-editor/internal/model"
)

// ScanMimics records, for every tag, the mimic files (*.g in dir) whose
// text contains the tag name. It returns the number of files scanned.
func ScanMimics(dir string, tags []model.Tag) (int, error) {
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		return 0, fmt.Errorf("%w: mimic directory %s", ErrSourceMissing, dir)
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.g"))
	if err != nil {
		return 0, err
	}
	sort.Strings(files)
	for i := range tags {
		tags[i].Mimics = []string{}
	}
	for _, p := range files {
		b, err := os.ReadFile(p)
		if err != nil {
			return 0, fmt.Errorf("read mimic %s: %w", p, err)
		}
		for i := range tags {
			if tags[i].Tag != "" && bytes.Contains(b, []byte(tags[i].Tag)) {
				tags[i].Mimics = append(tags[i].Mimics, filepath.Base(p))
			}
		}
	}
	return len(files), nil
}

// WithoutMimic returns the tags referenced by no mimic.
func WithoutMimic(tags []model.Tag) []model.Tag {
	var out []model.Tag
	for _, t := range tags {
		if len(t.Mimics) == 0 {
			out = append(out, t)
		}
	}
	return out
}
