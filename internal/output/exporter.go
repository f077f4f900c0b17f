// Package output writes the equipment configuration and the tag dictionary
// exports produced by the extraction tools.
package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"rh-editor/internal/model"
)

// WriteEquipment writes records as an equips document. The format follows
// the extension (.yaml/.yml or JSON). The file is replaced atomically.
func WriteEquipment(path string, records []model.Equipment) error {
	if records == nil {
		records = []model.Equipment{}
	}
	doc := model.EquipmentFile{Equips: records}
	var (
		b   []byte
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		b, err = yaml.Marshal(doc)
	default:
		b, err = json.MarshalIndent(doc, "", "    ")
		b = append(b, '\n')
	}
	if err != nil {
		return fmt.Errorf("marshal equips: %w", err)
	}
	return writeFile(path, b)
}

// WriteControllers writes a plc document in JSON.
func WriteControllers(path string, specs []model.ControllerSpec) error {
	if specs == nil {
		specs = []model.ControllerSpec{}
	}
	b, err := json.MarshalIndent(model.ControllerFile{PLC: specs}, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal plc: %w", err)
	}
	return writeFile(path, append(b, '\n'))
}

// WriteTagsYAML writes the tag dictionary as a YAML list.
func WriteTagsYAML(path string, tags []model.Tag) error {
	if tags == nil {
		tags = []model.Tag{}
	}
	b, err := yaml.Marshal(tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	return writeFile(path, b)
}

// TagsCSVHeader lists the columns written by WriteTagsCSV.
var TagsCSVHeader = []string{"Id", "Tag", "DescEng", "DescRus", "Groups", "PLC", "PLC_INP", "Algorithms", "Mimics"}

// WriteTagsCSV flattens the tag dictionary; nested PLC and algorithm
// facts are embedded as JSON.
func WriteTagsCSV(path string, tags []model.Tag) error {
	var buf bytes.Buffer
	if err := EncodeTagsCSV(&buf, tags); err != nil {
		return err
	}
	return writeFile(path, buf.Bytes())
}

func EncodeTagsCSV(w io.Writer, tags []model.Tag) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TagsCSVHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, t := range tags {
		plc, err := json.Marshal(t.PLC)
		if err != nil {
			return fmt.Errorf("marshal plc of %s: %w", t.Tag, err)
		}
		alg, err := json.Marshal(t.Algorithms)
		if err != nil {
			return fmt.Errorf("marshal algorithms of %s: %w", t.Tag, err)
		}
		rec := []string{
			fmt.Sprintf("%d", t.ID),
			t.Tag,
			t.DescEng,
			t.DescRus,
			t.Groups,
			string(plc),
			t.PLCInput,
			string(alg),
			strings.Join(t.Mimics, " "),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTelegraf writes the OPC UA node list of the tags for a telegraf
// input plugin.
func WriteTelegraf(path string, tags []model.Tag) error {
	var buf bytes.Buffer
	EncodeTelegraf(&buf, tags)
	return writeFile(path, buf.Bytes())
}

func EncodeTelegraf(w io.Writer, tags []model.Tag) {
	fmt.Fprint(w, "   nodes = [\n")
	for _, t := range tags {
		fmt.Fprintf(w, "     {name=%q, namespace=\"1\", identifier_type=\"s\", identifier=%q},\n",
			t.Tag+" "+t.DescEng, "t|"+t.Tag)
	}
	fmt.Fprint(w, "]\n")
}

func writeFile(path string, b []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
