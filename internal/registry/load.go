// Package registry loads the equipment and controller configuration files
// and answers the filter and lookup questions asked by the editor.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"rh-editor/internal/model"
)

// ErrConfigMissing reports an absent configuration file.
var ErrConfigMissing = errors.New("configuration file not found")

// MalformedError reports a configuration file that exists but cannot be
// used. It is never recovered from.
type MalformedError struct {
	Path string
	Err  error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed configuration %s: %v", e.Path, e.Err)
}

func (e *MalformedError) Unwrap() error { return e.Err }

// Status tells how a configuration file was loaded.
type Status int

const (
	Loaded Status = iota
	Missing
	Malformed
)

func (s Status) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case Missing:
		return "missing"
	case Malformed:
		return "malformed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is the outcome of reading one configuration file. Err is set for
// Missing (ErrConfigMissing) and Malformed (*MalformedError).
type Result[T any] struct {
	Path   string
	Status Status
	Items  []T
	Err    error
}

// LoadEquipment reads an equips document.
func LoadEquipment(path string) Result[model.Equipment] {
	var doc model.EquipmentFile
	res := Result[model.Equipment]{Path: path}
	if st, err := decodeFile(path, &doc); err != nil {
		res.Status, res.Err = st, err
		return res
	}
	seen := make(map[string]struct{}, len(doc.Equips))
	for i, e := range doc.Equips {
		if strings.TrimSpace(e.Name) == "" {
			return malformed[model.Equipment](path, fmt.Errorf("equips[%d]: empty eq_name", i))
		}
		if e.DBNumber < 0 || e.DBOffset < 0 {
			return malformed[model.Equipment](path, fmt.Errorf("equips[%d] %s: negative db address", i, e.Name))
		}
		if _, dup := seen[e.Name]; dup {
			return malformed[model.Equipment](path, fmt.Errorf("equips[%d]: duplicate eq_name %s", i, e.Name))
		}
		seen[e.Name] = struct{}{}
	}
	res.Status = Loaded
	res.Items = doc.Equips
	if res.Items == nil {
		res.Items = []model.Equipment{}
	}
	return res
}

// LoadControllers reads a plc document and resolves defaults.
func LoadControllers(path string) Result[model.Controller] {
	var doc model.ControllerFile
	res := Result[model.Controller]{Path: path}
	if st, err := decodeFile(path, &doc); err != nil {
		res.Status, res.Err = st, err
		return res
	}
	res.Items = make([]model.Controller, 0, len(doc.PLC))
	for i, spec := range doc.PLC {
		if strings.TrimSpace(spec.Name) == "" {
			return malformed[model.Controller](path, fmt.Errorf("plc[%d]: empty plc_name", i))
		}
		c, err := spec.Resolve()
		if err != nil {
			return malformed[model.Controller](path, err)
		}
		res.Items = append(res.Items, c)
	}
	res.Status = Loaded
	return res
}

func malformed[T any](path string, err error) Result[T] {
	return Result[T]{Path: path, Status: Malformed, Err: &MalformedError{Path: path, Err: err}}
}

func decodeFile(path string, out any) (Status, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Missing, fmt.Errorf("%w: %s", ErrConfigMissing, path)
		}
		return Malformed, &MalformedError{Path: path, Err: err}
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, out)
	default:
		err = json.Unmarshal(b, out)
	}
	if err != nil {
		return Malformed, &MalformedError{Path: path, Err: err}
	}
	return Loaded, nil
}

// OpenEquipment loads the equipment registry for an interactive front end.
// A missing file is logged and yields an empty registry; a malformed file
// is returned as an error.
func OpenEquipment(path string, logger *log.Logger) (*Equipment, error) {
	res := LoadEquipment(path)
	switch res.Status {
	case Missing:
		logf(logger, "ERROR: equipment file %s not found", path)
		return NewEquipment(nil), nil
	case Malformed:
		return nil, res.Err
	}
	logf(logger, "loaded %d equipment records from %s", len(res.Items), path)
	return NewEquipment(res.Items), nil
}

// OpenControllers loads the controller registry with the same policy as
// OpenEquipment.
func OpenControllers(path string, logger *log.Logger) (*Controllers, error) {
	res := LoadControllers(path)
	switch res.Status {
	case Missing:
		logf(logger, "ERROR: controller file %s not found", path)
		return NewControllers(nil), nil
	case Malformed:
		return nil, res.Err
	}
	logf(logger, "loaded %d controllers from %s", len(res.Items), path)
	return NewControllers(res.Items), nil
}

func logf(logger *log.Logger, format string, args ...any) {
	if logger == nil {
		log.Printf(format, args...)
		return
	}
	logger.Printf(format, args...)
}
