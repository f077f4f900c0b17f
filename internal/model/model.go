package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Equipment is one maintenance counter: a 32-bit seconds value at
// DB<DBNumber>.DBD<DBOffset> on the named controller.
type Equipment struct {
	Name       string `json:"eq_name" yaml:"eq_name"`
	Controller string `json:"plc_name" yaml:"plc_name"`
	DBNumber   int    `json:"db_num" yaml:"db_num"`
	DBOffset   int    `json:"db_addr" yaml:"db_addr"`
}

// Address renders the counter location in S7 notation, e.g. DB700.DBD116.
func (e Equipment) Address() string {
	return fmt.Sprintf("DB%d.DBD%d", e.DBNumber, e.DBOffset)
}

// EquipmentFile is the document layout of equips.json.
type EquipmentFile struct {
	Equips []Equipment `json:"equips" yaml:"equips"`
}

const (
	DefaultRack       = 0
	DefaultSlot       = 1
	DefaultModbusPort = 502
	DefaultUnitID     = 1

	ProtocolS7        = "s7"
	ProtocolModbusTCP = "modbus-tcp"
)

// Controller holds the resolved connection parameters of one PLC.
type Controller struct {
	Name     string
	Address  string
	Rack     int
	Slot     int
	Group    GroupID
	Protocol string
	Port     int
	UnitID   uint8
	Timeout  time.Duration
}

// ControllerSpec is one entry of plc.json as written by hand. Optional
// fields are pointers so that absent values fall back to the defaults.
type ControllerSpec struct {
	Name     string  `json:"plc_name" yaml:"plc_name"`
	Address  string  `json:"plc_addr" yaml:"plc_addr"`
	Rack     *int    `json:"rack,omitempty" yaml:"rack,omitempty"`
	Slot     *int    `json:"slot,omitempty" yaml:"slot,omitempty"`
	Group    GroupID `json:"zif,omitempty" yaml:"zif,omitempty"`
	Protocol string  `json:"protocol,omitempty" yaml:"protocol,omitempty"`
	Port     int     `json:"port,omitempty" yaml:"port,omitempty"`
	UnitID   *uint8  `json:"unit_id,omitempty" yaml:"unit_id,omitempty"`
	Timeout  string  `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Resolve applies defaults and returns the runtime form.
func (s ControllerSpec) Resolve() (Controller, error) {
	c := Controller{
		Name:     s.Name,
		Address:  strings.TrimSpace(s.Address),
		Rack:     DefaultRack,
		Slot:     DefaultSlot,
		Group:    s.Group,
		Protocol: strings.ToLower(strings.TrimSpace(s.Protocol)),
		Port:     s.Port,
		UnitID:   DefaultUnitID,
	}
	if s.Rack != nil {
		c.Rack = *s.Rack
	}
	if s.Slot != nil {
		c.Slot = *s.Slot
	}
	if s.UnitID != nil {
		c.UnitID = *s.UnitID
	}
	switch c.Protocol {
	case "", "s7", "iso-tcp":
		c.Protocol = ProtocolS7
	case "modbus", "tcp", ProtocolModbusTCP:
		c.Protocol = ProtocolModbusTCP
		if c.Port <= 0 {
			c.Port = DefaultModbusPort
		}
	default:
		return c, fmt.Errorf("controller %s: unsupported protocol %q", s.Name, s.Protocol)
	}
	if s.Timeout != "" {
		d, err := time.ParseDuration(s.Timeout)
		if err != nil {
			return c, fmt.Errorf("controller %s: invalid timeout: %w", s.Name, err)
		}
		c.Timeout = d
	}
	if c.Rack < 0 || c.Slot < 0 {
		return c, fmt.Errorf("controller %s: rack and slot must not be negative", s.Name)
	}
	return c, nil
}

// ControllerFile is the document layout of plc.json.
type ControllerFile struct {
	PLC []ControllerSpec `json:"plc" yaml:"plc"`
}

// GroupID is the secondary grouping of controllers shown as a filter in
// the editor. Files carry it either as a number or as a string.
type GroupID string

func (g *GroupID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*g = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*g = GroupID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("group id must be a string or a number: %s", b)
	}
	*g = GroupID(n.String())
	return nil
}

// number reports the integer form of g when it is written exactly as
// strconv would render it; "01" and "+1" stay strings.
func (g GroupID) number() (int, bool) {
	n, err := strconv.Atoi(string(g))
	if err != nil || strconv.Itoa(n) != string(g) {
		return 0, false
	}
	return n, true
}

func (g GroupID) MarshalJSON() ([]byte, error) {
	if n, ok := g.number(); ok {
		return []byte(strconv.Itoa(n)), nil
	}
	return json.Marshal(string(g))
}

func (g *GroupID) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: group id must be a scalar", node.Line)
	}
	*g = GroupID(strings.TrimSpace(node.Value))
	return nil
}

func (g GroupID) MarshalYAML() (any, error) {
	if n, ok := g.number(); ok {
		return n, nil
	}
	return string(g), nil
}
