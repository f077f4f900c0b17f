package registry

import (
	"slices"
	"sort"
	"strconv"
	"strings"

	"rh-editor/internal/model"
)

// Equipment is the read-only list of equipment records.
type Equipment struct {
	all    []model.Equipment
	byName map[string]int
}

// NewEquipment builds a registry from records. The slice is copied.
func NewEquipment(records []model.Equipment) *Equipment {
	r := &Equipment{
		all:    slices.Clone(records),
		byName: make(map[string]int, len(records)),
	}
	for i, e := range r.all {
		r.byName[e.Name] = i
	}
	return r
}

// All returns a copy of every record in file order.
func (r *Equipment) All() []model.Equipment { return slices.Clone(r.all) }

func (r *Equipment) Len() int { return len(r.all) }

// Lookup finds a record by its exact name.
func (r *Equipment) Lookup(name string) (model.Equipment, bool) {
	i, ok := r.byName[name]
	if !ok {
		return model.Equipment{}, false
	}
	return r.all[i], true
}

// ByController groups record names per controller.
func (r *Equipment) ByController() map[string][]model.Equipment {
	out := make(map[string][]model.Equipment)
	for _, e := range r.all {
		out[e.Controller] = append(out[e.Controller], e)
	}
	return out
}

// Controllers is the read-only controller lookup table.
type Controllers struct {
	all    []model.Controller
	byName map[string]model.Controller
}

func NewControllers(entries []model.Controller) *Controllers {
	c := &Controllers{
		all:    slices.Clone(entries),
		byName: make(map[string]model.Controller, len(entries)),
	}
	for _, e := range c.all {
		if _, dup := c.byName[e.Name]; !dup {
			c.byName[e.Name] = e
		}
	}
	return c
}

func (c *Controllers) All() []model.Controller { return slices.Clone(c.all) }

func (c *Controllers) Len() int { return len(c.all) }

// Lookup returns the controller with the given name.
func (c *Controllers) Lookup(name string) (model.Controller, bool) {
	e, ok := c.byName[name]
	return e, ok
}

// ConnectionParams returns the address, rack and slot of a controller. An
// unknown controller yields an empty address with the default rack and slot.
func (c *Controllers) ConnectionParams(name string) (address string, rack, slot int) {
	if e, ok := c.byName[name]; ok {
		return e.Address, e.Rack, e.Slot
	}
	return "", model.DefaultRack, model.DefaultSlot
}

// Groups lists the distinct group ids, numerically ordered when every id
// is a number.
func (c *Controllers) Groups() []model.GroupID {
	seen := make(map[model.GroupID]struct{})
	var out []model.GroupID
	for _, e := range c.all {
		if e.Group == "" {
			continue
		}
		if _, ok := seen[e.Group]; ok {
			continue
		}
		seen[e.Group] = struct{}{}
		out = append(out, e.Group)
	}
	numeric := true
	for _, g := range out {
		if _, err := strconv.Atoi(string(g)); err != nil {
			numeric = false
			break
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if numeric {
			a, _ := strconv.Atoi(string(out[i]))
			b, _ := strconv.Atoi(string(out[j]))
			return a < b
		}
		return out[i] < out[j]
	})
	return out
}

// InGroup returns the set of controller names belonging to group.
func (c *Controllers) InGroup(group model.GroupID) map[string]struct{} {
	out := make(map[string]struct{})
	for _, e := range c.all {
		if e.Group == group {
			out[e.Name] = struct{}{}
		}
	}
	return out
}

// Query is the filter state owned by a front end. Zero values match all.
type Query struct {
	Text  string
	Group model.GroupID
}

// Filter applies q to records: case-insensitive substring on the name AND
// membership of the record's controller in the group. The result is a new
// slice sorted by name.
func Filter(records []model.Equipment, controllers *Controllers, q Query) []model.Equipment {
	text := strings.ToLower(strings.TrimSpace(q.Text))
	var members map[string]struct{}
	if q.Group != "" {
		if controllers == nil {
			members = map[string]struct{}{}
		} else {
			members = controllers.InGroup(q.Group)
		}
	}
	out := make([]model.Equipment, 0, len(records))
	for _, e := range records {
		if members != nil {
			if _, ok := members[e.Controller]; !ok {
				continue
			}
		}
		if text != "" && !strings.Contains(strings.ToLower(e.Name), text) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Filter is the registry-bound form of the package-level Filter.
func (r *Equipment) Filter(controllers *Controllers, q Query) []model.Equipment {
	return Filter(r.all, controllers, q)
}
