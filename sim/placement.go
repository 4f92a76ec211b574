package sim

import (
	"sort"

	"github.com/sirupsen/logrus"
)

// Placement binds each module name to exactly one device.
type Placement map[string]DeviceID

// ModulesOn returns the modules placed on a device, in declaration order.
func (p Placement) ModulesOn(app *Application, id DeviceID) []*Module {
	var out []*Module
	for _, m := range app.Modules() {
		if dev, ok := p[m.Name]; ok && dev == id {
			out = append(out, m)
		}
	}
	return out
}

// PlacementPolicy assigns every module of an application to a device before
// the run starts. Implementations: FixedMapping, Edgewards.
type PlacementPolicy interface {
	Name() string
	Assign(app *Application, topo *Topology) (Placement, error)
}

func checkFinalized(app *Application, topo *Topology) error {
	if !app.Finalized() {
		return graphErrorf("application %q must be finalized before placement", app.Name)
	}
	if !topo.Finalized() {
		return topologyErrorf("topology must be finalized before placement")
	}
	return nil
}

// resolveMapping turns a module->device-name mapping into device ids,
// rejecting unknown modules and devices.
func resolveMapping(app *Application, topo *Topology, mapping map[string]string) (Placement, error) {
	names := make([]string, 0, len(mapping))
	for name := range mapping {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(Placement, len(mapping))
	for _, name := range names {
		if _, ok := app.Module(name); !ok {
			return nil, unresolvedf("mapping names unknown module %q", name)
		}
		dev, ok := topo.DeviceByName(mapping[name])
		if !ok {
			return nil, unresolvedf("module %q mapped to unknown device %q", name, mapping[name])
		}
		out[name] = dev.ID
	}
	return out, nil
}

// === FixedMapping ===

// FixedMapping applies a caller-supplied module->device mapping verbatim.
// Every module must be mapped.
type FixedMapping struct {
	Mapping map[string]string
}

// Name implements PlacementPolicy.
func (f *FixedMapping) Name() string { return "mapping" }

// Assign implements PlacementPolicy.
func (f *FixedMapping) Assign(app *Application, topo *Topology) (Placement, error) {
	if err := checkFinalized(app, topo); err != nil {
		return nil, err
	}
	placement, err := resolveMapping(app, topo, f.Mapping)
	if err != nil {
		return nil, err
	}
	for _, m := range app.Modules() {
		if _, ok := placement[m.Name]; !ok {
			return nil, unresolvedf("module %q has no device in the mapping", m.Name)
		}
	}
	return placement, nil
}

// === Edgewards ===

// Edgewards places modules as close to the sensors feeding them as device
// budgets allow. From every leaf with sensors it walks toward the root,
// placing each still-unplaced reachable module on the first device whose
// remaining MIPS and RAM cover it. Pinned modules are placed first, verbatim.
type Edgewards struct {
	Pinned map[string]string
}

// Name implements PlacementPolicy.
func (e *Edgewards) Name() string { return "edgewards" }

type budget struct {
	mips float64
	ram  float64
}

func (b budget) fits(m *Module) bool {
	return b.mips-m.MIPS >= 0 && b.ram-m.RAM >= 0
}

// Assign implements PlacementPolicy.
func (e *Edgewards) Assign(app *Application, topo *Topology) (Placement, error) {
	if err := checkFinalized(app, topo); err != nil {
		return nil, err
	}
	placement, err := resolveMapping(app, topo, e.Pinned)
	if err != nil {
		return nil, err
	}

	remaining := make([]budget, len(topo.Devices()))
	for _, d := range topo.Devices() {
		remaining[d.ID] = budget{mips: d.Capacity(), ram: d.RAM}
	}
	place := func(m *Module, id DeviceID, reason string) {
		placement[m.Name] = id
		remaining[id].mips -= m.MIPS
		remaining[id].ram -= m.RAM
		logrus.WithFields(logrus.Fields{
			"module": m.Name,
			"device": topo.Device(id).Name,
			"reason": reason,
		}).Debug("placed module")
	}
	for _, m := range app.Modules() {
		if id, ok := placement[m.Name]; ok {
			if !remaining[id].fits(m) {
				logrus.Warnf("pinned module %q oversubscribes device %q", m.Name, topo.Device(id).Name)
			}
			delete(placement, m.Name)
			place(m, id, "pinned")
		}
	}

	leaves := make([]DeviceID, 0)
	for _, d := range topo.Devices() {
		if d.IsLeaf() && len(topo.SensorsAt(d.ID)) > 0 {
			leaves = append(leaves, d.ID)
		}
	}
	sort.SliceStable(leaves, func(i, j int) bool {
		a, b := topo.Device(leaves[i]), topo.Device(leaves[j])
		if remaining[a.ID].mips != remaining[b.ID].mips {
			return remaining[a.ID].mips > remaining[b.ID].mips
		}
		if a.Level != b.Level {
			return a.Level > b.Level
		}
		return a.ID < b.ID
	})

	for _, leaf := range leaves {
		pending := e.pendingFor(app, topo, leaf, placement)
		for cur := leaf; cur != NoParent && len(pending) > 0; cur = topo.Device(cur).Parent {
			carried := pending[:0]
			for _, m := range pending {
				if remaining[cur].fits(m) {
					place(m, cur, "edgewards from "+topo.Device(leaf).Name)
				} else {
					carried = append(carried, m)
				}
			}
			pending = carried
		}
		if len(pending) > 0 {
			return nil, unresolvedf("module %q fits on no device between %q and the root",
				pending[0].Name, topo.Device(leaf).Name)
		}
	}

	// modules no sensor reaches go to the root
	root := topo.Root()
	for _, m := range app.Modules() {
		if _, ok := placement[m.Name]; ok {
			continue
		}
		if !remaining[root].fits(m) {
			return nil, unresolvedf("module %q is unreachable from sensors and does not fit on root %q",
				m.Name, topo.Device(root).Name)
		}
		place(m, root, "unreachable from sensors")
	}
	return placement, nil
}

// pendingFor lists the unplaced modules reachable from the sensors on a leaf.
func (e *Edgewards) pendingFor(app *Application, topo *Topology, leaf DeviceID, placement Placement) []*Module {
	seen := make(map[string]bool)
	var pending []*Module
	for _, s := range topo.SensorsAt(leaf) {
		for _, m := range app.ReachableModules(s.Type) {
			if seen[m.Name] {
				continue
			}
			seen[m.Name] = true
			if _, placed := placement[m.Name]; !placed {
				pending = append(pending, m)
			}
		}
	}
	sort.SliceStable(pending, func(i, j int) bool { return pending[i].index < pending[j].index })
	return pending
}
