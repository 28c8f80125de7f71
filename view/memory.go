package view

import (
	"sort"
	"sync"
)

// Update kinds.
const (
	KindText    = "text"
	KindClass   = "class"
	KindTable   = "table"
	KindChart   = "chart"
	KindDestroy = "destroy"
)

// Update describes one write to a Memory sink. It is what the web view
// pushes to connected pages.
type Update struct {
	Slot  string      `json:"slot"`
	Kind  string      `json:"kind"`
	Text  string      `json:"text,omitempty"`
	Class string      `json:"class,omitempty"`
	HTML  string      `json:"html,omitempty"`
	Chart *ChartState `json:"chart,omitempty"`
}

// ChartState is the last data pushed into a chart.
type ChartState struct {
	Kind     ChartKind `json:"kind"`
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// State is a copy of everything a Memory sink holds.
type State struct {
	Text   map[string]string     `json:"text"`
	Class  map[string]string     `json:"class"`
	Tables map[string]Table      `json:"tables"`
	Charts map[string]ChartState `json:"charts"`
}

// Memory is a Sink and ChartFactory that keeps the latest value of every
// slot. It is safe for concurrent use.
type Memory struct {
	mu        sync.RWMutex
	text      map[string]string
	class     map[string]string
	tables    map[string]Table
	charts    map[string][]*MemoryChart
	listeners []func(Update)
}

// NewMemory returns an empty sink.
func NewMemory() *Memory {
	return &Memory{
		text:   make(map[string]string),
		class:  make(map[string]string),
		tables: make(map[string]Table),
		charts: make(map[string][]*MemoryChart),
	}
}

// OnUpdate registers fn to be called after every write.
func (m *Memory) OnUpdate(fn func(Update)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

func (m *Memory) publish(u Update) {
	m.mu.RLock()
	ls := make([]func(Update), len(m.listeners))
	copy(ls, m.listeners)
	m.mu.RUnlock()
	for _, fn := range ls {
		fn(u)
	}
}

func (m *Memory) SetText(slot, text string) {
	m.mu.Lock()
	m.text[slot] = text
	m.mu.Unlock()
	m.publish(Update{Slot: slot, Kind: KindText, Text: text})
}

func (m *Memory) SetClass(slot, class string) {
	m.mu.Lock()
	m.class[slot] = class
	m.mu.Unlock()
	m.publish(Update{Slot: slot, Kind: KindClass, Class: class})
}

func (m *Memory) SetTable(slot string, t Table) {
	m.mu.Lock()
	m.tables[slot] = t
	m.mu.Unlock()
	m.publish(Update{Slot: slot, Kind: KindTable, HTML: t.HTML()})
}

// Text returns the last text written to slot.
func (m *Memory) Text(slot string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.text[slot]
}

// Class returns the last class written to slot.
func (m *Memory) Class(slot string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.class[slot]
}

// Table returns the last table written to slot.
func (m *Memory) Table(slot string) (Table, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[slot]
	return t, ok
}

// NewChart implements ChartFactory.
func (m *Memory) NewChart(slot string, kind ChartKind) Chart {
	c := &MemoryChart{mem: m, slot: slot, kind: kind}
	m.mu.Lock()
	m.charts[slot] = append(m.charts[slot], c)
	m.mu.Unlock()
	return c
}

// Charts returns every chart ever created for slot, oldest first.
func (m *Memory) Charts(slot string) []*MemoryChart {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*MemoryChart(nil), m.charts[slot]...)
}

// LiveCharts counts the charts for slot that have not been destroyed.
func (m *Memory) LiveCharts(slot string) int {
	n := 0
	for _, c := range m.Charts(slot) {
		if !c.Destroyed() {
			n++
		}
	}
	return n
}

// Snapshot copies the current state.
func (m *Memory) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := State{
		Text:   make(map[string]string, len(m.text)),
		Class:  make(map[string]string, len(m.class)),
		Tables: make(map[string]Table, len(m.tables)),
		Charts: make(map[string]ChartState),
	}
	for k, v := range m.text {
		s.Text[k] = v
	}
	for k, v := range m.class {
		s.Class[k] = v
	}
	for k, v := range m.tables {
		s.Tables[k] = v
	}
	for slot, cs := range m.charts {
		for _, c := range cs {
			if st, ok := c.State(); ok && !c.Destroyed() {
				s.Charts[slot] = st
			}
		}
	}
	return s
}

// Replay returns the current state as a sequence of updates, in a stable
// order, for a viewer that has just connected.
func (m *Memory) Replay() []Update {
	s := m.Snapshot()

	var out []Update
	for _, k := range sortedKeys(s.Text) {
		out = append(out, Update{Slot: k, Kind: KindText, Text: s.Text[k]})
	}
	for _, k := range sortedKeys(s.Class) {
		out = append(out, Update{Slot: k, Kind: KindClass, Class: s.Class[k]})
	}
	for _, k := range sortedKeys(s.Tables) {
		out = append(out, Update{Slot: k, Kind: KindTable, HTML: s.Tables[k].HTML()})
	}
	for _, k := range sortedKeys(s.Charts) {
		st := s.Charts[k]
		out = append(out, Update{Slot: k, Kind: KindChart, Chart: &st})
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MemoryChart records what it is given.
type MemoryChart struct {
	mem  *Memory
	slot string
	kind ChartKind

	mu        sync.Mutex
	state     *ChartState
	updates   int
	destroyed bool
}

func (c *MemoryChart) Update(labels []string, data []Dataset) {
	st := ChartState{
		Kind:     c.kind,
		Labels:   append([]string(nil), labels...),
		Datasets: make([]Dataset, len(data)),
	}
	for i, d := range data {
		st.Datasets[i] = Dataset{
			Label:  d.Label,
			Data:   append([]float64(nil), d.Data...),
			Colors: append([]string(nil), d.Colors...),
		}
	}

	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.state = &st
	c.updates++
	c.mu.Unlock()

	c.mem.publish(Update{Slot: c.slot, Kind: KindChart, Chart: &st})
}

func (c *MemoryChart) Destroy() {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.destroyed = true
	c.mu.Unlock()

	c.mem.publish(Update{Slot: c.slot, Kind: KindDestroy})
}

// State returns the last update, if any.
func (c *MemoryChart) State() (ChartState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == nil {
		return ChartState{}, false
	}
	return *c.state, true
}

// Updates counts calls to Update.
func (c *MemoryChart) Updates() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updates
}

// Destroyed reports whether Destroy was called.
func (c *MemoryChart) Destroyed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.destroyed
}
