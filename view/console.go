package view

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/guptarohit/asciigraph"
	"github.com/olekukonko/tablewriter"
)

// statRows is the order stats are printed in, with their labels.
var statRows = []struct{ slot, label string }{
	{SlotBalance, "Balance"},
	{SlotEquity, "Equity"},
	{SlotFloatingPL, "Floating P/L"},
	{SlotDailyPL, "Daily P/L"},
	{SlotDailyTrades, "Daily Trades"},
	{SlotWins, "Wins"},
	{SlotLosses, "Losses"},
	{SlotWinRate, "Win Rate"},
	{SlotConsecLosses, "Consecutive Losses"},
	{SlotOpenPositions, "Open Positions"},
	{SlotStatus, "EA Status"},
	{SlotLastTrade, "Last Trade"},
}

// Console is a Sink that prints one frame per refresh to a terminal.
type Console struct {
	w     io.Writer
	clear bool

	mu     sync.Mutex
	text   map[string]string
	class  map[string]string
	tables map[string]Table
	charts map[string]*consoleChart
}

// NewConsole writes frames to w. With clear set, each frame first clears the
// screen.
func NewConsole(w io.Writer, clear bool) *Console {
	return &Console{
		w:      w,
		clear:  clear,
		text:   make(map[string]string),
		class:  make(map[string]string),
		tables: make(map[string]Table),
		charts: make(map[string]*consoleChart),
	}
}

func (c *Console) SetText(slot, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text[slot] = text
}

func (c *Console) SetClass(slot, class string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.class[slot] = class
}

func (c *Console) SetTable(slot string, t Table) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables[slot] = t
}

func (c *Console) NewChart(slot string, kind ChartKind) Chart {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := &consoleChart{console: c, kind: kind}
	c.charts[slot] = ch
	return ch
}

// Flush prints the current frame.
func (c *Console) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()

	var b strings.Builder
	if c.clear {
		b.WriteString("\033[H\033[2J")
	}

	fmt.Fprintf(&b, "== %s ==  [%s]  updated %s\n\n",
		or(c.text[SlotTitle], "Dashboard"),
		or(c.text[SlotConnectionStatus], "Connecting"),
		or(c.text[SlotLastUpdate], "--:--:--"))

	stats := tablewriter.NewWriter(&b)
	stats.SetHeader([]string{"Stat", "Value"})
	stats.SetAutoWrapText(false)
	for _, r := range statRows {
		stats.Append([]string{r.label, or(c.text[r.slot], "—")})
	}
	stats.Render()
	b.WriteString("\n")

	if ch, ok := c.charts[ChartTrades]; ok && ch.state != nil {
		writePlot(&b, ch.state)
	}
	if ch, ok := c.charts[ChartOutcomes]; ok && ch.state != nil {
		b.WriteString(strings.Join(ch.state.Labels, "  ") + "\n\n")
	}

	writeTable(&b, "Trade history", c.tables[SlotTradesTable])
	writeTable(&b, "Daily reports", c.tables[SlotReportsTable])

	io.WriteString(c.w, b.String())
}

func writePlot(b *strings.Builder, st *ChartState) {
	if len(st.Datasets) == 0 || len(st.Datasets[0].Data) == 0 {
		return
	}
	data := st.Datasets[0].Data
	if len(data) == 1 {
		fmt.Fprintf(b, "%s: %.2f\n\n", st.Datasets[0].Label, data[0])
		return
	}
	b.WriteString(asciigraph.Plot(data,
		asciigraph.Height(8),
		asciigraph.Caption(st.Datasets[0].Label)))
	b.WriteString("\n\n")
}

func writeTable(b *strings.Builder, title string, t Table) {
	fmt.Fprintf(b, "%s\n", title)
	if len(t.Rows) == 0 {
		b.WriteString("  (waiting for data)\n\n")
		return
	}
	if t.IsPlaceholder() {
		fmt.Fprintf(b, "  %s\n\n", t.Rows[0][0].Text)
		return
	}
	tw := tablewriter.NewWriter(b)
	tw.SetHeader(t.Columns)
	tw.SetAutoWrapText(false)
	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = cell.Text
		}
		tw.Append(cells)
	}
	tw.Render()
	b.WriteString("\n")
}

func or(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

type consoleChart struct {
	console *Console
	kind    ChartKind
	state   *ChartState
}

func (ch *consoleChart) Update(labels []string, data []Dataset) {
	ch.console.mu.Lock()
	defer ch.console.mu.Unlock()
	ch.state = &ChartState{Kind: ch.kind, Labels: labels, Datasets: data}
}

func (ch *consoleChart) Destroy() {
	ch.console.mu.Lock()
	defer ch.console.mu.Unlock()
	ch.state = nil
}
