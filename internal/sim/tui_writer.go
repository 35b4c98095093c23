package sim

import (
	"fmt"
	"math"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"quadsim/internal/config"
	"quadsim/internal/telemetry"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// AdminStatusWriter is implemented by writers that show whether the admin
// server is up.
type AdminStatusWriter interface {
	SetAdminStatus(active bool)
}

// logMsg carries a log line for the viewport.
type logMsg struct{ line string }

// detectionMsg carries a detection log line and row data.
type detectionMsg struct {
	line string
	row  telemetry.DetectionRow
}

// adminMsg reports admin server status.
type adminMsg struct{ active bool }

type telemetryMsg struct{ telemetry.TelemetryRow }

const (
	maxLogLines         = 1000
	maxSectionHeightPct = 0.2
	gridCols            = 21
	gridRows            = 7
)

// TUIWriter renders telemetry using a bubbletea TUI.
type TUIWriter struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter. Quitting
// the UI interrupts the process so the simulator shuts down with it.
func NewTUIWriter(cfg *config.FlightConfig) *TUIWriter {
	w := &TUIWriter{done: make(chan struct{})}
	w.sendSignal.Store(true)
	p := tea.NewProgram(newTUIModel(cfg), tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

func formatTelemetryLine(row telemetry.TelemetryRow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%s]%s tick=%d %smode=%s%s %spos=(%.3f,%.3f,%.3f)%s %shdg=%.2f%s",
		colorGray, row.Timestamp.Format(time.RFC3339), colorReset,
		row.Tick,
		modeColor(row.Mode), row.Mode, colorReset,
		colorGreen, row.X, row.Y, row.Z, colorReset,
		colorCyan, row.Heading, colorReset)
	if row.Hover {
		fmt.Fprintf(&b, " %shover alt=%.2f%s", colorMagenta, row.CmdAltitude, colorReset)
	} else {
		fmt.Fprintf(&b, " %sangle=%.2f spd=%.2f alt=%.2f%s", colorYellow, row.CmdAngle, row.CmdSpeed, row.CmdAltitude, colorReset)
	}
	if row.Action != "" {
		fmt.Fprintf(&b, " action=%s", row.Action)
	}
	if row.Error != "" {
		fmt.Fprintf(&b, " %serr=%s%s", colorRed, row.Error, colorReset)
	}
	return b.String()
}

// Write implements TelemetryWriter.
func (w *TUIWriter) Write(row telemetry.TelemetryRow) error {
	w.program.Send(logMsg{line: formatTelemetryLine(row)})
	w.program.Send(telemetryMsg{row})
	return nil
}

// WriteDetection implements DetectionWriter.
func (w *TUIWriter) WriteDetection(d telemetry.DetectionRow) error {
	line := fmt.Sprintf("%s[%s]%s %sDETECT%s tick=%d center=(%.1f,%.1f) r=%.1f area=%.0f",
		colorGray, d.Timestamp.Format(time.RFC3339), colorReset,
		colorRed, colorReset,
		d.Tick, d.CenterX, d.CenterY, d.Radius, d.Area)
	w.program.Send(detectionMsg{line: line, row: d})
	return nil
}

// WriteBatch outputs multiple telemetry rows.
func (w *TUIWriter) WriteBatch(rows []telemetry.TelemetryRow) error {
	for _, r := range rows {
		_ = w.Write(r)
	}
	return nil
}

// WriteDetections outputs multiple detection rows.
func (w *TUIWriter) WriteDetections(rows []telemetry.DetectionRow) error {
	for _, d := range rows {
		_ = w.WriteDetection(d)
	}
	return nil
}

// SetAdminStatus updates the admin indicator in the footer.
func (w *TUIWriter) SetAdminStatus(active bool) {
	w.program.Send(adminMsg{active: active})
}

// Close stops the UI without interrupting the process.
func (w *TUIWriter) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

type tuiModel struct {
	cfg          *config.FlightConfig
	table        table.Model
	vp           viewport.Model
	detVP        viewport.Model
	logs         []string
	detLogs      []string
	last         telemetry.TelemetryRow
	haveLast     bool
	lastDet      telemetry.DetectionRow
	haveDet      bool
	detections   int
	admin        bool
	wrap         bool
	autoscroll   bool
	help         bool
	showConfig   bool
	header       string
	headerHeight int
	height       int
}

func configRows(cfg *config.FlightConfig) []table.Row {
	if cfg == nil {
		return nil
	}
	c := cfg.Controller
	speed := fmt.Sprintf("fixed %.2f", c.FixedSpeed)
	if c.Proportional {
		speed = fmt.Sprintf("%.2f..%.2f", c.MinSpeed, c.MaxSpeed)
	}
	return []table.Row{
		{"Profile", cfg.Profile, "Rate (Hz)", fmt.Sprintf("%.0f", cfg.RateHz)},
		{"Align (px)", fmt.Sprintf("%.0f", c.AlignThreshold), "Speed", speed},
		{"Search Alt", fmt.Sprintf("%.2f", c.SearchAltitude), "Descent Alt", fmt.Sprintf("%.2f", c.DescentAltitude)},
		{"Camera", fmt.Sprintf("%dx%d %.0f°", cfg.Camera.Width, cfg.Camera.Height, cfg.Camera.FOVDegrees), "Search", fmt.Sprintf("%d x %s", len(c.Search.Steps), c.Search.StepDuration)},
	}
}

func newTUIModel(cfg *config.FlightConfig) tuiModel {
	cols := []table.Column{
		{Title: "Config", Width: 12},
		{Title: "Value", Width: 12},
		{Title: "Config", Width: 12},
		{Title: "Value", Width: 12},
	}
	rows := configRows(cfg)
	t := table.New(table.WithColumns(cols), table.WithRows(rows), table.WithHeight(len(rows)+1))
	return tuiModel{
		cfg:        cfg,
		table:      t,
		vp:         viewport.New(0, 0),
		detVP:      viewport.New(0, 0),
		autoscroll: true,
		showConfig: true,
	}
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetWidth(msg.Width / 2)
		m.vp.Width = msg.Width
		m.detVP.Width = msg.Width
		m.height = msg.Height
		m.refreshHeader()
		m.updateViewportHeight()
		m.refreshViewport()
		m.refreshDetections()
	case tea.KeyMsg:
		if m.help {
			switch msg.String() {
			case "?", "h", "esc":
				m.help = false
				m.updateViewportHeight()
			case "q", "ctrl+c":
				return m, tea.Quit
			}
			return m, nil
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			m.wrap = !m.wrap
			m.refreshViewport()
			m.refreshDetections()
			m.updateViewportHeight()
			return m, nil
		case "s":
			m.autoscroll = !m.autoscroll
			if m.autoscroll {
				m.vp.GotoBottom()
				m.detVP.GotoBottom()
			}
			return m, nil
		case "c":
			m.showConfig = !m.showConfig
			m.refreshHeader()
			m.updateViewportHeight()
			return m, nil
		case "h", "?":
			m.help = !m.help
			m.updateViewportHeight()
			return m, nil
		}
		if !m.autoscroll {
			switch msg.String() {
			case "j", "down":
				m.vp.LineDown(1)
				m.detVP.LineDown(1)
			case "k", "up":
				m.vp.LineUp(1)
				m.detVP.LineUp(1)
			case "pgdown", "ctrl+n":
				m.vp.LineDown(10)
				m.detVP.LineDown(10)
			case "pgup", "ctrl+p":
				m.vp.LineUp(10)
				m.detVP.LineUp(10)
			default:
				var cmd tea.Cmd
				m.vp, cmd = m.vp.Update(msg)
				m.detVP, _ = m.detVP.Update(msg)
				return m, cmd
			}
		}
		return m, nil
	case logMsg:
		m.logs = appendBounded(m.logs, msg.line)
		m.refreshViewport()
	case detectionMsg:
		m.detLogs = appendBounded(m.detLogs, msg.line)
		m.lastDet = msg.row
		m.haveDet = true
		m.detections++
		m.updateViewportHeight()
		m.refreshDetections()
	case telemetryMsg:
		m.last = msg.TelemetryRow
		m.haveLast = true
		m.refreshHeader()
	case adminMsg:
		m.admin = msg.active
	}
	return m, nil
}

func appendBounded(lines []string, line string) []string {
	lines = append(lines, line)
	if len(lines) > maxLogLines {
		lines = lines[len(lines)-maxLogLines:]
	}
	return lines
}

func (m *tuiModel) refreshHeader() {
	m.header = m.renderHeader()
	m.headerHeight = lipgloss.Height(m.header)
}

func (m *tuiModel) updateViewportHeight() {
	maxLines := int(float64(m.height) * maxSectionHeightPct)
	if maxLines < 1 {
		maxLines = 1
	}
	detLines := len(m.detLogs)
	if detLines == 0 {
		detLines = 1
	}
	if detLines > maxLines {
		detLines = maxLines
	}
	m.detVP.Height = detLines

	bottomHeight := lipgloss.Height(m.renderBottom())
	h := m.height - m.headerHeight - bottomHeight - (1 + m.detVP.Height) - 3
	if h < 0 {
		h = 0
	}
	m.vp.Height = h
	if m.autoscroll {
		m.detVP.GotoBottom()
		m.vp.GotoBottom()
	}
}

func (m *tuiModel) wrapLines(lines []string, width int) string {
	if !m.wrap || width <= 0 {
		return strings.Join(lines, "\n")
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = wordwrap.String(l, width)
	}
	return strings.Join(out, "\n")
}

func (m *tuiModel) refreshViewport() {
	m.vp.SetContent(m.wrapLines(m.logs, m.vp.Width))
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m *tuiModel) refreshDetections() {
	content := "none"
	if len(m.detLogs) > 0 {
		content = m.wrapLines(m.detLogs, m.detVP.Width)
	}
	m.detVP.SetContent(content)
	if m.autoscroll {
		m.detVP.GotoBottom()
	}
}

func (m tuiModel) View() string {
	if m.help {
		return m.renderHelp()
	}
	divider := strings.Repeat("─", m.vp.Width)
	sections := []string{
		m.header,
		divider,
		m.vp.View(),
		divider,
		"Detections:",
		m.detVP.View(),
		divider,
		m.renderBottom(),
	}
	return strings.Join(sections, "\n")
}

func (m tuiModel) renderHeader() string {
	status := m.renderStatus()
	if !m.showConfig {
		return status
	}
	sep := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render("│")
	return lipgloss.JoinHorizontal(lipgloss.Top, m.table.View(), sep, status)
}

// renderStatus shows the current mode, pose and a coarse view of where the
// marker sits relative to the image centre.
func (m tuiModel) renderStatus() string {
	if !m.haveLast {
		return "Waiting for telemetry..."
	}
	r := m.last
	modeStyle := lipgloss.NewStyle().Bold(true)
	switch r.Mode {
	case "landed":
		modeStyle = modeStyle.Foreground(lipgloss.Color("10"))
	case "align", "descend":
		modeStyle = modeStyle.Foreground(lipgloss.Color("14"))
	case "search", "climb":
		modeStyle = modeStyle.Foreground(lipgloss.Color("11"))
	}
	lines := []string{
		fmt.Sprintf("Mode %s  tick %d", modeStyle.Render(strings.ToUpper(r.Mode)), r.Tick),
		fmt.Sprintf("Pos (%.2f, %.2f, %.2f) hdg %s %.2f", r.X, r.Y, r.Z, headingIcon(r.Heading), r.Heading),
		fmt.Sprintf("Detections %d", m.detections),
		m.renderGrid(),
	}
	return strings.Join(lines, "\n")
}

// renderGrid plots the last marker position on a small character grid where
// the centre cell is the image centre.
func (m tuiModel) renderGrid() string {
	grid := make([][]rune, gridRows)
	for i := range grid {
		grid[i] = []rune(strings.Repeat("·", gridCols))
	}
	grid[gridRows/2][gridCols/2] = '+'
	if m.haveDet && m.cfg != nil && m.cfg.Camera.Width > 0 && m.cfg.Camera.Height > 0 {
		col := int(m.lastDet.CenterX / float64(m.cfg.Camera.Width) * gridCols)
		row := int(m.lastDet.CenterY / float64(m.cfg.Camera.Height) * gridRows)
		if col >= 0 && col < gridCols && row >= 0 && row < gridRows {
			grid[row][col] = '●'
		}
	}
	lines := make([]string, gridRows)
	for i, r := range grid {
		lines[i] = string(r)
	}
	return strings.Join(lines, "\n")
}

func headingIcon(h float64) string {
	icons := []string{"→", "↘", "↓", "↙", "←", "↖", "↑", "↗"}
	idx := int(math.Round(h/(math.Pi/4))) % len(icons)
	if idx < 0 {
		idx += len(icons)
	}
	return icons[idx]
}

func indicator(on bool) string {
	c := lipgloss.Color("9")
	if on {
		c = lipgloss.Color("10")
	}
	return lipgloss.NewStyle().Foreground(c).Render("●")
}

func (m tuiModel) renderBottom() string {
	return fmt.Sprintf("Admin %s | Wrap %s | Scroll %s | Config %s | h help",
		indicator(m.admin), indicator(m.wrap), indicator(m.autoscroll), indicator(m.showConfig))
}

func (m tuiModel) renderHelp() string {
	lines := []string{
		"Key Bindings:",
		" q  quit",
		" w  toggle line wrap",
		" s  toggle auto-scroll",
		" c  toggle config table",
		" h/? toggle this help view",
		"",
		"When auto-scroll is disabled:",
		" j/k or up/down    scroll one line",
		" pgdown/pgup       scroll a page",
	}
	return strings.Join(lines, "\n")
}
