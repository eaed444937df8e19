package internal

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"cubetimer/internal/chart"
	"cubetimer/internal/record"
	"cubetimer/internal/timer"
)

const (
	statusStart = "Press SPACE to start"
	statusStop  = "Press SPACE to stop"
)

// Collaborator is the server the terminal client persists times to.
type Collaborator interface {
	Save(ctx context.Context, formatted string) (record.Record, error)
	Delete(ctx context.Context, rec record.Record) error
	Times(ctx context.Context) ([]string, error)
	Records(ctx context.Context) ([]record.Record, error)
	Subscribe(ctx context.Context) (<-chan record.Event, error)
}

// Options configure a Model.
type Options struct {
	Client       Collaborator
	Clock        timer.Clock
	RepeatWindow time.Duration
	LiveUpdates  bool
	Logger       zerolog.Logger
}

type Model struct {
	Session *timer.Session
	Display string
	Status  string
	Notice  string

	// Records is the list view, newest first.
	Records        []record.Record
	SelectedIndex  int
	PendingDeletes map[string]bool

	ShowChart    bool
	ChartFading  bool
	ChartSeries  []float64
	chartRequest int

	Width  int
	Height int

	client      Collaborator
	parser      *chart.Parser
	keys        *repeatFilter
	logger      zerolog.Logger
	liveUpdates bool
	events      <-chan record.Event

	ctx    context.Context
	cancel context.CancelFunc
}

func NewModel(opts Options) (*Model, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("a collaborator client is required")
	}

	parser, err := chart.NewParser(0)
	if err != nil {
		return nil, err
	}

	clock := opts.Clock
	if clock == nil {
		clock = timer.WallClock
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Model{
		Session:        timer.New(clock),
		Display:        timer.Format(0),
		Status:         statusStart,
		PendingDeletes: make(map[string]bool),
		client:         opts.Client,
		parser:         parser,
		keys:           newRepeatFilter(opts.RepeatWindow, clock.Now),
		logger:         opts.Logger.With().Str("component", "tui").Logger(),
		liveUpdates:    opts.LiveUpdates,
		ctx:            ctx,
		cancel:         cancel,
	}
	return m, nil
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loadRecordsCmd()}
	if m.liveUpdates {
		cmds = append(cmds, m.subscribeCmd())
	}
	return tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		if m.Session.Running() {
			m.Display = timer.FormatDuration(m.Session.Elapsed())
		}
		return m, nil
	case tickMsg:
		return m.handleTick(msg)
	case savedMsg:
		return m.handleSaved(msg)
	case deletedMsg:
		return m.handleDeleted(msg)
	case recordsMsg:
		return m.handleRecords(msg)
	case timesMsg:
		return m.handleTimes(msg)
	case chartHiddenMsg:
		if msg.request == m.chartRequest && m.ChartFading {
			m.ShowChart = false
			m.ChartFading = false
			m.ChartSeries = nil
		}
		return m, nil
	case subscribedMsg:
		if msg.err != nil {
			m.logger.Warn().Err(msg.err).Msg("Live updates unavailable, retrying")
			return m, resubscribeCmd()
		}
		m.events = msg.events
		return m, waitForEvent(m.events)
	case eventMsg:
		m.applyEvent(msg.event)
		return m, waitForEvent(m.events)
	case eventsClosedMsg:
		m.events = nil
		if m.ctx.Err() != nil {
			return m, nil
		}
		m.logger.Warn().Msg("Live update stream closed, reconnecting")
		return m, resubscribeCmd()
	case resubscribeMsg:
		if m.ctx.Err() != nil {
			return m, nil
		}
		return m, m.subscribeCmd()
	}
	return m, nil
}

func (m *Model) View() string {
	return m.mainView()
}

// Close cancels in-flight requests and the live update stream.
func (m *Model) Close() error {
	m.cancel()
	return nil
}

func (m *Model) SelectedRecord() *record.Record {
	if m.SelectedIndex >= 0 && m.SelectedIndex < len(m.Records) {
		return &m.Records[m.SelectedIndex]
	}
	return nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case " ", "space":
		return m.HandleKey(m.keys.Classify(keySpace))
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.SelectedIndex > 0 {
			m.SelectedIndex--
		}
	case "down", "j":
		if m.SelectedIndex < len(m.Records)-1 {
			m.SelectedIndex++
		}
	case "d", "delete":
		return m, m.deleteSelected()
	case "c":
		return m, m.toggleChart()
	case "r":
		return m, m.loadRecordsCmd()
	}
	return m, nil
}

// HandleKey applies a key event. Repeated events are ignored so a held key
// toggles the timer once.
func (m *Model) HandleKey(ev KeyEvent) (tea.Model, tea.Cmd) {
	if ev.Code != keySpace || ev.Repeat {
		return m, nil
	}
	return m, m.toggle()
}

func (m *Model) toggle() tea.Cmd {
	ev := m.Session.Toggle()
	switch ev.Type {
	case timer.EventStarted:
		m.Status = statusStop
		m.Display = ev.Formatted
		return tickCmd(ev.Generation)
	case timer.EventStopped:
		// reset before the server confirms the save
		m.Status = statusStart
		m.Display = timer.Format(0)
		m.logger.Debug().Str("time", ev.Formatted).Msg("Timer stopped")
		return m.saveCmd(ev.Formatted)
	}
	return nil
}

func (m *Model) handleTick(msg tickMsg) (tea.Model, tea.Cmd) {
	elapsed, ok := m.Session.Tick(msg.generation)
	if !ok {
		return m, nil
	}
	m.Display = timer.FormatDuration(elapsed)
	return m, tickCmd(msg.generation)
}

func (m *Model) handleSaved(msg savedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.logger.Error().Err(msg.err).Str("time", msg.formatted).Msg("Error saving time")
		m.Notice = fmt.Sprintf("Could not save %s", msg.formatted)
		return m, m.loadRecordsCmd()
	}
	m.Notice = ""
	m.insertRecord(msg.record)
	return m, nil
}

func (m *Model) deleteSelected() tea.Cmd {
	rec := m.SelectedRecord()
	if rec == nil || m.PendingDeletes[rec.ID] {
		return nil
	}
	m.PendingDeletes[rec.ID] = true
	return m.deleteCmd(*rec)
}

func (m *Model) handleDeleted(msg deletedMsg) (tea.Model, tea.Cmd) {
	delete(m.PendingDeletes, msg.record.ID)
	if msg.err != nil {
		m.logger.Error().Err(msg.err).Str("id", msg.record.ID).Str("time", msg.record.Time).Msg("Error deleting time")
		m.Notice = fmt.Sprintf("Could not delete %s", msg.record.Time)
		return m, nil
	}
	m.Notice = ""
	m.removeRecord(msg.record.ID)
	return m, nil
}

func (m *Model) handleRecords(msg recordsMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.logger.Error().Err(msg.err).Msg("Error loading times")
		m.Notice = "Could not load times"
		return m, nil
	}
	m.Records = record.Newest(msg.records)
	m.clampSelection()
	return m, nil
}

func (m *Model) toggleChart() tea.Cmd {
	m.chartRequest++
	if m.ShowChart && !m.ChartFading {
		m.ChartFading = true
		return hideChartCmd(m.chartRequest)
	}
	m.ChartFading = false
	return m.loadTimesCmd(m.chartRequest)
}

func (m *Model) handleTimes(msg timesMsg) (tea.Model, tea.Cmd) {
	if msg.request != m.chartRequest {
		// hidden or re-requested since this fetch started
		return m, nil
	}
	if msg.err != nil {
		m.logger.Error().Err(msg.err).Msg("Error loading chart data")
		m.Notice = "Could not load chart"
		return m, nil
	}
	m.ShowChart = true
	m.ChartFading = false
	m.ChartSeries = m.parser.Series(msg.times)
	return m, nil
}

func (m *Model) applyEvent(ev record.Event) {
	switch ev.Type {
	case record.EventSaved:
		m.insertRecord(ev.Record)
	case record.EventDeleted:
		m.removeRecord(ev.Record.ID)
	}
}

func (m *Model) insertRecord(rec record.Record) {
	for _, existing := range m.Records {
		if existing.ID == rec.ID {
			return
		}
	}
	m.Records = append([]record.Record{rec}, m.Records...)
	if len(m.Records) > 1 {
		m.SelectedIndex++
	}
	m.clampSelection()
}

func (m *Model) removeRecord(id string) {
	for i, rec := range m.Records {
		if rec.ID == id {
			m.Records = append(m.Records[:i], m.Records[i+1:]...)
			if i < m.SelectedIndex {
				m.SelectedIndex--
			}
			break
		}
	}
	m.clampSelection()
}

func (m *Model) clampSelection() {
	if m.SelectedIndex >= len(m.Records) {
		m.SelectedIndex = len(m.Records) - 1
	}
	if m.SelectedIndex < 0 {
		m.SelectedIndex = 0
	}
}
