package internal

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"cubetimer/internal/chart"
	"cubetimer/internal/record"
	"cubetimer/internal/timer"
)

const resubscribeDelay = 2 * time.Second

type tickMsg struct {
	generation int
}

type savedMsg struct {
	formatted string
	record    record.Record
	err       error
}

type deletedMsg struct {
	record record.Record
	err    error
}

type recordsMsg struct {
	records []record.Record
	err     error
}

type timesMsg struct {
	request int
	times   []string
	err     error
}

type chartHiddenMsg struct {
	request int
}

type subscribedMsg struct {
	events <-chan record.Event
	err    error
}

type eventMsg struct {
	event record.Event
}

type eventsClosedMsg struct{}

type resubscribeMsg struct{}

func tickCmd(generation int) tea.Cmd {
	return tea.Tick(timer.TickInterval, func(time.Time) tea.Msg {
		return tickMsg{generation: generation}
	})
}

func (m *Model) saveCmd(formatted string) tea.Cmd {
	c, ctx := m.client, m.ctx
	return func() tea.Msg {
		rec, err := c.Save(ctx, formatted)
		return savedMsg{formatted: formatted, record: rec, err: err}
	}
}

func (m *Model) deleteCmd(rec record.Record) tea.Cmd {
	c, ctx := m.client, m.ctx
	return func() tea.Msg {
		return deletedMsg{record: rec, err: c.Delete(ctx, rec)}
	}
}

func (m *Model) loadRecordsCmd() tea.Cmd {
	c, ctx := m.client, m.ctx
	return func() tea.Msg {
		records, err := c.Records(ctx)
		return recordsMsg{records: records, err: err}
	}
}

func (m *Model) loadTimesCmd(request int) tea.Cmd {
	c, ctx := m.client, m.ctx
	return func() tea.Msg {
		times, err := c.Times(ctx)
		return timesMsg{request: request, times: times, err: err}
	}
}

func hideChartCmd(request int) tea.Cmd {
	return tea.Tick(chart.FadeDelay, func(time.Time) tea.Msg {
		return chartHiddenMsg{request: request}
	})
}

func (m *Model) subscribeCmd() tea.Cmd {
	c, ctx := m.client, m.ctx
	return func() tea.Msg {
		events, err := c.Subscribe(ctx)
		return subscribedMsg{events: events, err: err}
	}
}

func waitForEvent(events <-chan record.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg{event: ev}
	}
}

func resubscribeCmd() tea.Cmd {
	return tea.Tick(resubscribeDelay, func(time.Time) tea.Msg {
		return resubscribeMsg{}
	})
}
