// Copyright (c) Diamond Light Source Ltd.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelldls/edge-containers-cli/pkg/services"
)

func testModel(t *testing.T, includeAll bool) monitorModel {
	t.Helper()
	poller := services.NewPoller(nil, time.Second, includeAll)
	return newMonitorModel(poller, "bl01t", false)
}

func keyMsg(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestMonitorModelShowsSnapshot(t *testing.T) {
	m := testModel(t, false)
	taken := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	next, cmd := m.Update(snapshotMsg{
		Records: []services.ServiceRecord{{Name: "svca", Running: true}},
		Taken:   taken,
	})
	model := next.(monitorModel)

	assert.False(t, model.loading)
	assert.Equal(t, taken, model.refreshed)
	require.Len(t, model.records, 1)
	assert.Equal(t, "svca", model.records[0].Name)
	assert.Empty(t, model.notice)
	// The wait command must be re-armed for the next snapshot.
	assert.NotNil(t, cmd)
}

func TestMonitorModelNoRunningIsTransient(t *testing.T) {
	m := testModel(t, false)
	m.records = []services.ServiceRecord{{Name: "svca"}}

	next, cmd := m.Update(snapshotMsg{Err: services.ErrNoRunningServices, Taken: time.Now()})
	model := next.(monitorModel)

	assert.NoError(t, model.fatal)
	assert.Empty(t, model.records)
	assert.Equal(t, "No running services found", model.notice)
	assert.NotNil(t, cmd)
}

func TestMonitorModelFatalErrorQuits(t *testing.T) {
	for _, err := range []error{
		services.ErrEmptyCluster,
		errors.New("connection refused"),
	} {
		m := testModel(t, false)

		next, cmd := m.Update(snapshotMsg{Err: err, Taken: time.Now()})
		model := next.(monitorModel)

		assert.ErrorIs(t, model.fatal, err)
		require.NotNil(t, cmd)
		assert.Equal(t, tea.Quit(), cmd())
	}
}

func TestMonitorModelToggleAll(t *testing.T) {
	m := testModel(t, false)

	next, _ := m.Update(keyMsg('a'))
	model := next.(monitorModel)
	assert.True(t, model.includeAll)
	assert.True(t, model.poller.IncludeAll())

	next, _ = model.Update(keyMsg('a'))
	model = next.(monitorModel)
	assert.False(t, model.includeAll)
	assert.False(t, model.poller.IncludeAll())
}

func TestMonitorModelToggleWide(t *testing.T) {
	m := testModel(t, false)

	next, _ := m.Update(keyMsg('w'))
	model := next.(monitorModel)
	assert.True(t, model.wide)
}

func TestMonitorModelQuitKey(t *testing.T) {
	m := testModel(t, false)

	_, cmd := m.Update(keyMsg('q'))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestMonitorModelView(t *testing.T) {
	m := testModel(t, false)
	m.loading = false
	m.records = []services.ServiceRecord{{Name: "svca", Version: "1.0", Running: true}}

	view := m.View()
	assert.Contains(t, view, "Services in bl01t")
	assert.Contains(t, view, "svca")
	assert.Contains(t, view, "[running]")
	assert.Contains(t, view, "q quit")
}
