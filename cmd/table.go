package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"body-scan/internal/domain/entity"
)

// newTable таблица в общем для CLI стиле.
func newTable(header ...string) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	row := make(table.Row, len(header))
	for i, h := range header {
		row[i] = h
	}
	tw.AppendHeader(row)
	return tw
}

// alignRight колонки нумеруются с 1.
func alignRight(tw table.Writer, columns ...int) {
	configs := make([]table.ColumnConfig, 0, len(columns))
	for _, n := range columns {
		configs = append(configs, table.ColumnConfig{Number: n, Align: text.AlignRight, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)
}

func captureStatus(line entity.SessionLine) string {
	switch {
	case line.Captured && line.Manual:
		return "manual"
	case line.Captured:
		return "auto"
	default:
		return "missing"
	}
}

// renderSession обзор сессии по этапам, в подвале число снятых этапов.
func renderSession(session *entity.ScanSession) string {
	tw := newTable("#", "Phase", "Label", "Capture", "Landmarks")
	for i, line := range session.Summary() {
		tw.AppendRow(table.Row{i + 1, string(line.Phase), line.Label, captureStatus(line), line.Landmarks})
	}
	tw.AppendFooter(table.Row{"", "", "", fmt.Sprintf("%d/%d", session.Len(), len(entity.CapturePhases())), ""})
	alignRight(tw, 1, 5)

	return fmt.Sprintf("Session %s\n%s", session.ID, tw.Render())
}

// renderDevices список камер, "*" у камеры по умолчанию.
func renderDevices(devices []entity.DeviceDescriptor, def entity.DeviceDescriptor) string {
	tw := newTable("", "ID", "Label", "Facing", "Path")
	for _, d := range devices {
		mark := ""
		if d.ID == def.ID {
			mark = "*"
		}
		tw.AppendRow(table.Row{mark, d.ID, d.Label, string(d.Facing), d.Path})
	}
	return tw.Render()
}
