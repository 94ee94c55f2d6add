package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/serafimgb/gfenormatel/internal/booking"
)

var weekdayNames = []string{"Dom", "Seg", "Ter", "Qua", "Qui", "Sex", "Sáb"}

func (a *App) viewCalendar() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(fmt.Sprintf("Agendamentos — Projeto %s", a.projectID)))
	sb.WriteString("\n")

	if a.cal != nil {
		label := fmt.Sprintf("%s a %s",
			a.cal.Start.Format("02/01/2006"),
			a.cal.End.AddDate(0, 0, -1).Format("02/01/2006"))
		if a.cal.View == booking.ViewMonth {
			label = a.cal.Start.Format("January 2006")
		}
		if a.ccFilter >= 0 {
			label += fmt.Sprintf("  ·  carteira: %s", booking.CostCenters()[a.ccFilter])
		}
		sb.WriteString(subtitleStyle.Render(label))
		sb.WriteString("\n")

		if a.cal.View == booking.ViewMonth {
			sb.WriteString(a.renderMonth())
		} else {
			sb.WriteString(a.renderWeek())
		}
	}

	if a.status != "" {
		sb.WriteString("\n" + successStyle.Render(a.status))
	}
	if a.errMsg != "" {
		sb.WriteString("\n" + errorStyle.Render(a.errMsg))
	}

	sb.WriteString("\n")
	sb.WriteString(helpStyle.Render("n: novo • c: cancelar • d: excluir • i: análise • f: carteira • w/m: semana/mês • h/l: navegar • t: hoje • q: sair"))
	return sb.String()
}

// renderWeek lists each day with its bookings. Ghosts from other
// projects are drawn dimmed, collisions get the warning badge and
// cancelled bookings are struck through.
func (a *App) renderWeek() string {
	var sb strings.Builder

	for day := 0; day < 7; day++ {
		date := a.cal.Start.AddDate(0, 0, day)
		sb.WriteString(dayHeaderStyle.Render(fmt.Sprintf("%s %s", weekdayNames[date.Weekday()], date.Format("02/01"))))
		sb.WriteString("\n")

		lines := a.dayLines(date)
		if len(lines) == 0 {
			sb.WriteString(ghostStyle.Render("  —"))
			sb.WriteString("\n")
			continue
		}
		for _, l := range lines {
			sb.WriteString(l)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

type dayLine struct {
	start time.Time
	text  string
}

func (a *App) dayLines(date time.Time) []string {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	sel := a.selectedIdx()
	var lines []dayLine
	for i, b := range a.cal.Current {
		if !a.visible(b) || !booking.Overlaps(b.StartTime, b.EndTime, dayStart, dayEnd) {
			continue
		}
		text := a.formatBooking(b, i == sel)
		lines = append(lines, dayLine{start: b.StartTime, text: text})
	}
	for _, g := range a.cal.Ghosts {
		if !booking.Overlaps(g.StartTime, g.EndTime, dayStart, dayEnd) {
			continue
		}
		text := ghostStyle.Render(fmt.Sprintf("  %s-%s %s (projeto %s)",
			g.StartTime.Local().Format("15:04"),
			g.EndTime.Local().Format("15:04"),
			g.EquipmentTypeID,
			g.ProjectID))
		lines = append(lines, dayLine{start: g.StartTime, text: text})
	}

	sort.Slice(lines, func(i, j int) bool { return lines[i].start.Before(lines[j].start) })

	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.text
	}
	return out
}

func (a *App) formatBooking(b booking.Booking, selected bool) string {
	prefix := "  "
	if selected {
		prefix = "> "
	}

	line := fmt.Sprintf("%s%s-%s %s %s (%s)",
		prefix,
		b.StartTime.Local().Format("15:04"),
		b.EndTime.Local().Format("15:04"),
		b.EquipmentTypeID,
		b.Requester,
		b.CostCenter)

	if b.IsCancelled {
		return cancelledStyle.Render(line)
	}
	if badges := a.cal.Badges(&b); len(badges) > 0 {
		line += warningStyle.Render(fmt.Sprintf(" ⚠ projeto %s", badges[0].ProjectID))
	}
	if selected {
		return highlightStyle.Render(line)
	}
	return line
}

// renderMonth draws a compact grid: day numbers with booking counts,
// ghost-only days dimmed.
func (a *App) renderMonth() string {
	var sb strings.Builder

	for _, name := range weekdayNames {
		sb.WriteString(fmt.Sprintf("%-8s", name))
	}
	sb.WriteString("\n")

	first := a.cal.Start
	// pad to the leading Sunday
	offset := int(first.Weekday())
	col := 0
	for ; col < offset; col++ {
		sb.WriteString(strings.Repeat(" ", 8))
	}

	for day := first; day.Before(a.cal.End); day = day.AddDate(0, 0, 1) {
		own, ghosts := a.countDay(day)
		cell := fmt.Sprintf("%2d", day.Day())
		switch {
		case own > 0:
			cell = selectedStyle.Render(cell) + fmt.Sprintf(" %d", own)
		case ghosts > 0:
			cell = ghostStyle.Render(fmt.Sprintf("%s ·", cell))
		}
		sb.WriteString(fmt.Sprintf("%-8s", cell))

		col++
		if col == 7 {
			sb.WriteString("\n")
			col = 0
		}
	}
	if col != 0 {
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(subtitleStyle.Render(fmt.Sprintf("%d agendamentos no mês", len(a.cal.Current))))
	sb.WriteString("\n")
	return sb.String()
}

func (a *App) countDay(date time.Time) (own, ghosts int) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	for _, b := range a.cal.Current {
		if a.visible(b) && booking.Overlaps(b.StartTime, b.EndTime, dayStart, dayEnd) {
			own++
		}
	}
	for _, g := range a.cal.Ghosts {
		if booking.Overlaps(g.StartTime, g.EndTime, dayStart, dayEnd) {
			ghosts++
		}
	}
	return own, ghosts
}

func (a *App) viewCancel() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Cancelar agendamento"))
	sb.WriteString("\n")
	if a.cancelFor != nil {
		sb.WriteString(subtitleStyle.Render(fmt.Sprintf("%s %s-%s (%s)",
			a.cancelFor.EquipmentTypeID,
			a.cancelFor.StartTime.Local().Format("02/01 15:04"),
			a.cancelFor.EndTime.Local().Format("15:04"),
			a.cancelFor.Requester)))
		sb.WriteString("\n")
	}
	sb.WriteString(a.cancelInput.View())
	sb.WriteString("\n")
	sb.WriteString(helpStyle.Render("Enter: confirmar • Esc: voltar"))
	return boxStyle.Render(sb.String())
}

func (a *App) viewInsight() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Análise de uso"))
	sb.WriteString("\n")
	if a.insight != nil {
		sb.WriteString(a.insight.Summary)
		sb.WriteString("\n")
		for _, h := range a.insight.Highlights {
			sb.WriteString(highlightStyle.Render("• ") + h + "\n")
		}
	}
	sb.WriteString("\n")
	sb.WriteString(helpStyle.Render("Qualquer tecla para voltar"))
	return boxStyle.Render(sb.String())
}
