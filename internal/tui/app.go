package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/serafimgb/gfenormatel/internal/agenda"
	"github.com/serafimgb/gfenormatel/internal/booking"
	"github.com/serafimgb/gfenormatel/internal/config"
	"github.com/serafimgb/gfenormatel/internal/insights"
)

type viewState int

const (
	calendarView viewState = iota
	loadingView
	formView
	cancelView
	insightView
)

type loadedMsg struct {
	cal       *agenda.Calendar
	equipment []booking.EquipmentType
	err       error
}

type savedMsg struct {
	created int
	err     error
}

type cancelledMsg struct {
	err error
}

type insightMsg struct {
	insight *insights.Insight
	err     error
}

type App struct {
	svc *agenda.Service
	cfg *config.Config

	state     viewState
	view      booking.ViewType
	anchor    time.Time
	projectID string

	cal       *agenda.Calendar
	equipment []booking.EquipmentType
	cursor    int
	// -1 shows every cost center; otherwise an index into
	// booking.CostCenters()
	ccFilter int

	spinner     spinner.Model
	form        formModel
	cancelInput textinput.Model
	cancelFor   *booking.Booking

	insight *insights.Insight
	status  string
	errMsg  string
}

func NewApp(svc *agenda.Service, cfg *config.Config) *App {
	s := spinner.New()
	s.Spinner = spinner.Dot

	ci := textinput.New()
	ci.Placeholder = "Motivo do cancelamento"
	ci.CharLimit = 200
	ci.Width = 50

	return &App{
		svc:         svc,
		cfg:         cfg,
		state:       loadingView,
		view:        booking.ViewWeek,
		anchor:      time.Now(),
		projectID:   cfg.Booking.ProjectID,
		ccFilter:    -1,
		spinner:     s,
		cancelInput: ci,
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.load())
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
	case loadedMsg:
		return a.handleLoaded(msg)
	case savedMsg:
		return a.handleSaved(msg)
	case cancelledMsg:
		return a.handleCancelled(msg)
	case insightMsg:
		return a.handleInsight(msg)
	}

	switch a.state {
	case calendarView:
		return a.updateCalendar(msg)
	case loadingView:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	case formView:
		return a.updateForm(msg)
	case cancelView:
		return a.updateCancel(msg)
	case insightView:
		if _, ok := msg.(tea.KeyMsg); ok {
			a.state = calendarView
			a.insight = nil
		}
		return a, nil
	}
	return a, nil
}

func (a *App) View() string {
	switch a.state {
	case loadingView:
		return a.spinner.View() + " Carregando..."
	case calendarView:
		return a.viewCalendar()
	case formView:
		return a.form.View()
	case cancelView:
		return a.viewCancel()
	case insightView:
		return a.viewInsight()
	}
	return ""
}

func (a *App) updateCalendar(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}

	switch keyMsg.String() {
	case "q":
		return a, tea.Quit
	case "w":
		a.view = booking.ViewWeek
		return a, a.reload()
	case "m":
		a.view = booking.ViewMonth
		return a, a.reload()
	case "left", "h":
		a.anchor = a.shift(-1)
		return a, a.reload()
	case "right", "l":
		a.anchor = a.shift(1)
		return a, a.reload()
	case "t":
		a.anchor = time.Now()
		return a, a.reload()
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.visibleIdx())-1 {
			a.cursor++
		}
	case "n":
		a.state = formView
		a.form = newFormModel(a.equipment, a.cfg)
		return a, a.form.Focus()
	case "c":
		if b := a.selected(); b != nil && b.Active() {
			a.cancelFor = b
			a.cancelInput.SetValue("")
			a.state = cancelView
			return a, a.cancelInput.Focus()
		}
	case "d":
		if b := a.selected(); b != nil {
			a.state = loadingView
			return a, tea.Batch(a.spinner.Tick, a.deleteBooking(b.ID))
		}
	case "i":
		a.state = loadingView
		var focused *booking.Booking
		var equipmentID string
		if b := a.selected(); b != nil {
			focused = b
			equipmentID = b.EquipmentTypeID
		}
		return a, tea.Batch(a.spinner.Tick, a.queryInsight(equipmentID, focused))
	case "f":
		a.ccFilter++
		if a.ccFilter >= len(booking.CostCenters()) {
			a.ccFilter = -1
		}
		a.cursor = 0
	case "r":
		return a, a.reload()
	}
	return a, nil
}

// visible applies the cost-center filter to the project's bookings.
func (a *App) visible(b booking.Booking) bool {
	if a.ccFilter < 0 {
		return true
	}
	return b.CostCenter == booking.CostCenters()[a.ccFilter]
}

func (a *App) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			a.state = calendarView
			return a, nil
		case "enter":
			if a.form.onLastField() {
				b, everywhere, err := a.form.Result(a.projectID)
				if err != nil {
					a.form.errMsg = err.Error()
					return a, nil
				}
				a.state = loadingView
				return a, tea.Batch(a.spinner.Tick, a.save(b, everywhere))
			}
			a.form.next()
			return a, nil
		}
	}

	var cmd tea.Cmd
	a.form, cmd = a.form.Update(msg)
	return a, cmd
}

func (a *App) updateCancel(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			a.state = calendarView
			a.cancelFor = nil
			return a, nil
		case "enter":
			if a.cancelInput.Value() == "" {
				return a, nil
			}
			b := *a.cancelFor
			reason := a.cancelInput.Value()
			a.state = loadingView
			return a, tea.Batch(a.spinner.Tick, a.cancelBooking(b, reason))
		}
	}

	var cmd tea.Cmd
	a.cancelInput, cmd = a.cancelInput.Update(msg)
	return a, cmd
}

func (a *App) handleLoaded(msg loadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		a.errMsg = msg.err.Error()
		a.state = calendarView
		return a, nil
	}
	a.cal = msg.cal
	if msg.equipment != nil {
		a.equipment = msg.equipment
	}
	if a.cursor >= len(a.visibleIdx()) {
		a.cursor = 0
	}
	a.errMsg = ""
	a.state = calendarView
	return a, nil
}

func (a *App) handleSaved(msg savedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		a.errMsg = msg.err.Error()
		a.status = ""
		a.state = calendarView
		return a, nil
	}
	if msg.created > 1 {
		a.status = fmt.Sprintf("Agendado em %d projetos", msg.created)
	} else {
		a.status = "Agendamento criado"
	}
	a.errMsg = ""
	return a, a.reload()
}

func (a *App) handleCancelled(msg cancelledMsg) (tea.Model, tea.Cmd) {
	a.cancelFor = nil
	if msg.err != nil {
		a.errMsg = msg.err.Error()
		a.state = calendarView
		return a, nil
	}
	a.status = "Agendamento cancelado"
	a.errMsg = ""
	return a, a.reload()
}

func (a *App) handleInsight(msg insightMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		a.errMsg = insightErrMessage(msg.err)
		a.state = calendarView
		return a, nil
	}
	a.insight = msg.insight
	a.state = insightView
	return a, nil
}

// visibleIdx maps cursor positions onto cal.Current: only bookings
// that pass the cost-center filter are selectable.
func (a *App) visibleIdx() []int {
	if a.cal == nil {
		return nil
	}
	var idx []int
	for i, b := range a.cal.Current {
		if a.visible(b) {
			idx = append(idx, i)
		}
	}
	return idx
}

// selectedIdx is the cal.Current index under the cursor, or -1 when
// nothing visible is selected.
func (a *App) selectedIdx() int {
	idx := a.visibleIdx()
	if a.cursor >= len(idx) {
		return -1
	}
	return idx[a.cursor]
}

func (a *App) selected() *booking.Booking {
	i := a.selectedIdx()
	if i < 0 {
		return nil
	}
	b := a.cal.Current[i]
	return &b
}

func (a *App) shift(direction int) time.Time {
	if a.view == booking.ViewMonth {
		return a.anchor.AddDate(0, direction, 0)
	}
	return a.anchor.AddDate(0, 0, 7*direction)
}

func (a *App) load() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		cal, err := a.svc.Calendar(ctx, a.projectID, a.view, a.anchor)
		if err != nil {
			return loadedMsg{err: err}
		}
		return loadedMsg{cal: cal, equipment: a.svc.Catalog().EquipmentTypes(ctx)}
	}
}

func (a *App) reload() tea.Cmd {
	a.state = loadingView
	return tea.Batch(a.spinner.Tick, a.load())
}

func (a *App) save(b *booking.Booking, everywhere bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if everywhere {
			created, err := a.svc.CreateEverywhere(ctx, b)
			return savedMsg{created: len(created), err: err}
		}
		_, err := a.svc.Create(ctx, b)
		return savedMsg{created: 1, err: err}
	}
}

func (a *App) cancelBooking(b booking.Booking, reason string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return cancelledMsg{err: a.svc.Cancel(ctx, b, reason)}
	}
}

func (a *App) deleteBooking(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := a.svc.Delete(ctx, id); err != nil {
			return cancelledMsg{err: err}
		}
		return cancelledMsg{}
	}
}

func (a *App) queryInsight(equipmentTypeID string, focused *booking.Booking) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		in, err := a.svc.Insight(ctx, a.projectID, equipmentTypeID, focused)
		return insightMsg{insight: in, err: err}
	}
}

func insightErrMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, insights.ErrRateLimited):
		return "Limite de requisições atingido, tente novamente em instantes"
	case errors.Is(err, insights.ErrQuotaExhausted):
		return "Créditos de IA esgotados"
	default:
		return "Não foi possível gerar a análise: " + err.Error()
	}
}
