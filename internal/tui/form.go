package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	naturaldate "github.com/tj/go-naturaldate"

	"github.com/serafimgb/gfenormatel/internal/booking"
	"github.com/serafimgb/gfenormatel/internal/config"
)

type formField int

const (
	fieldEquipment formField = iota
	fieldDate
	fieldHours
	fieldRequester
	fieldCostCenter
	fieldLocation
	fieldReason
	fieldCount
)

// text inputs indexed by formField; selector fields stay nil
type formModel struct {
	equipment   []booking.EquipmentType
	equipCursor int
	costCenters []booking.CostCenter
	ccCursor    int
	inputs      [fieldCount]*textinput.Model
	focus       formField
	everywhere  bool
	errMsg      string
}

func newFormModel(equipment []booking.EquipmentType, cfg *config.Config) formModel {
	m := formModel{
		equipment:   equipment,
		costCenters: booking.CostCenters(),
	}

	mk := func(placeholder, value string, width int) *textinput.Model {
		ti := textinput.New()
		ti.Placeholder = placeholder
		ti.CharLimit = 200
		ti.Width = width
		if value != "" {
			ti.SetValue(value)
		}
		return &ti
	}

	m.inputs[fieldDate] = mk("tomorrow at 8am", "", 40)
	m.inputs[fieldHours] = mk("2", "", 10)
	m.inputs[fieldRequester] = mk("Nome do solicitante", cfg.Booking.Requester, 40)
	m.inputs[fieldLocation] = mk("Local do serviço", "", 40)
	m.inputs[fieldReason] = mk("Motivo", "", 50)

	if cfg.Booking.CostCenter != "" {
		for i, cc := range m.costCenters {
			if string(cc) == cfg.Booking.CostCenter {
				m.ccCursor = i
			}
		}
	}
	return m
}

func (m *formModel) Focus() tea.Cmd {
	if in := m.inputs[m.focus]; in != nil {
		return in.Focus()
	}
	return nil
}

func (m *formModel) next() {
	if in := m.inputs[m.focus]; in != nil {
		in.Blur()
	}
	m.focus = (m.focus + 1) % fieldCount
	if in := m.inputs[m.focus]; in != nil {
		in.Focus()
	}
}

func (m *formModel) prev() {
	if in := m.inputs[m.focus]; in != nil {
		in.Blur()
	}
	m.focus = (m.focus + fieldCount - 1) % fieldCount
	if in := m.inputs[m.focus]; in != nil {
		in.Focus()
	}
}

func (m *formModel) onLastField() bool {
	return m.focus == fieldCount-1
}

func (m formModel) Update(msg tea.Msg) (formModel, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "tab", "down":
			m.next()
			return m, nil
		case "shift+tab", "up":
			m.prev()
			return m, nil
		case "ctrl+e":
			m.everywhere = !m.everywhere
			return m, nil
		case "left":
			switch m.focus {
			case fieldEquipment:
				if m.equipCursor > 0 {
					m.equipCursor--
				}
				return m, nil
			case fieldCostCenter:
				if m.ccCursor > 0 {
					m.ccCursor--
				}
				return m, nil
			}
		case "right":
			switch m.focus {
			case fieldEquipment:
				if m.equipCursor < len(m.equipment)-1 {
					m.equipCursor++
				}
				return m, nil
			case fieldCostCenter:
				if m.ccCursor < len(m.costCenters)-1 {
					m.ccCursor++
				}
				return m, nil
			}
		}
	}

	if in := m.inputs[m.focus]; in != nil {
		updated, cmd := in.Update(msg)
		*in = updated
		return m, cmd
	}
	return m, nil
}

// Result builds the booking from the form. The date field accepts
// natural language ("tomorrow at 8am") or dd/mm/yyyy hh:mm.
func (m *formModel) Result(projectID string) (*booking.Booking, bool, error) {
	if len(m.equipment) == 0 {
		return nil, false, fmt.Errorf("nenhum equipamento disponível")
	}
	eq := m.equipment[m.equipCursor]

	start, err := parseStart(m.inputs[fieldDate].Value())
	if err != nil {
		return nil, false, err
	}

	hours, err := strconv.ParseFloat(strings.TrimSpace(m.inputs[fieldHours].Value()), 64)
	if err != nil {
		return nil, false, fmt.Errorf("duração inválida: %q", m.inputs[fieldHours].Value())
	}

	b := booking.New(
		eq.ID,
		projectID,
		m.inputs[fieldRequester].Value(),
		m.costCenters[m.ccCursor],
		m.inputs[fieldLocation].Value(),
		m.inputs[fieldReason].Value(),
		start,
		hours,
	)
	if err := b.Validate(); err != nil {
		return nil, false, err
	}
	return b, m.everywhere, nil
}

func parseStart(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("informe a data")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("02/01/2006 15:04", s, time.Local); err == nil {
		return t, nil
	}
	t, err := naturaldate.Parse(s, time.Now(), naturaldate.WithDirection(naturaldate.Future))
	if err != nil {
		return time.Time{}, fmt.Errorf("data inválida: %q", s)
	}
	return t, nil
}

func (m formModel) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Novo agendamento"))
	sb.WriteString("\n")

	sb.WriteString(m.selectorLine(fieldEquipment, "Equipamento", m.equipmentLabel()))
	sb.WriteString(m.inputLine(fieldDate, "Início"))
	sb.WriteString(m.inputLine(fieldHours, "Duração (horas)"))
	sb.WriteString(m.inputLine(fieldRequester, "Solicitante"))
	sb.WriteString(m.selectorLine(fieldCostCenter, "Carteira", string(m.costCenters[m.ccCursor])))
	sb.WriteString(m.inputLine(fieldLocation, "Local"))
	sb.WriteString(m.inputLine(fieldReason, "Motivo"))

	if m.everywhere {
		sb.WriteString("\n" + warningStyle.Render("Agendar em todos os projetos"))
	}
	if m.errMsg != "" {
		sb.WriteString("\n" + errorStyle.Render(m.errMsg))
	}

	sb.WriteString("\n")
	sb.WriteString(helpStyle.Render("Tab: próximo campo • ←/→: opções • Ctrl+E: todos os projetos • Enter no último campo: salvar • Esc: voltar"))
	return boxStyle.Render(sb.String())
}

func (m formModel) equipmentLabel() string {
	if len(m.equipment) == 0 {
		return "—"
	}
	eq := m.equipment[m.equipCursor]
	label := eq.Name
	if eq.Exclusive {
		label += warningStyle.Render(" (exclusivo)")
	}
	return label
}

func (m formModel) selectorLine(f formField, label, value string) string {
	name := fmt.Sprintf("%-18s", label)
	if m.focus == f {
		return selectedStyle.Render(name) + "◀ " + value + " ▶\n"
	}
	return name + value + "\n"
}

func (m formModel) inputLine(f formField, label string) string {
	name := fmt.Sprintf("%-18s", label)
	if m.focus == f {
		name = selectedStyle.Render(name)
	}
	return name + m.inputs[f].View() + "\n"
}
