package notify

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/serafimgb/gfenormatel/internal/booking"
)

var bookingTmpl = template.Must(template.New("booking").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background: linear-gradient(135deg, #FF6B00, #FF8C33); padding: 20px; border-radius: 8px 8px 0 0;">
    <h1 style="color: white; margin: 0; font-size: 18px;">{{.Title}}</h1>
    <p style="color: rgba(255,255,255,0.9); margin: 5px 0 0;">{{.ProjectName}}</p>
  </div>
  <div style="border: 1px solid #e5e7eb; border-top: none; padding: 20px; border-radius: 0 0 8px 8px;">
    <table style="width: 100%; border-collapse: collapse;">
      <tr><td style="padding: 8px 0; font-weight: bold; color: #666; width: 40%;">Equipamento</td><td style="padding: 8px 0;">{{.EquipmentName}}</td></tr>
      <tr><td style="padding: 8px 0; font-weight: bold; color: #666;">Solicitante</td><td style="padding: 8px 0;">{{.Requester}}</td></tr>
      <tr><td style="padding: 8px 0; font-weight: bold; color: #666;">Carteira</td><td style="padding: 8px 0;">{{.CostCenter}}</td></tr>
      <tr><td style="padding: 8px 0; font-weight: bold; color: #666;">Local</td><td style="padding: 8px 0;">{{.Location}}</td></tr>
      <tr><td style="padding: 8px 0; font-weight: bold; color: #666;">Data</td><td style="padding: 8px 0;">{{.Date}}</td></tr>
      <tr><td style="padding: 8px 0; font-weight: bold; color: #666;">Horário</td><td style="padding: 8px 0;">{{.Time}}</td></tr>
      <tr><td style="padding: 8px 0; font-weight: bold; color: #666;">Duração</td><td style="padding: 8px 0;">{{.Duration}}h</td></tr>
    </table>
    {{if .Reason}}
    <div style="margin-top: 16px; padding: 12px; background: #f9fafb; border-radius: 6px;">
      <p style="margin: 0; font-weight: bold; color: #666; font-size: 12px;">MOTIVO</p>
      <p style="margin: 4px 0 0;">{{.Reason}}</p>
    </div>
    {{end}}
  </div>
</div>
`))

type emailData struct {
	Title         string
	ProjectName   string
	EquipmentName string
	Requester     string
	CostCenter    string
	Location      string
	Date          string
	Time          string
	Duration      float64
	Reason        string
}

func render(title string, b booking.Booking, equipmentName string) (Message, error) {
	start := b.StartTime.Local()
	data := emailData{
		Title:         title,
		ProjectName:   b.ProjectID,
		EquipmentName: equipmentName,
		Requester:     b.Requester,
		CostCenter:    string(b.CostCenter),
		Location:      b.Location,
		Date:          start.Format("02/01/2006"),
		Time:          fmt.Sprintf("%s - %s", start.Format("15:04"), b.EndTime.Local().Format("15:04")),
		Duration:      b.DurationHours,
		Reason:        b.Reason,
	}

	var sb strings.Builder
	if err := bookingTmpl.Execute(&sb, data); err != nil {
		return Message{}, fmt.Errorf("rendering booking email: %w", err)
	}

	text := fmt.Sprintf("%s\nEquipamento: %s\nSolicitante: %s\nCarteira: %s\nLocal: %s\nData: %s %s\nDuração: %vh",
		title, equipmentName, b.Requester, b.CostCenter, b.Location, data.Date, data.Time, b.DurationHours)

	return Message{
		Subject: fmt.Sprintf("%s - %s - %s", title, equipmentName, b.ProjectID),
		HTML:    sb.String(),
		Text:    text,
	}, nil
}

// BookingCreated renders the email announcing a new booking.
func BookingCreated(b booking.Booking, equipmentName string) (Message, error) {
	return render("Novo Agendamento", b, equipmentName)
}

// BookingCancelled renders the email announcing a cancellation.
func BookingCancelled(b booking.Booking, equipmentName string) (Message, error) {
	msg, err := render("Agendamento Cancelado", b, equipmentName)
	if err != nil {
		return Message{}, err
	}
	if b.CancellationReason != "" {
		msg.Text += "\nMotivo do cancelamento: " + b.CancellationReason
	}
	return msg, nil
}
