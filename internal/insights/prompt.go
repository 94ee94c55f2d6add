package insights

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/invopop/jsonschema"

	"github.com/serafimgb/gfenormatel/internal/booking"
)

const maxRecentLines = 10

// BuildSummary aggregates active bookings into the compact shape the
// model is prompted with. Cancelled bookings are skipped.
func BuildSummary(projectID, equipmentName string, bookings []booking.Booking, focused *booking.Booking) Summary {
	sum := Summary{
		ProjectID:     projectID,
		EquipmentName: equipmentName,
		ByCostCenter:  make(map[string]int),
		ByLocation:    make(map[string]int),
	}

	active := make([]booking.Booking, 0, len(bookings))
	for _, b := range bookings {
		if !b.Active() {
			continue
		}
		active = append(active, b)
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].StartTime.After(active[j].StartTime)
	})

	for _, b := range active {
		sum.Total++
		sum.TotalHours += b.DurationHours
		if b.CostCenter != "" {
			sum.ByCostCenter[string(b.CostCenter)]++
		}
		if b.Location != "" {
			sum.ByLocation[b.Location]++
		}
		if len(sum.Recent) < maxRecentLines {
			sum.Recent = append(sum.Recent, formatLine(b))
		}
	}

	if focused != nil {
		sum.Focused = formatLine(*focused)
	}
	return sum
}

func formatLine(b booking.Booking) string {
	return fmt.Sprintf("%s %s-%s %s (%s)",
		b.StartTime.Local().Format("2006-01-02"),
		b.StartTime.Local().Format("15:04"),
		b.EndTime.Local().Format("15:04"),
		b.Requester,
		b.CostCenter)
}

// responseSchema is the JSON schema for Insight, embedded in the system
// prompt so providers without native structured output still answer in
// a parseable shape.
func responseSchema() string {
	r := jsonschema.Reflector{DoNotReference: true}
	schema := r.Reflect(&Insight{})
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return `{"type":"object","properties":{"summary":{"type":"string"}}}`
	}
	return string(data)
}

func systemPrompt() string {
	var sb strings.Builder
	sb.WriteString("You are an assistant for a heavy equipment booking system used across construction projects. ")
	sb.WriteString("You receive an aggregated summary of recent bookings and answer with short, practical observations: ")
	sb.WriteString("usage concentration, idle gaps, cost centers that dominate, scheduling hints. ")
	sb.WriteString("Answer in the language the requester names appear in when obvious, otherwise in Portuguese.\n\n")
	sb.WriteString("Respond with a single JSON object matching this schema, no markdown fences:\n")
	sb.WriteString(responseSchema())
	return sb.String()
}

func userPrompt(sum Summary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Project: %s\n", sum.ProjectID)
	fmt.Fprintf(&sb, "Equipment: %s\n", sum.EquipmentName)
	fmt.Fprintf(&sb, "Active bookings: %d (%.1f hours total)\n", sum.Total, sum.TotalHours)

	if len(sum.ByCostCenter) > 0 {
		sb.WriteString("Bookings per cost center:\n")
		for _, k := range sortedKeys(sum.ByCostCenter) {
			fmt.Fprintf(&sb, "  %s: %d\n", k, sum.ByCostCenter[k])
		}
	}
	if len(sum.ByLocation) > 0 {
		sb.WriteString("Bookings per location:\n")
		for _, k := range sortedKeys(sum.ByLocation) {
			fmt.Fprintf(&sb, "  %s: %d\n", k, sum.ByLocation[k])
		}
	}
	if len(sum.Recent) > 0 {
		sb.WriteString("Most recent bookings:\n")
		for _, line := range sum.Recent {
			fmt.Fprintf(&sb, "  %s\n", line)
		}
	}
	if sum.Focused != "" {
		fmt.Fprintf(&sb, "The user is currently looking at this booking: %s\n", sum.Focused)
	}
	fmt.Fprintf(&sb, "Today is %s.\n", time.Now().Format("2006-01-02"))
	return sb.String()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// parseInsight accepts a raw model reply and extracts an Insight.
// Models wrap JSON in fences or prose often enough that we clip to the
// outermost braces before unmarshalling; if no JSON is found the whole
// reply becomes the summary text.
func parseInsight(raw string) *Insight {
	trimmed := strings.TrimSpace(raw)

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		var in Insight
		if err := json.Unmarshal([]byte(trimmed[start:end+1]), &in); err == nil && in.Summary != "" {
			return &in
		}
	}
	return &Insight{Summary: trimmed}
}
