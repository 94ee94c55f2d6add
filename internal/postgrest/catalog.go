package postgrest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/serafimgb/gfenormatel/internal/booking"
)

// EquipmentTypes lists the equipment catalog ordered by name. Results
// are cached; call from any goroutine.
func (c *Client) EquipmentTypes(ctx context.Context) ([]booking.EquipmentType, error) {
	rows := c.equipCache.Get()
	if rows == nil {
		q := url.Values{}
		q.Set("order", "name.asc")
		data, err := c.doRequest(ctx, http.MethodGet, "/equipment_types", q, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("querying equipment types: %w", err)
		}
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, fmt.Errorf("parsing equipment types response: %w", err)
		}
		c.equipCache.Set(rows)
	}

	out := make([]booking.EquipmentType, 0, len(rows))
	for _, r := range rows {
		out = append(out, booking.EquipmentType{
			ID:        r.ID,
			Name:      r.Name,
			Color:     r.Color,
			Icon:      r.Icon,
			Exclusive: r.Exclusive,
			Mailbox:   r.Mailbox,
		})
	}
	return out, nil
}

// Projects lists the project catalog ordered by name, cached like
// EquipmentTypes.
func (c *Client) Projects(ctx context.Context) ([]booking.Project, error) {
	rows := c.projCache.Get()
	if rows == nil {
		q := url.Values{}
		q.Set("order", "name.asc")
		data, err := c.doRequest(ctx, http.MethodGet, "/projects", q, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("querying projects: %w", err)
		}
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, fmt.Errorf("parsing projects response: %w", err)
		}
		c.projCache.Set(rows)
	}

	out := make([]booking.Project, 0, len(rows))
	for _, r := range rows {
		out = append(out, booking.Project{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
		})
	}
	return out, nil
}
