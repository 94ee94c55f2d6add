// Package catalog resolves equipment types and projects, preferring
// the remote catalog and falling back to a built-in default list when
// it is unavailable. A catalog failure alone never takes the UI down.
package catalog

import (
	"context"
	"io"
	"log/slog"

	"github.com/serafimgb/gfenormatel/internal/booking"
)

// Remote is the read-only catalog slice of the store client.
type Remote interface {
	EquipmentTypes(ctx context.Context) ([]booking.EquipmentType, error)
	Projects(ctx context.Context) ([]booking.Project, error)
}

// DefaultEquipmentTypes is the hardcoded fallback catalog. Exclusive
// marks single physical units shared across every project.
func DefaultEquipmentTypes() []booking.EquipmentType {
	return []booking.EquipmentType{
		{ID: "PEMT16", Name: "PEMT 16 metros", Color: "#57B952", Icon: "lift", Mailbox: "pemt16@normatel.com.br"},
		{ID: "PEMT28", Name: "PEMT 28 metros", Color: "#4F8C0D", Icon: "lift", Mailbox: "pemt28@normatel.com.br"},
		{ID: "MUNCK", Name: "Caminhão Munck", Color: "#FF6B00", Icon: "truck", Exclusive: true, Mailbox: "munck@normatel.com.br"},
		{ID: "CESTO", Name: "Caminhão Cesto", Color: "#E8A13D", Icon: "truck", Exclusive: true, Mailbox: "cesto@normatel.com.br"},
		{ID: "RETRO", Name: "Retroescavadeira", Color: "#8C5A0D", Icon: "digger", Exclusive: true, Mailbox: "retro@normatel.com.br"},
		{ID: "TRATOR", Name: "Trator", Color: "#0D668C", Icon: "tractor", Mailbox: "trator@normatel.com.br"},
	}
}

func DefaultProjects() []booking.Project {
	return []booking.Project{
		{ID: "741", Name: "Projeto 741", Description: "Contrato de manutenção industrial"},
		{ID: "743", Name: "Projeto 743", Description: "Contrato de facilities"},
	}
}

type Service struct {
	remote Remote
	logger *slog.Logger
}

// New builds a catalog service. A nil remote always serves defaults.
func New(remote Remote, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{remote: remote, logger: logger}
}

func (s *Service) EquipmentTypes(ctx context.Context) []booking.EquipmentType {
	if s.remote != nil {
		types, err := s.remote.EquipmentTypes(ctx)
		if err == nil && len(types) > 0 {
			return types
		}
		if err != nil {
			s.logger.Warn("equipment catalog unavailable, using defaults", "error", err)
		}
	}
	return DefaultEquipmentTypes()
}

func (s *Service) Projects(ctx context.Context) []booking.Project {
	if s.remote != nil {
		projects, err := s.remote.Projects(ctx)
		if err == nil && len(projects) > 0 {
			return projects
		}
		if err != nil {
			s.logger.Warn("project catalog unavailable, using defaults", "error", err)
		}
	}
	return DefaultProjects()
}

// Resolve returns the equipment type for an id. Unknown ids come back
// as a minimal non-exclusive type, so conflict checks stay
// project-scoped for equipment the catalog does not know.
func (s *Service) Resolve(ctx context.Context, equipmentTypeID string) booking.EquipmentType {
	for _, t := range s.EquipmentTypes(ctx) {
		if t.ID == equipmentTypeID {
			return t
		}
	}
	return booking.EquipmentType{ID: equipmentTypeID, Name: equipmentTypeID}
}
