package catalog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/serafimgb/gfenormatel/internal/booking"
	"github.com/serafimgb/gfenormatel/internal/catalog"
)

type fakeRemote struct {
	types    []booking.EquipmentType
	projects []booking.Project
	err      error
}

func (f *fakeRemote) EquipmentTypes(context.Context) ([]booking.EquipmentType, error) {
	return f.types, f.err
}

func (f *fakeRemote) Projects(context.Context) ([]booking.Project, error) {
	return f.projects, f.err
}

func TestRemoteCatalogPreferred(t *testing.T) {
	remote := &fakeRemote{
		types:    []booking.EquipmentType{{ID: "GRU", Name: "Grua", Exclusive: true}},
		projects: []booking.Project{{ID: "900", Name: "Projeto 900"}},
	}
	svc := catalog.New(remote, nil)

	types := svc.EquipmentTypes(context.Background())
	if len(types) != 1 || types[0].ID != "GRU" {
		t.Errorf("types = %+v, want remote catalog", types)
	}
	projects := svc.Projects(context.Background())
	if len(projects) != 1 || projects[0].ID != "900" {
		t.Errorf("projects = %+v, want remote catalog", projects)
	}
}

func TestFallbackOnFailure(t *testing.T) {
	svc := catalog.New(&fakeRemote{err: errors.New("store unavailable")}, nil)

	types := svc.EquipmentTypes(context.Background())
	if len(types) == 0 {
		t.Fatal("expected default equipment types on remote failure")
	}
	projects := svc.Projects(context.Background())
	if len(projects) == 0 {
		t.Fatal("expected default projects on remote failure")
	}
}

func TestResolve_UnknownIsNonExclusive(t *testing.T) {
	svc := catalog.New(nil, nil)

	et := svc.Resolve(context.Background(), "MUNCK")
	if !et.Exclusive {
		t.Error("default MUNCK should be exclusive")
	}

	unknown := svc.Resolve(context.Background(), "EMPILHADEIRA")
	if unknown.Exclusive {
		t.Error("unknown equipment types must resolve as non-exclusive")
	}
	if unknown.ID != "EMPILHADEIRA" {
		t.Errorf("unknown id = %q", unknown.ID)
	}
}
