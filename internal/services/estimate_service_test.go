package services

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/internal/estimate"
	"github.com/planora/planora-backend/internal/repo"
)

func TestEstimate_StoresUnrounded(t *testing.T) {
	ctx := context.Background()
	s := &EstimateService{Estimates: repo.NewStore[domain.CostEstimate](newTestDB(t))}
	before := testutil.ToFloat64(estimatesComputed.WithLabelValues("1BHK"))

	id, b, err := s.Estimate(ctx, "u1", EstimateInput{ProjectType: "1BHK", Area: 1.001, Location: "Pune", QualityLevel: "Medium", NumRooms: 2})
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	unit := 1.001 * 1300 * 1.0
	if math.Abs(b.TotalCost-unit) > 1e-9*unit {
		t.Fatalf("total %v; want ~%v", b.TotalCost, unit)
	}

	rec, err := s.Estimates.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.MaterialCost != b.MaterialCost || rec.TotalCost != b.TotalCost || rec.UserID != "u1" || rec.NumRooms != 2 {
		t.Fatalf("stored record differs from computed breakdown: %+v vs %+v", rec, b)
	}
	// 520.52 material, 521 once rounded
	if rec.MaterialCost == math.Round(rec.MaterialCost) {
		t.Fatalf("stored material cost was rounded: %v", rec.MaterialCost)
	}
	if got := testutil.ToFloat64(estimatesComputed.WithLabelValues("1BHK")); got != before+1 {
		t.Fatalf("counter = %v; want %v", got, before+1)
	}
}

func TestEstimate_InvalidArea(t *testing.T) {
	s := &EstimateService{Estimates: repo.NewStore[domain.CostEstimate](newTestDB(t))}
	for _, a := range []float64{0, -10, math.Inf(1)} {
		_, _, err := s.Estimate(context.Background(), "u1", EstimateInput{ProjectType: "Villa", Area: a})
		if !errors.Is(err, ErrInvalidInput) || !errors.Is(err, estimate.ErrInvalidArea) {
			t.Fatalf("area %v: expected invalid input, got %v", a, err)
		}
	}
	if items, _ := s.List(context.Background(), "u1"); len(items) != 0 {
		t.Fatalf("invalid requests must not be stored")
	}
}

func TestEstimate_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := &EstimateService{Estimates: repo.NewStore[domain.CostEstimate](newTestDB(t))}
	var ids []string
	for _, a := range []float64{10, 20, 30} {
		id, _, err := s.Estimate(ctx, "u1", EstimateInput{ProjectType: "1BHK", Area: a})
		if err != nil {
			t.Fatalf("Estimate: %v", err)
		}
		ids = append(ids, id)
	}
	if _, _, err := s.Estimate(ctx, "u2", EstimateInput{ProjectType: "1BHK", Area: 5}); err != nil {
		t.Fatalf("Estimate: %v", err)
	}

	got, err := s.List(ctx, "u1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 3 || got[0].ID != ids[2] || got[2].ID != ids[0] {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestProjectTypeLabel(t *testing.T) {
	if projectTypeLabel("Villa") != "Villa" || projectTypeLabel("Castle") != "other" {
		t.Fatalf("unexpected labels")
	}
}
