// Package estimate computes renovation cost breakdowns from a project type,
// a floor area and a finish quality. The unit cost is
//
//	area * baseRate(projectType) * multiplier(qualityLevel)
//
// split into material (40%), labor (35%), design (15%) and permit (10%).
// Unknown project types and quality levels fall back to documented defaults
// instead of failing.
package estimate

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// Default rates applied to unrecognized inputs.
const (
	DefaultBaseRate   = 1500.0
	DefaultMultiplier = 1.0
)

// Component weights of the unit cost. They sum to 1.
const (
	MaterialShare = 0.40
	LaborShare    = 0.35
	DesignShare   = 0.15
	PermitShare   = 0.10
)

// ErrInvalidArea is returned when area is not a finite number > 0.
var ErrInvalidArea = errors.New("area must be a positive number")

var baseRates = map[string]float64{
	"3BHK":       1500,
	"2BHK":       1400,
	"1BHK":       1300,
	"Villa":      2000,
	"Commercial": 2500,
}

var qualityMultipliers = map[string]float64{
	"Low":    0.8,
	"Medium": 1.0,
	"High":   1.5,
	"Luxury": 2.0,
}

// BaseRate returns the per-unit-area rate for projectType, or DefaultBaseRate.
func BaseRate(projectType string) float64 {
	if r, ok := baseRates[projectType]; ok {
		return r
	}
	return DefaultBaseRate
}

// Known reports whether projectType has its own base rate.
func Known(projectType string) bool {
	_, ok := baseRates[projectType]
	return ok
}

// Multiplier returns the quality multiplier, or DefaultMultiplier.
func Multiplier(qualityLevel string) float64 {
	if m, ok := qualityMultipliers[qualityLevel]; ok {
		return m
	}
	return DefaultMultiplier
}

// Breakdown holds unrounded cost components.
type Breakdown struct {
	MaterialCost float64 `json:"material_cost"`
	LaborCost    float64 `json:"labor_cost"`
	DesignCost   float64 `json:"design_cost"`
	PermitCost   float64 `json:"permit_cost"`
	TotalCost    float64 `json:"total_cost"`
}

// Rounded returns a copy with every component rounded to the nearest integer
// for display. Stored records keep the unrounded values.
func (b Breakdown) Rounded() Breakdown {
	return Breakdown{
		MaterialCost: math.Round(b.MaterialCost),
		LaborCost:    math.Round(b.LaborCost),
		DesignCost:   math.Round(b.DesignCost),
		PermitCost:   math.Round(b.PermitCost),
		TotalCost:    math.Round(b.TotalCost),
	}
}

// Compute returns the cost breakdown. TotalCost is the sum of the four
// components.
func Compute(projectType string, area float64, qualityLevel string) (Breakdown, error) {
	if math.IsNaN(area) || math.IsInf(area, 0) || area <= 0 {
		return Breakdown{}, ErrInvalidArea
	}
	unit := area * BaseRate(projectType) * Multiplier(qualityLevel)

	b := Breakdown{
		MaterialCost: unit * MaterialShare,
		LaborCost:    unit * LaborShare,
		DesignCost:   unit * DesignShare,
		PermitCost:   unit * PermitShare,
	}
	b.TotalCost = b.MaterialCost + b.LaborCost + b.DesignCost + b.PermitCost
	return b, nil
}

// ParseArea parses a textual area. Surrounding whitespace is ignored; the
// value must be a finite number > 0.
func ParseArea(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0, ErrInvalidArea
	}
	return f, nil
}
