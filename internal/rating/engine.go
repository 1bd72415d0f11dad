// Package rating maintains the denormalized rating aggregate on professional
// records. Every recomputation is a full scan of the professional's reviews:
// the aggregate is never incremented, so after each write it equals the mean
// of the review set as it was read.
//
// Known limitation: the read-compute-write cycle is not transactional with
// the review insert that triggers it. Two submissions for the same
// professional can interleave so that the slower cycle, which read fewer
// reviews, writes last. The stored total_reviews then undercounts by one
// until the next review arrives. Nothing repairs this in the background.
package rating

import (
	"context"
	"fmt"

	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/internal/repo"
)

// Aggregate is the pair written back onto a professional.
type Aggregate struct {
	Rating       float64 `json:"rating"`
	TotalReviews int     `json:"total_reviews"`
}

// Compute returns the mean of ratings and their count. With no ratings the
// mean is 0 rather than NaN.
func Compute(ratings []float64) Aggregate {
	if len(ratings) == 0 {
		return Aggregate{Rating: 0, TotalReviews: 0}
	}
	var sum float64
	for _, r := range ratings {
		sum += r
	}
	return Aggregate{Rating: sum / float64(len(ratings)), TotalReviews: len(ratings)}
}

// ReviewSource lists reviews.
type ReviewSource interface {
	Query(ctx context.Context, q repo.Query) ([]domain.Review, error)
}

// AggregateSink persists a patch on a professional.
type AggregateSink interface {
	Update(ctx context.Context, id string, patch repo.Patch) error
}

// Engine recomputes and persists aggregates.
type Engine struct {
	Reviews       ReviewSource
	Professionals AggregateSink
}

// Aggregate reads every review for professionalID and computes the aggregate
// without persisting it.
func (e *Engine) Aggregate(ctx context.Context, professionalID string) (Aggregate, error) {
	reviews, err := e.Reviews.Query(ctx, repo.Query{
		Filters: []repo.Filter{repo.Eq("professional_id", professionalID)},
	})
	if err != nil {
		return Aggregate{}, fmt.Errorf("list reviews: %w", err)
	}
	ratings := make([]float64, len(reviews))
	for i, r := range reviews {
		ratings[i] = r.Rating
	}
	return Compute(ratings), nil
}

// Persist overwrites the professional's rating and total_reviews with agg.
func (e *Engine) Persist(ctx context.Context, professionalID string, agg Aggregate) error {
	err := e.Professionals.Update(ctx, professionalID, repo.Patch{
		"rating":        agg.Rating,
		"total_reviews": agg.TotalReviews,
	})
	if err != nil {
		return fmt.Errorf("persist aggregate: %w", err)
	}
	return nil
}

// Recompute is Aggregate followed by Persist.
func (e *Engine) Recompute(ctx context.Context, professionalID string) (Aggregate, error) {
	agg, err := e.Aggregate(ctx, professionalID)
	if err != nil {
		return Aggregate{}, err
	}
	if err := e.Persist(ctx, professionalID, agg); err != nil {
		return Aggregate{}, err
	}
	return agg, nil
}
