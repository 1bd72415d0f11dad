package repo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a document id does not exist.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrInvalidQuery is returned for filters or orderings naming something
// other than a plain column identifier, or using an unknown operator.
var ErrInvalidQuery = errors.New("invalid query")

// Op is a comparison operator accepted in a Filter.
type Op string

const (
	OpEq  Op = "=="
	OpGte Op = ">="
	OpLte Op = "<="
	OpGt  Op = ">"
	OpLt  Op = "<"
)

var sqlOps = map[Op]string{OpEq: "=", OpGte: ">=", OpLte: "<=", OpGt: ">", OpLt: "<"}

// Filter is a single field comparison. Filters in a Query are ANDed.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Eq is shorthand for an equality filter.
func Eq(field string, v any) Filter { return Filter{Field: field, Op: OpEq, Value: v} }

// Query describes a filtered, ordered, optionally limited scan. Without
// OrderBy documents come back in insertion order.
type Query struct {
	Filters []Filter
	OrderBy string
	Desc    bool
	Limit   int
}

// Patch maps column names to new values for a partial update.
type Patch map[string]any

// DocumentStore is the document-style persistence contract used by the
// services: add, fetch by id, filtered query, partial update.
type DocumentStore[T any] interface {
	Add(ctx context.Context, doc *T) (string, error)
	Get(ctx context.Context, id string) (*T, error)
	Query(ctx context.Context, q Query) ([]T, error)
	Update(ctx context.Context, id string, patch Patch) error
}

// GormStore implements DocumentStore over a GORM model type. T must embed
// domain.Base (or otherwise expose GetID on its pointer).
type GormStore[T any] struct {
	db *gorm.DB
}

// NewStore returns a store for model T.
func NewStore[T any](db *gorm.DB) *GormStore[T] {
	return &GormStore[T]{db: db}
}

var identRE = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Add inserts doc and returns its id. Unique violations map to ErrDuplicate.
func (s *GormStore[T]) Add(ctx context.Context, doc *T) (string, error) {
	if err := s.db.WithContext(ctx).Create(doc).Error; err != nil {
		if isUniqueViolation(err) {
			return "", ErrDuplicate
		}
		return "", err
	}
	if d, ok := any(doc).(interface{ GetID() string }); ok {
		return d.GetID(), nil
	}
	return "", nil
}

// Get fetches one document by id or returns ErrNotFound.
func (s *GormStore[T]) Get(ctx context.Context, id string) (*T, error) {
	var out T
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Query runs a filtered scan. An empty result is not an error.
func (s *GormStore[T]) Query(ctx context.Context, q Query) ([]T, error) {
	tx := s.db.WithContext(ctx).Model(new(T))
	for _, f := range q.Filters {
		op, ok := sqlOps[f.Op]
		if !ok || !identRE.MatchString(f.Field) {
			return nil, fmt.Errorf("%w: filter %q %q", ErrInvalidQuery, f.Field, f.Op)
		}
		tx = tx.Where(fmt.Sprintf("%s %s ?", f.Field, op), f.Value)
	}

	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}
	if q.OrderBy != "" {
		if !identRE.MatchString(q.OrderBy) {
			return nil, fmt.Errorf("%w: order by %q", ErrInvalidQuery, q.OrderBy)
		}
		tx = tx.Order(q.OrderBy + " " + dir)
	} else {
		tx = tx.Order("created_at " + dir)
	}
	tx = tx.Order("id " + dir)

	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	out := make([]T, 0)
	if err := tx.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Update overwrites the patched columns of one document. A missing id
// yields ErrNotFound; an empty patch is a no-op.
func (s *GormStore[T]) Update(ctx context.Context, id string, patch Patch) error {
	if len(patch) == 0 {
		return nil
	}
	for k := range patch {
		if !identRE.MatchString(k) || k == "id" {
			return fmt.Errorf("%w: patch field %q", ErrInvalidQuery, k)
		}
	}
	res := s.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(map[string]any(patch))
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return ErrDuplicate
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// isUniqueViolation detects unique-constraint errors across drivers that may
// not translate them to gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// glebarez/sqlite returns plain-text errors for UNIQUE violations.
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "duplicate key")
}
