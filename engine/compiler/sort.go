package compiler

import (
	"github.com/omniql-engine/omnifilter/engine/models"
	"github.com/omniql-engine/omnifilter/mapping"
)

// BuildSort converts sort params into directives, preserving order.
// Empty input yields nil: the store's default ordering applies.
func BuildSort(params models.SortParams) *models.Sort {
	if len(params) == 0 {
		return nil
	}
	directives := make([]models.SortDirective, len(params))
	for i, p := range params {
		dir := models.Descending
		if p.Ascending {
			dir = models.Ascending
		}
		directives[i] = models.SortDirective{Field: p.Field, Direction: dir}
	}
	return &models.Sort{Directives: directives}
}

// BuildSort is the package function bound to c, for callers holding a Compiler.
func (c *Compiler) BuildSort(params models.SortParams) *models.Sort {
	return BuildSort(params)
}

// ValidateSort checks every directive resolves to an ordered attribute.
func (c *Compiler) ValidateSort(entity string, sort *models.Sort) error {
	if sort == nil {
		return nil
	}
	for _, d := range sort.Directives {
		kind, err := c.resolver.ResolveAttributeType(entity, d.Field)
		if err != nil {
			return err
		}
		if !mapping.IsOrdered(kind) {
			return &models.FilterError{
				Err:    models.ErrNonComparableType,
				Path:   d.Field,
				Target: string(kind),
			}
		}
	}
	return nil
}
