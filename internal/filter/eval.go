package filter

import (
	"fmt"

	"github.com/turbosearch/ftcore/internal/bitmap"
	"github.com/turbosearch/ftcore/internal/errs"
	"github.com/turbosearch/ftcore/internal/geo"
)

// Resolver answers the facet/geo lookups a parsed filter needs without
// internal/filter importing internal/index or internal/kv directly —
// internal/index supplies the concrete implementation at query time.
type Resolver interface {
	// IsFilterable reports whether field may be used in a predicate.
	IsFilterable(field string) bool
	// Eq/Neq/Gt/Gte/Lt/Lte return the docids matching the comparison of
	// field against value (string or float64, never both).
	Eq(field string, value Value) (*bitmap.Bitmap, error)
	Neq(field string, value Value) (*bitmap.Bitmap, error)
	Range(field string, op string, value Value) (*bitmap.Bitmap, error) // >, >=, <, <=
	Between(field string, lo, hi Value) (*bitmap.Bitmap, error)         // TO
	Exists(field string, negate bool) (*bitmap.Bitmap, error)
	// GeoWithinRadius and GeoWithinBox return the documents whose "_geo"
	// point lies inside the given circle or bounding box.
	GeoWithinRadius(center geo.Point, radiusMeters float64) (*bitmap.Bitmap, error)
	GeoWithinBox(box geo.BoundingBox) (*bitmap.Bitmap, error)
	// Universe is every docid currently live, used as the basis for NOT.
	Universe() *bitmap.Bitmap
}

// Eval resolves a parsed Expr to the matching docid set against r.
func Eval(e *Expr, r Resolver) (*bitmap.Bitmap, error) {
	return evalOr(e.Or, r)
}

func evalOr(o *OrExpr, r Resolver) (*bitmap.Bitmap, error) {
	acc, err := evalAnd(o.Left, r)
	if err != nil {
		return nil, err
	}
	for i := range o.Right {
		rhs, err := evalAnd(&o.Right[i], r)
		if err != nil {
			return nil, err
		}
		acc.Or(rhs)
	}
	return acc, nil
}

func evalAnd(a *AndExpr, r Resolver) (*bitmap.Bitmap, error) {
	acc, err := evalTerm(a.Left, r)
	if err != nil {
		return nil, err
	}
	for i := range a.Right {
		rhs, err := evalTerm(&a.Right[i], r)
		if err != nil {
			return nil, err
		}
		acc.And(rhs)
	}
	return acc, nil
}

func evalTerm(t *Term, r Resolver) (*bitmap.Bitmap, error) {
	switch {
	case t.Not != nil:
		inner, err := evalTerm(t.Not, r)
		if err != nil {
			return nil, err
		}
		universe := r.Universe().Clone()
		universe.AndNot(inner)
		return universe, nil
	case t.Sub != nil:
		return evalOr(t.Sub.Or, r)
	case t.Predicate != nil:
		return evalPredicate(t.Predicate, r)
	default:
		return nil, errs.UserInput(errs.CodeInvalidFilter, fmt.Errorf("filter: empty term"))
	}
}

func evalPredicate(p *Predicate, r Resolver) (*bitmap.Bitmap, error) {
	switch {
	case p.GeoRadius != nil:
		gr := p.GeoRadius
		return r.GeoWithinRadius(geo.Point{Lat: gr.Lat, Lng: gr.Lng}, gr.Radius)
	case p.GeoBoundingBox != nil:
		bb := p.GeoBoundingBox
		return r.GeoWithinBox(geo.BoundingBox{
			TopLeft:     geo.Point{Lat: bb.Lat1, Lng: bb.Lng1},
			BottomRight: geo.Point{Lat: bb.Lat2, Lng: bb.Lng2},
		})
	case p.Simple != nil:
		return evalSimple(p.Simple, r)
	default:
		return nil, errs.UserInput(errs.CodeInvalidFilter, fmt.Errorf("filter: empty predicate"))
	}
}

func evalSimple(s *SimplePredicate, r Resolver) (*bitmap.Bitmap, error) {
	if !r.IsFilterable(s.Field) {
		return nil, errs.WithField(errs.KindUserInput, errs.CodeUnknownField, s.Field,
			fmt.Errorf("filter: field %q is not filterable", s.Field))
	}
	switch {
	case s.In != nil:
		acc := bitmap.New()
		for _, v := range s.In.Values {
			part, err := r.Eq(s.Field, v)
			if err != nil {
				return nil, err
			}
			acc.Or(part)
		}
		return acc, nil
	case s.To != nil:
		if s.Value == nil {
			return nil, errs.UserInput(errs.CodeInvalidFilter, fmt.Errorf("filter: TO missing lower bound"))
		}
		return r.Between(s.Field, *s.Value, *s.To)
	case s.Exist != nil:
		return r.Exists(s.Field, s.Exist.Not)
	case s.Op != "" && s.Value != nil:
		switch s.Op {
		case "=":
			return r.Eq(s.Field, *s.Value)
		case "!=":
			return r.Neq(s.Field, *s.Value)
		case ">", ">=", "<", "<=":
			return r.Range(s.Field, s.Op, *s.Value)
		default:
			return nil, errs.UserInput(errs.CodeInvalidFilter, fmt.Errorf("filter: unknown operator %q", s.Op))
		}
	default:
		return nil, errs.UserInput(errs.CodeInvalidFilter, fmt.Errorf("filter: malformed predicate on field %q", s.Field))
	}
}
