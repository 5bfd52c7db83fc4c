// Package filter parses and evaluates the filter grammar of spec §6, used
// both by search (the `filter` query param) and by delete-by-filter. The
// grammar is expressed as a participle struct grammar (the library surfaces
// via cuemby-warren's go.mod as an indirect dependency — no other parser
// library appears in the pack, and a hand-rolled recursive-descent parser
// would duplicate exactly what participle already does well for this
// shape of EBNF).
package filter

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var filterLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(\\"|[^"])*"`},
	{Name: "Number", Pattern: `[-+]?\d*\.?\d+([eE][-+]?\d+)?`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_.]*`},
	{Name: "Punct", Pattern: `[(),\[\]]`},
	{Name: "Op", Pattern: `!=|>=|<=|=|>|<`},
	{Name: "whitespace", Pattern: `\s+`},
})

// Expr is the root of a parsed filter (spec grammar's `expr`).
type Expr struct {
	Or *OrExpr `parser:"@@"`
}

// OrExpr is `or = and { "OR" and }`.
type OrExpr struct {
	Left  *AndExpr  `parser:"@@"`
	Right []AndExpr `parser:"( \"OR\" @@ )*"`
}

// AndExpr is `and = term { "AND" term }`.
type AndExpr struct {
	Left  *Term  `parser:"@@"`
	Right []Term `parser:"( \"AND\" @@ )*"`
}

// Term is `term = "NOT" term | "(" expr ")" | predicate`.
type Term struct {
	Not       *Term      `parser:"(  \"NOT\" @@"`
	Sub       *Expr      `parser:" | \"(\" @@ \")\""`
	Predicate *Predicate `parser:" | @@ )"`
}

// Predicate is the full `predicate` alternation, including the geo
// function-call forms.
type Predicate struct {
	GeoRadius      *GeoRadiusPred      `parser:"(  @@"`
	GeoBoundingBox *GeoBoundingBoxPred `parser:" | @@"`
	Simple         *SimplePredicate    `parser:" | @@ )"`
}

// SimplePredicate covers `field op value`, `field IN [...]`, and
// `field TO value`.
type SimplePredicate struct {
	Field string   `parser:"@Ident"`
	In    *InList  `parser:"( @@"`
	To    *Value   `parser:" | \"TO\" @@"`
	Op    string   `parser:" | @Op"`
	Exist *Existsp `parser:" | @@ )"`
	Value *Value   `parser:"@@?"`
}

// Existsp captures EXISTS / NOT EXISTS as a two-token operator.
type Existsp struct {
	Not    bool `parser:"@\"NOT\"?"`
	Exists bool `parser:"@\"EXISTS\""`
}

// InList is `"IN" "[" value {"," value} "]"`.
type InList struct {
	In     bool    `parser:"@\"IN\""`
	Open   bool    `parser:"\"[\""`
	Values []Value `parser:"@@ ( \",\" @@ )*"`
	Close  bool    `parser:"\"]\""`
}

// Value is a quoted string, bare word, or number.
type Value struct {
	Str    *string  `parser:"  @String"`
	Number *float64 `parser:"| @Number"`
	Word   *string  `parser:"| @Ident"`
}

// GeoRadiusPred is `_geoRadius(lat, lng, radius)`.
type GeoRadiusPred struct {
	Keyword string  `parser:"@\"_geoRadius\""`
	Lat     float64 `parser:"\"(\" @Number \",\""`
	Lng     float64 `parser:"@Number \",\""`
	Radius  float64 `parser:"@Number \")\""`
}

// GeoBoundingBoxPred is `_geoBoundingBox([lat1,lng1],[lat2,lng2])`.
type GeoBoundingBoxPred struct {
	Keyword  string  `parser:"@\"_geoBoundingBox\""`
	Lat1     float64 `parser:"\"(\" \"[\" @Number \",\""`
	Lng1     float64 `parser:"@Number \"]\" \",\""`
	Lat2     float64 `parser:"\"[\" @Number \",\""`
	Lng2     float64 `parser:"@Number \"]\" \")\""`
}

var parser = participle.MustBuild[Expr](
	participle.Lexer(filterLexer),
	participle.Unquote("String"),
	participle.UseLookahead(2),
	participle.Elide("whitespace"),
)

// Parse compiles a filter string into an AST.
func Parse(src string) (*Expr, error) {
	return parser.ParseString("", src)
}
