package querygraph

import (
	"fmt"

	"github.com/emicklei/dot"
)

// Dot renders the query graph as a graphviz document for debugging, using
// the teacher's dependency of choice for graph export (go.mod carries
// emicklei/dot). Nodes are labeled with each position's original word;
// concat edges are drawn as dashed edges spanning the positions they
// replace.
func (g *Graph) Dot() string {
	gr := dot.NewGraph(dot.Directed)
	gr.Attr("rankdir", "LR")

	nodes := make([]dot.Node, len(g.Positions))
	for i, id := range g.Positions {
		subset := g.Arena.Get(id)
		label := subset.Original
		n := gr.Node(fmt.Sprintf("pos%d", i)).Label(label)
		nodes[i] = n
	}
	for i := 0; i+1 < len(nodes); i++ {
		gr.Edge(nodes[i], nodes[i+1])
	}
	for _, e := range g.ConcatEdges {
		label := g.Arena.Get(e.Node).Original
		edge := gr.Edge(nodes[e.FromPosition], nodes[e.ToPosition]).Label(label)
		edge.Attr("style", "dashed")
	}
	return gr.String()
}
