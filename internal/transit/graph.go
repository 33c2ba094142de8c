// Package transit holds a small static graph of Japanese cities and the
// transport links between them.
package transit

import (
	"container/heap"
	"math"
	"strings"
)

type Mode int

// Mode values double as edge costs.
const (
	Public     Mode = 1
	Shinkansen Mode = 2
	Flight     Mode = 10
)

func (m Mode) String() string {
	switch m {
	case Public:
		return "public"
	case Shinkansen:
		return "shinkansen"
	case Flight:
		return "flight"
	}
	return "unknown"
}

type edge struct {
	to   int
	mode Mode
}

type Graph struct {
	names []string
	index map[string]int
	adj   [][]edge
}

type Leg struct {
	From string `json:"from"`
	To   string `json:"to"`
	Mode string `json:"mode"`
}

var cities = []string{
	"beppu", "fukuoka", "gero", "gifu", "gujo", "hakodate", "himeji", "hiroshima",
	"kagoshima", "kanazawa", "kobe", "kumamoto", "kusatsu", "kyoto", "matsuyama", "nagoya",
	"naha", "niigata", "okayama", "osaka", "sapporo", "sendai", "takayama", "tokyo",
}

var links = []struct {
	a, b string
	mode Mode
}{
	{"beppu", "fukuoka", Public},
	{"beppu", "kumamoto", Public},
	{"fukuoka", "kumamoto", Public},
	{"gero", "gifu", Public},
	{"gifu", "gujo", Public},
	{"gifu", "kyoto", Public},
	{"gifu", "nagoya", Public},
	{"gifu", "takayama", Public},
	{"hakodate", "niigata", Public},
	{"hakodate", "sapporo", Public},
	{"hiroshima", "matsuyama", Public},
	{"kanazawa", "niigata", Public},
	{"kumamoto", "kagoshima", Public},
	{"kusatsu", "tokyo", Public},
	{"nagoya", "takayama", Public},

	{"fukuoka", "hiroshima", Shinkansen},
	{"hakodate", "sendai", Shinkansen},
	{"himeji", "kobe", Shinkansen},
	{"himeji", "okayama", Shinkansen},
	{"hiroshima", "okayama", Shinkansen},
	{"kanazawa", "tokyo", Shinkansen},
	{"kobe", "osaka", Shinkansen},
	{"kyoto", "osaka", Shinkansen},
	{"kyoto", "nagoya", Shinkansen},
	{"nagoya", "tokyo", Shinkansen},
	{"sendai", "tokyo", Shinkansen},
	{"sendai", "sapporo", Shinkansen},

	{"fukuoka", "osaka", Flight},
	{"fukuoka", "nagoya", Flight},
	{"fukuoka", "naha", Flight},
	{"fukuoka", "sapporo", Flight},
	{"fukuoka", "sendai", Flight},
	{"fukuoka", "tokyo", Flight},
	{"nagoya", "sapporo", Flight},
	{"nagoya", "tokyo", Flight},
	{"nagoya", "naha", Flight},
	{"naha", "sapporo", Flight},
	{"naha", "tokyo", Flight},
	{"osaka", "sapporo", Flight},
	{"osaka", "tokyo", Flight},
	{"sapporo", "tokyo", Flight},
}

// Japan returns the built-in network. All links are bidirectional.
func Japan() *Graph {
	g := &Graph{
		names: cities,
		index: make(map[string]int, len(cities)),
		adj:   make([][]edge, len(cities)),
	}
	for i, c := range cities {
		g.index[c] = i
	}
	for _, l := range links {
		a, b := g.index[l.a], g.index[l.b]
		g.adj[a] = append(g.adj[a], edge{to: b, mode: l.mode})
		g.adj[b] = append(g.adj[b], edge{to: a, mode: l.mode})
	}
	return g
}

func (g *Graph) Cities() []string {
	out := make([]string, len(g.names))
	copy(out, g.names)
	return out
}

func (g *Graph) Has(city string) bool {
	_, ok := g.index[strings.ToLower(strings.TrimSpace(city))]
	return ok
}

// CheapestPath runs Dijkstra over mode costs. Unknown cities or no path give nil.
func (g *Graph) CheapestPath(from, to string) []string {
	src, dst, ok := g.lookup(from, to)
	if !ok {
		return nil
	}

	dist := make([]int, len(g.names))
	prev := make([]int, len(g.names))
	for i := range dist {
		dist[i] = math.MaxInt
		prev[i] = -1
	}
	dist[src] = 0
	visited := make([]bool, len(g.names))

	pq := &queue{{node: src}}
	for pq.Len() > 0 {
		cur := heap.Pop(pq).(item)
		if visited[cur.node] {
			continue
		}
		visited[cur.node] = true
		if cur.node == dst {
			break
		}
		for _, e := range g.adj[cur.node] {
			if visited[e.to] {
				continue
			}
			if d := dist[cur.node] + int(e.mode); d < dist[e.to] {
				dist[e.to] = d
				prev[e.to] = cur.node
				heap.Push(pq, item{node: e.to, cost: d})
			}
		}
	}
	if dist[dst] == math.MaxInt {
		return nil
	}

	var path []string
	for n := dst; n != -1; n = prev[n] {
		path = append(path, g.names[n])
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// FewestStops runs a breadth-first search and returns the path with the fewest hops.
func (g *Graph) FewestStops(from, to string) []string {
	src, dst, ok := g.lookup(from, to)
	if !ok {
		return nil
	}

	prev := make([]int, len(g.names))
	for i := range prev {
		prev[i] = -1
	}
	seen := make([]bool, len(g.names))
	seen[src] = true
	q := []int{src}
	for len(q) > 0 {
		cur := q[0]
		q = q[1:]
		if cur == dst {
			var path []string
			for n := dst; n != -1; n = prev[n] {
				path = append(path, g.names[n])
			}
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
			return path
		}
		for _, e := range g.adj[cur] {
			if !seen[e.to] {
				seen[e.to] = true
				prev[e.to] = cur
				q = append(q, e.to)
			}
		}
	}
	return nil
}

// Legs describes each hop of path with the cheapest mode linking it.
func (g *Graph) Legs(path []string) []Leg {
	var legs []Leg
	for i := 0; i+1 < len(path); i++ {
		a, b, ok := g.lookup(path[i], path[i+1])
		if !ok {
			return nil
		}
		best := Mode(0)
		for _, e := range g.adj[a] {
			if e.to == b && (best == 0 || e.mode < best) {
				best = e.mode
			}
		}
		if best == 0 {
			return nil
		}
		legs = append(legs, Leg{From: g.names[a], To: g.names[b], Mode: best.String()})
	}
	return legs
}

// Cost sums the cheapest mode cost along path, or -1 when a hop is missing.
func (g *Graph) Cost(path []string) int {
	total := 0
	for i := 0; i+1 < len(path); i++ {
		a, b, ok := g.lookup(path[i], path[i+1])
		if !ok {
			return -1
		}
		best := -1
		for _, e := range g.adj[a] {
			if e.to == b && (best == -1 || int(e.mode) < best) {
				best = int(e.mode)
			}
		}
		if best == -1 {
			return -1
		}
		total += best
	}
	return total
}

func (g *Graph) lookup(from, to string) (int, int, bool) {
	a, ok1 := g.index[strings.ToLower(strings.TrimSpace(from))]
	b, ok2 := g.index[strings.ToLower(strings.TrimSpace(to))]
	return a, b, ok1 && ok2
}

type item struct {
	node int
	cost int
}

type queue []item

func (q queue) Len() int           { return len(q) }
func (q queue) Less(i, j int) bool { return q[i].cost < q[j].cost }
func (q queue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *queue) Push(x any)        { *q = append(*q, x.(item)) }
func (q *queue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	*q = old[:n-1]
	return it
}
