package taskgraph

import "hash/fnv"

// Graph collects declared tasks and compiles them into an execution plan.
//
// Tasks are appended in the order they would run if no parallelism were
// extracted; hazards are only ever searched from earlier to later index,
// which keeps the dependency graph acyclic by construction.
//
// Graph is not safe for concurrent use. Build it on one goroutine and
// share the immutable [Plan] that Compile returns.
type Graph struct {
	tasks []Task
}

// NewGraph creates an empty task graph.
func NewGraph() *Graph {
	return &Graph{}
}

// Add appends a task and returns its index, the identity used in the
// compiled plan's edges and batches.
func (g *Graph) Add(t Task) int {
	g.tasks = append(g.tasks, t)
	return len(g.tasks) - 1
}

// Len returns the number of tasks added so far.
func (g *Graph) Len() int { return len(g.tasks) }

// Task returns the task at index i.
func (g *Graph) Task(i int) *Task { return &g.tasks[i] }

// Fingerprint returns an FNV-1a hash of the graph's declared structure:
// task count, types and per-task resource declarations. Two graphs with
// the same fingerprint compile to the same plan, which is what [PlanCache]
// keys on. Names and callbacks do not contribute.
func (g *Graph) Fingerprint() uint64 {
	h := fnv.New64a()
	var buf [8]byte

	writeU64 := func(v uint64) {
		buf[0] = byte(v)
		buf[1] = byte(v >> 8)
		buf[2] = byte(v >> 16)
		buf[3] = byte(v >> 24)
		buf[4] = byte(v >> 32)
		buf[5] = byte(v >> 40)
		buf[6] = byte(v >> 48)
		buf[7] = byte(v >> 56)
		_, _ = h.Write(buf[:]) // fnv.Write never returns an error
	}

	writeU64(uint64(len(g.tasks)))
	for i := range g.tasks {
		t := &g.tasks[i]
		writeU64(uint64(t.Type))
		writeU64(uint64(len(t.Resources)))
		for _, r := range t.Resources {
			writeU64(uint64(r.Kind)<<8 | uint64(r.Access))
			writeU64(uint64(r.Handle))
		}
	}
	return h.Sum64()
}

// Compile turns the task list into an execution plan: it detects hazards
// between every ordered task pair, removes redundant edges by transitive
// reduction, and levels the reduced graph into batches of mutually
// independent tasks.
//
// Compile is a pure function of the declared accesses; it does not check
// that handles are live (that is the pool's job when a task is recorded).
// The only failure mode is a malformed declaration: a task naming the same
// resource twice with conflicting access modes returns a
// [ErrConflictingAccess] error.
func (g *Graph) Compile() (*Plan, error) {
	for i := range g.tasks {
		if err := g.tasks[i].validate(i); err != nil {
			return nil, err
		}
	}

	succ := g.detectHazards()
	rawEdges := countEdges(succ)
	transitiveReduction(succ)
	batches := levelize(succ)

	plan := &Plan{
		tasks:   len(g.tasks),
		succ:    succ,
		batches: batches,
		batchOf: batchIndex(batches, len(g.tasks)),
	}

	Logger().Debug("compiled task graph",
		"tasks", len(g.tasks),
		"edges", rawEdges,
		"reduced_edges", plan.EdgeCount(),
		"batches", len(batches))

	return plan, nil
}

// detectHazards builds the forward adjacency list: succ[j] holds every
// later task i that shares a resource with j where at least one of the two
// accesses writes. Each ordered pair contributes at most one edge.
func (g *Graph) detectHazards() [][]int {
	succ := make([][]int, len(g.tasks))

	for i := 1; i < len(g.tasks); i++ {
		for j := 0; j < i; j++ {
			if tasksConflict(&g.tasks[j], &g.tasks[i]) {
				succ[j] = append(succ[j], i)
			}
		}
	}
	return succ
}

// tasksConflict reports whether the later task depends on the earlier one:
// some resource appears in both declaration lists with accesses that are
// not both Read.
func tasksConflict(earlier, later *Task) bool {
	for _, a := range earlier.Resources {
		for _, b := range later.Resources {
			if a.Kind == b.Kind && a.Handle == b.Handle && a.Access.hazardsWith(b.Access) {
				return true
			}
		}
	}
	return false
}

// transitiveReduction removes every edge implied by a longer path,
// in place. For each edge u→v: drop it, then keep it dropped iff v is
// still reachable from u over the remaining edges. The pairwise hazard
// scan produces exactly the dense graphs this prunes (a chain 0→1→2 also
// carries the redundant 0→2).
func transitiveReduction(succ [][]int) {
	n := len(succ)
	visited := make([]bool, n)
	stack := make([]int, 0, n)

	for u := range succ {
		// Snapshot: succ[u] is rewritten inside the loop.
		targets := append([]int(nil), succ[u]...)
		for _, v := range targets {
			removeEdge(succ, u, v)
			if !reachable(succ, u, v, visited, stack) {
				succ[u] = append(succ[u], v)
			}
		}
	}
}

// removeEdge deletes v from succ[u], preserving order.
func removeEdge(succ [][]int, u, v int) {
	out := succ[u][:0]
	for _, w := range succ[u] {
		if w != v {
			out = append(out, w)
		}
	}
	succ[u] = out
}

// reachable reports whether v can be reached from u by iterative DFS.
// visited and stack are scratch buffers reused across calls.
func reachable(succ [][]int, u, v int, visited []bool, stack []int) bool {
	for i := range visited {
		visited[i] = false
	}
	stack = append(stack[:0], u)

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node == v {
			return true
		}
		if visited[node] {
			continue
		}
		visited[node] = true
		stack = append(stack, succ[node]...)
	}
	return false
}

// levelize runs Kahn's algorithm batched by frontier: every task whose
// remaining in-degree is zero joins the current batch, then the batch's
// outgoing edges are retired and the next frontier forms. Because edges
// point from earlier (predecessor) to later (successor) task, batches come
// out dependency-roots first, which is the order a recorder consumes them.
func levelize(succ [][]int) [][]int {
	n := len(succ)
	if n == 0 {
		return nil
	}

	indegree := make([]int, n)
	for _, targets := range succ {
		for _, v := range targets {
			indegree[v]++
		}
	}

	frontier := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if indegree[i] == 0 {
			frontier = append(frontier, i)
		}
	}

	var batches [][]int
	for len(frontier) > 0 {
		batch := append([]int(nil), frontier...)
		batches = append(batches, batch)

		frontier = frontier[:0]
		for _, u := range batch {
			for _, v := range succ[u] {
				indegree[v]--
				if indegree[v] == 0 {
					frontier = append(frontier, v)
				}
			}
		}
	}
	return batches
}

// countEdges returns the total number of edges in an adjacency list.
func countEdges(succ [][]int) int {
	total := 0
	for _, targets := range succ {
		total += len(targets)
	}
	return total
}

// batchIndex inverts a batch list into a per-task batch number.
func batchIndex(batches [][]int, n int) []int {
	idx := make([]int, n)
	for b, batch := range batches {
		for _, task := range batch {
			idx[task] = b
		}
	}
	return idx
}
