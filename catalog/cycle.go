package catalog

import (
	"fmt"
	"strings"

	"github.com/puppetlabs/puppetlang/syntax/errors"
	"github.com/puppetlabs/puppetlang/syntax/token"
)

// CycleError is the resource_cycle_exception of spec §4.8: it carries the
// ordered list of resources forming one simple cycle, reported as its
// canonical rotation (spec §8: "Cycle detection reports every cycle
// exactly once (as one canonical rotation)").
type CycleError struct {
	Cycle []*Resource
}

func (e *CycleError) Error() string {
	names := make([]string, len(e.Cycle)+1)
	for i, r := range e.Cycle {
		names[i] = r.Ref()
	}
	names[len(e.Cycle)] = e.Cycle[0].Ref()
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(names, " => "))
}

func (e *CycleError) Position() token.Position { return e.Cycle[0].DeclPos() }
func (e *CycleError) InputPositions() []token.Position {
	pos := make([]token.Position, len(e.Cycle))
	for i, r := range e.Cycle {
		pos[i] = r.DeclPos()
	}
	return pos
}
func (e *CycleError) Backtrace() []errors.Frame { return nil }

// DetectCycles enumerates every simple cycle in the graph exactly once,
// using a Hawick-James-style blocked-vertex DFS (spec §4.8 "Cycle
// detection enumerates all simple cycles (e.g. via Hawick-James-style
// traversal)"). Each cycle is reported starting from its lowest vertex id,
// which gives a canonical rotation and ensures idempotent reporting across
// repeated runs over the same graph (spec §8).
func (c *Catalog) DetectCycles() []*CycleError {
	n := len(c.vertices)
	if n == 0 {
		return nil
	}
	var found []*CycleError
	for start := 0; start < n; start++ {
		blocked := make([]bool, n)
		blockMap := make([]map[int]bool, n)
		var stack []int
		var dfs func(v int) bool
		dfs = func(v int) bool {
			stack = append(stack, v)
			blocked[v] = true
			closed := false
			for _, w := range c.outAdj[v] {
				if w < start {
					continue // only consider the subgraph induced by vertices >= start
				}
				if w == start {
					found = append(found, cycleFromStack(c, stack))
					closed = true
				} else if !blocked[w] {
					if dfs(w) {
						closed = true
					}
				}
			}
			if closed {
				unblock(v, blocked, blockMap)
			} else {
				for _, w := range c.outAdj[v] {
					if w < start || w == v {
						continue
					}
					if blockMap[w] == nil {
						blockMap[w] = map[int]bool{}
					}
					blockMap[w][v] = true
				}
			}
			stack = stack[:len(stack)-1]
			return closed
		}
		dfs(start)
	}
	return found
}

func unblock(v int, blocked []bool, blockMap []map[int]bool) {
	blocked[v] = false
	for w := range blockMap[v] {
		delete(blockMap[v], w)
		if blocked[w] {
			unblock(w, blocked, blockMap)
		}
	}
}

func cycleFromStack(c *Catalog, stack []int) *CycleError {
	res := make([]*Resource, len(stack))
	for i, v := range stack {
		res[i] = c.vertices[v]
	}
	return &CycleError{Cycle: res}
}
