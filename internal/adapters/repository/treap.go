package repository

import (
	"hash/fnv"
	"math"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
)

// Treap-based ranking index for one period.
//
// Ordering: calibrated DESC, then playerID ASC (deterministic).
// "less" means ranks earlier, so in-order traversal produces the
// leaderboard from best to worst.

// scoreScale controls fixed-point scaling; scores live in [0,100].
const scoreScale = 1_000_000_000

type scoreFP int64

func toFixedPoint(x float64) scoreFP {
	if math.IsNaN(x) {
		return 0
	}
	return scoreFP(math.Round(x * scoreScale))
}

type node struct {
	id    string
	score scoreFP
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aScore, aID) should appear before (bScore, bID).
func less(aScore scoreFP, aID string, bScore scoreFP, bID string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aID < bID
}

// priorityOf hashes the id so the heap order is independent of the key
// order and the tree stays balanced in expectation.
func priorityOf(id string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return h.Sum64()
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, score scoreFP) *node {
	if n == nil {
		return &node{id: id, score: score, prio: priorityOf(id), size: 1}
	}
	if less(score, id, n.score, n.id) {
		n.left = insert(n.left, id, score)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, score)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, score scoreFP) *node {
	if n == nil {
		return nil
	}
	if score == n.score && id == n.id {
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, score)
		}
	} else if less(score, id, n.score, n.id) {
		n.left = deleteNode(n.left, id, score)
	} else {
		n.right = deleteNode(n.right, id, score)
	}
	fix(n)
	return n
}

// walk visits nodes in rank order until visit returns false.
func walk(n *node, visit func(*node) bool) bool {
	if n == nil {
		return true
	}
	if !walk(n.left, visit) {
		return false
	}
	if !visit(n) {
		return false
	}
	return walk(n.right, visit)
}

// periodIndex holds one period's results and its ranking tree. An index is
// replaced wholesale by ReplacePeriod; Put edits it in place.
type periodIndex struct {
	root       *node
	byID       map[string]model.ScoreResult
	generation int64
}

func newPeriodIndex(generation int64, results []model.ScoreResult) *periodIndex {
	ix := &periodIndex{
		byID:       make(map[string]model.ScoreResult, len(results)),
		generation: generation,
	}
	for _, r := range results {
		ix.put(r)
	}
	return ix
}

func (ix *periodIndex) put(r model.ScoreResult) {
	if old, ok := ix.byID[r.PlayerID]; ok {
		ix.root = deleteNode(ix.root, r.PlayerID, toFixedPoint(old.Calibrated))
	}
	ix.byID[r.PlayerID] = r
	ix.root = insert(ix.root, r.PlayerID, toFixedPoint(r.Calibrated))
}

func (ix *periodIndex) len() int { return nsize(ix.root) }

// top collects up to limit entries, optionally restricted to one position.
func (ix *periodIndex) top(pos model.Position, limit int) []Entry {
	capHint := limit
	if n := ix.len(); n < capHint {
		capHint = n
	}
	out := make([]Entry, 0, capHint)
	walk(ix.root, func(n *node) bool {
		r := ix.byID[n.id]
		if pos == "" || r.Position == pos {
			out = append(out, Entry{Result: r})
		}
		return len(out) < limit
	})
	assignRanks(out)
	return out
}
