package repository

import "math/rand"

// Treap over each account's latest score, used for ranked top-N reads.
//
// Ordering: score DESC, then CapturedAt DESC (fresher snapshot wins ties),
// then accountID ASC for determinism. In-order traversal yields accounts
// from hottest to coldest.

// rankKey is the treap ordering key for one account's latest snapshot.
type rankKey struct {
	score      int
	capturedAt int64 // unix nanos
	accountID  string
}

// rankBefore reports whether a should rank ahead of b.
func rankBefore(a, b rankKey) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	if a.capturedAt != b.capturedAt {
		return a.capturedAt > b.capturedAt
	}
	return a.accountID < b.accountID
}

type rankNode struct {
	key   rankKey
	prio  uint64
	left  *rankNode
	right *rankNode
	size  int
}

func nodeSize(n *rankNode) int {
	if n == nil {
		return 0
	}
	return n.size
}

func refresh(n *rankNode) {
	if n != nil {
		n.size = 1 + nodeSize(n.left) + nodeSize(n.right)
	}
}

func rotateRight(y *rankNode) *rankNode {
	x := y.left
	y.left = x.right
	x.right = y
	refresh(y)
	refresh(x)
	return x
}

func rotateLeft(x *rankNode) *rankNode {
	y := x.right
	x.right = y.left
	y.left = x
	refresh(x)
	refresh(y)
	return y
}

// rankTree wraps the treap root with its priority source.
type rankTree struct {
	root *rankNode
	rng  *rand.Rand
}

func newRankTree(seed int64) *rankTree {
	return &rankTree{rng: rand.New(rand.NewSource(seed))} //nolint:gosec // treap priorities need speed, not crypto
}

func (t *rankTree) insert(key rankKey) {
	t.root = t.insertNode(t.root, key)
}

func (t *rankTree) insertNode(n *rankNode, key rankKey) *rankNode {
	if n == nil {
		return &rankNode{key: key, prio: t.rng.Uint64(), size: 1}
	}
	if rankBefore(key, n.key) {
		n.left = t.insertNode(n.left, key)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = t.insertNode(n.right, key)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	refresh(n)
	return n
}

func (t *rankTree) remove(key rankKey) {
	t.root = removeNode(t.root, key)
}

func removeNode(n *rankNode, key rankKey) *rankNode {
	if n == nil {
		return nil
	}
	switch {
	case key == n.key:
		// Rotate the higher-priority child up until the node is a leaf.
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = removeNode(n.right, key)
		} else {
			n = rotateLeft(n)
			n.left = removeNode(n.left, key)
		}
	case rankBefore(key, n.key):
		n.left = removeNode(n.left, key)
	default:
		n.right = removeNode(n.right, key)
	}
	refresh(n)
	return n
}

// walk visits keys in rank order until visit returns false.
func (t *rankTree) walk(visit func(rankKey) bool) {
	walkNode(t.root, visit)
}

func walkNode(n *rankNode, visit func(rankKey) bool) bool {
	if n == nil {
		return true
	}
	if !walkNode(n.left, visit) {
		return false
	}
	if !visit(n.key) {
		return false
	}
	return walkNode(n.right, visit)
}
