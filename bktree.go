package suggest

import "github.com/oarkflow/suggest/utils"

// bkNode stores one vocabulary token together with the ids of products that
// contain it. Children are keyed by the exact edit distance to this node's
// word, which is what makes triangle-inequality pruning possible.
type bkNode struct {
	word     string
	ids      map[string]struct{}
	children map[int]*bkNode
}

func newBKNode(word, id string) *bkNode {
	return &bkNode{
		word:     word,
		ids:      map[string]struct{}{id: {}},
		children: make(map[int]*bkNode),
	}
}

// bkTree is a metric tree over vocabulary tokens. Not safe for concurrent
// use; the owning engine serializes access.
type bkTree struct {
	root  *bkNode
	words int
}

func newBKTree() *bkTree {
	return &bkTree{}
}

// Insert records that product id contains word. Descends by exact edit
// distance until it finds the word itself (merging ids) or a free bucket.
func (t *bkTree) Insert(word, id string) {
	if t.root == nil {
		t.root = newBKNode(word, id)
		t.words = 1
		return
	}
	n := t.root
	for {
		dist := utils.Levenshtein(word, n.word)
		if dist == 0 {
			n.ids[id] = struct{}{}
			return
		}
		child, ok := n.children[dist]
		if !ok {
			n.children[dist] = newBKNode(word, id)
			t.words++
			return
		}
		n = child
	}
}

// Search returns the ids of all products owning a token within maxDistance
// edits of word. Only child buckets in [dist-maxDistance, dist+maxDistance]
// are visited.
func (t *bkTree) Search(word string, maxDistance int) map[string]struct{} {
	if t.root == nil {
		return nil
	}
	results := make(map[string]struct{})
	stack := []*bkNode{t.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		dist := utils.Levenshtein(word, n.word)
		if dist <= maxDistance {
			for id := range n.ids {
				results[id] = struct{}{}
			}
		}
		low := dist - maxDistance
		if low < 0 {
			low = 0
		}
		for d := low; d <= dist+maxDistance; d++ {
			if child, ok := n.children[d]; ok {
				stack = append(stack, child)
			}
		}
	}
	if len(results) == 0 {
		return nil
	}
	return results
}

// Words reports the number of distinct tokens in the tree.
func (t *bkTree) Words() int {
	return t.words
}
