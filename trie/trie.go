// Package trie implements a character trie whose nodes accumulate the set of
// product ids passing through them, giving O(k) prefix lookups for a prefix of
// length k. The trie is not safe for concurrent use; the owning engine
// serializes access.
package trie

type node struct {
	children map[byte]*node
	ids      map[string]struct{}
	terminal bool
}

func newNode() *node {
	return &node{children: make(map[byte]*node)}
}

// Trie is the root of the prefix index.
type Trie struct {
	root *node
	size int
}

func New() *Trie {
	return &Trie{root: newNode()}
}

// Insert walks key byte by byte, creating nodes as needed, and records id on
// every visited node so that any prefix of key resolves to id. The node at the
// end of key is marked terminal.
func (t *Trie) Insert(key, id string) {
	n := t.root
	for i := 0; i < len(key); i++ {
		c := key[i]
		child, ok := n.children[c]
		if !ok {
			child = newNode()
			n.children[c] = child
			t.size++
		}
		n = child
		if n.ids == nil {
			n.ids = make(map[string]struct{})
		}
		n.ids[id] = struct{}{}
	}
	n.terminal = true
}

// SearchPrefix returns a copy of the id set accumulated at the node reached by
// prefix, or nil when no indexed key starts with prefix.
func (t *Trie) SearchPrefix(prefix string) map[string]struct{} {
	n := t.root
	for i := 0; i < len(prefix); i++ {
		child, ok := n.children[prefix[i]]
		if !ok {
			return nil
		}
		n = child
	}
	if len(n.ids) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(n.ids))
	for id := range n.ids {
		out[id] = struct{}{}
	}
	return out
}

// Len reports the number of nodes, excluding the root.
func (t *Trie) Len() int {
	return t.size
}
