package modules

import (
	"slices"
	"strings"
)

// Trie is a prefix tree over dotted module paths.
//
// Each node is keyed by one path segment. A node carries an attachment once
// a path ending at it has been added. Trie is not safe for concurrent
// mutation; build it once and share it read-only.
type Trie struct {
	root node
	size int
}

type node struct {
	children map[string]*node
	value    any
	attached bool
}

// NewTrie returns an empty Trie.
func NewTrie() *Trie {
	return &Trie{}
}

// Add registers path with the given attachment. Adding the same path again
// replaces the attachment.
func (t *Trie) Add(path string, value any) {
	n := &t.root
	for _, seg := range strings.Split(path, ".") {
		if n.children == nil {
			n.children = make(map[string]*node)
		}
		child, ok := n.children[seg]
		if !ok {
			child = &node{}
			n.children[seg] = child
		}
		n = child
	}
	if !n.attached {
		t.size++
	}
	n.value = value
	n.attached = true
}

// Contains reports whether some prefix of path, including path itself,
// has been added.
func (t *Trie) Contains(path string) bool {
	_, ok := t.Lookup(path)
	return ok
}

// Lookup returns the attachment of the shortest added prefix of path.
func (t *Trie) Lookup(path string) (any, bool) {
	if t == nil || path == "" {
		return nil, false
	}
	n := &t.root
	for _, seg := range strings.Split(path, ".") {
		child, ok := n.children[seg]
		if !ok {
			return nil, false
		}
		if child.attached {
			return child.value, true
		}
		n = child
	}
	return nil, false
}

// Len returns the number of added paths.
func (t *Trie) Len() int {
	if t == nil {
		return 0
	}
	return t.size
}

// Paths returns every added path in sorted order.
func (t *Trie) Paths() []string {
	if t == nil {
		return nil
	}
	var out []string
	var walk func(prefix string, n *node)
	walk = func(prefix string, n *node) {
		if n.attached {
			out = append(out, prefix)
		}
		for seg, child := range n.children {
			p := seg
			if prefix != "" {
				p = prefix + "." + seg
			}
			walk(p, child)
		}
	}
	walk("", &t.root)
	slices.Sort(out)
	return out
}
