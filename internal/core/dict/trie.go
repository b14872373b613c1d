package dict

import "github.com/certogo-tech/meilisearch-thai-sub002/internal/core/model"

// trieNode is one node of the rune-keyed prefix trie. A node with a non-nil
// entry marks the end of a dictionary term.
type trieNode struct {
	children map[rune]*trieNode
	entry    *model.DictionaryEntry
}

func newTrieNode() *trieNode {
	return &trieNode{children: make(map[rune]*trieNode)}
}

// trie supports longest-prefix lookup over dictionary terms. It is built once
// per snapshot and read-only afterwards, so lookups need no locking.
type trie struct {
	root *trieNode
	size int
}

func newTrie() *trie {
	return &trie{root: newTrieNode()}
}

func (t *trie) insert(entry *model.DictionaryEntry) {
	node := t.root
	for _, r := range entry.Term {
		child, ok := node.children[r]
		if !ok {
			child = newTrieNode()
			node.children[r] = child
		}
		node = child
	}
	if node.entry == nil {
		t.size++
	}
	node.entry = entry
}

// longestMatch walks the trie from text[pos:] and returns the longest
// dictionary term starting there, with its rune length. Returns ok=false when
// no term starts at pos.
func (t *trie) longestMatch(text []rune, pos int) (*model.DictionaryEntry, int, bool) {
	node := t.root
	var best *model.DictionaryEntry
	bestLen := 0
	for i := pos; i < len(text); i++ {
		child, ok := node.children[text[i]]
		if !ok {
			break
		}
		node = child
		if node.entry != nil {
			best = node.entry
			bestLen = i - pos + 1
		}
	}
	if best == nil {
		return nil, 0, false
	}
	return best, bestLen, true
}
