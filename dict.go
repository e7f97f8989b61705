package plist

import "fmt"

// DictIter walks a Dict node's entries in insertion order. Its state
// is external to the Dict; mutating the Dict while an iterator is
// outstanding invalidates that iterator.
type DictIter struct {
	dict *Node
	pos  int
}

// NewIter returns an iterator positioned before the first entry of a
// Dict node.
func (n *Node) NewIter() (*DictIter, error) {
	if n.tag != TagDict {
		return nil, fmt.Errorf("%w: NewIter on %s node", ErrWrongType, n.tag)
	}
	return &DictIter{dict: n}, nil
}

// Next advances the iterator and returns the next (key, value) pair. ok
// is false once the entries are exhausted.
func (it *DictIter) Next() (key string, value *Node, ok bool) {
	if it.pos >= len(it.dict.entries) {
		return "", nil, false
	}
	e := it.dict.entries[it.pos]
	it.pos++
	return e.key.bytesKey(), e.value, true
}

// Get returns the value bound to key in a Dict node, or NoNode if key
// is absent.
func (n *Node) Get(key string) *Node {
	if n.tag != TagDict {
		return NoNode
	}
	idx, ok := n.byKey[key]
	if !ok {
		return NoNode
	}
	return n.entries[idx].value
}

// Set upserts key to item in a Dict node, freeing any prior occupant.
// item must be detached.
func (n *Node) Set(key string, item *Node) error {
	if n.tag != TagDict {
		return fmt.Errorf("%w: Set on %s node", ErrWrongType, n.tag)
	}
	if item.parent != nil {
		return fmt.Errorf("%w", ErrAlreadyParented)
	}
	if idx, ok := n.byKey[key]; ok {
		old := n.entries[idx].value
		old.parent = nil
		old.hasDictK = false
		old.clear()
		item.parent = n
		item.dictKey = key
		item.hasDictK = true
		n.entries[idx].value = item
		return nil
	}
	return n.insertLocked(key, item)
}

// Insert binds key to item in a Dict node. key must be absent; item
// must be detached.
func (n *Node) Insert(key string, item *Node) error {
	if n.tag != TagDict {
		return fmt.Errorf("%w: Insert on %s node", ErrWrongType, n.tag)
	}
	if _, ok := n.byKey[key]; ok {
		return fmt.Errorf("%w: key %q already present", ErrCallerError, key)
	}
	if item.parent != nil {
		return fmt.Errorf("%w", ErrAlreadyParented)
	}
	return n.insertLocked(key, item)
}

func (n *Node) insertLocked(key string, item *Node) error {
	keyNode := newKeyNode(key)
	keyNode.parent = n
	item.parent = n
	item.dictKey = key
	item.hasDictK = true
	n.byKey[key] = len(n.entries)
	n.entries = append(n.entries, dictEntry{key: keyNode, value: item})
	return nil
}

// Remove unbinds and frees the value stored under key in a Dict node.
// key must be present.
func (n *Node) Remove(key string) error {
	if n.tag != TagDict {
		return fmt.Errorf("%w: Remove on %s node", ErrWrongType, n.tag)
	}
	idx, ok := n.byKey[key]
	if !ok {
		return fmt.Errorf("%w: key %q not present", ErrCallerError, key)
	}
	n.removeEntryAt(idx)
	return nil
}

// KeyOf returns the string key under which child is currently bound in
// its parent Dict. It is a caller error to call this on a node that is
// not a Dict value.
func (n *Node) KeyOf(child *Node) (string, error) {
	if child.parent == nil || child.parent.tag != TagDict || !child.hasDictK {
		return "", fmt.Errorf("%w: node is not a dict value", ErrCallerError)
	}
	return child.dictKey, nil
}

// removeEntryAt deletes entry idx, frees its key and value subtrees,
// and rebuilds the key index.
func (n *Node) removeEntryAt(idx int) {
	e := n.entries[idx]
	n.entries = append(n.entries[:idx], n.entries[idx+1:]...)
	delete(n.byKey, e.key.bytesKey())
	for k, i := range n.byKey {
		if i > idx {
			n.byKey[k] = i - 1
		}
	}
	e.key.parent = nil
	e.key.clear()
	e.value.parent = nil
	e.value.hasDictK = false
	e.value.clear()
}

// removeEntryByValue removes the entry whose value is value, without
// freeing it again (the caller, Node.Free, does that). Used when a
// value node detaches itself from its owning Dict.
func (n *Node) removeEntryByValue(value *Node) {
	for i, e := range n.entries {
		if e.value == value {
			n.entries = append(n.entries[:i], n.entries[i+1:]...)
			delete(n.byKey, e.key.bytesKey())
			for k, j := range n.byKey {
				if j > i {
					n.byKey[k] = j - 1
				}
			}
			e.key.parent = nil
			e.key.clear()
			return
		}
	}
}
