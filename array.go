package plist

import "fmt"

// Size returns the number of elements in an Array node. It returns 0
// for a non-Array node, mirroring plist_array_get_size's silent-no-op-
// on-wrong-type behavior in the original C interface.
func (n *Node) Size() int {
	if n.tag != TagArray {
		return 0
	}
	return len(n.items)
}

// At returns the i-th element of an Array node. An out-of-range index
// is a caller error.
func (n *Node) At(i int) (*Node, error) {
	if n.tag != TagArray {
		return nil, fmt.Errorf("%w: At on %s node", ErrWrongType, n.tag)
	}
	if i < 0 || i >= len(n.items) {
		return nil, fmt.Errorf("%w: array index %d out of range [0,%d)", ErrCallerError, i, len(n.items))
	}
	return n.items[i], nil
}

// SetAt replaces the element at index i, freeing the node it displaces.
// item must be detached.
func (n *Node) SetAt(i int, item *Node) error {
	if n.tag != TagArray {
		return fmt.Errorf("%w: SetAt on %s node", ErrWrongType, n.tag)
	}
	if i < 0 || i >= len(n.items) {
		return fmt.Errorf("%w: array index %d out of range [0,%d)", ErrCallerError, i, len(n.items))
	}
	if item.parent != nil {
		return fmt.Errorf("%w", ErrAlreadyParented)
	}
	old := n.items[i]
	old.parent = nil
	old.clear()
	item.parent = n
	n.items[i] = item
	return nil
}

// Append adds item to the end of an Array node. item must be detached.
func (n *Node) Append(item *Node) error {
	if n.tag != TagArray {
		return fmt.Errorf("%w: Append on %s node", ErrWrongType, n.tag)
	}
	if item.parent != nil {
		return fmt.Errorf("%w", ErrAlreadyParented)
	}
	item.parent = n
	n.items = append(n.items, item)
	return nil
}

// Insert places item at position i in an Array node, shifting later
// elements up. i == Size() is legal and equivalent to Append.
func (n *Node) Insert(i int, item *Node) error {
	if n.tag != TagArray {
		return fmt.Errorf("%w: Insert on %s node", ErrWrongType, n.tag)
	}
	if i < 0 || i > len(n.items) {
		return fmt.Errorf("%w: array index %d out of range [0,%d]", ErrCallerError, i, len(n.items))
	}
	if item.parent != nil {
		return fmt.Errorf("%w", ErrAlreadyParented)
	}
	item.parent = n
	n.items = append(n.items, nil)
	copy(n.items[i+1:], n.items[i:])
	n.items[i] = item
	return nil
}

// RemoveAt deletes and frees the element at index i.
func (n *Node) RemoveAt(i int) error {
	if n.tag != TagArray {
		return fmt.Errorf("%w: RemoveAt on %s node", ErrWrongType, n.tag)
	}
	if i < 0 || i >= len(n.items) {
		return fmt.Errorf("%w: array index %d out of range [0,%d)", ErrCallerError, i, len(n.items))
	}
	old := n.items[i]
	n.items = append(n.items[:i], n.items[i+1:]...)
	old.parent = nil
	old.clear()
	return nil
}

// IndexOf returns the position of child within an Array node. child
// must currently be a member of n.
func (n *Node) IndexOf(child *Node) (int, error) {
	if n.tag != TagArray {
		return 0, fmt.Errorf("%w: IndexOf on %s node", ErrWrongType, n.tag)
	}
	for i, item := range n.items {
		if item == child {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: node is not a member of this array", ErrCallerError)
}
