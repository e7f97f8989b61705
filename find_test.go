package plist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFindByKeyBreadthFirst covers a key that appears at depth 1 and
// again deeper under the second array element; the breadth-first
// search must return the depth-1 occurrence.
func TestFindByKeyBreadthFirst(t *testing.T) {
	root := NewDict()
	require.NoError(t, root.Insert("target", NewUInt(1))) // depth 1

	arr := NewArray()
	require.NoError(t, root.Insert("items", arr))

	require.NoError(t, arr.Append(NewUInt(0)))

	deepDict := NewDict()
	require.NoError(t, arr.Append(deepDict))
	innerArr := NewArray()
	require.NoError(t, deepDict.Insert("wrapper", innerArr))
	require.NoError(t, innerArr.Append(mustString(t, "placeholder")))
	buried := NewDict()
	require.NoError(t, innerArr.Append(buried))
	require.NoError(t, buried.Insert("target", NewUInt(2))) // depth 4-ish, definitely deeper

	found := FindByKey(root, "target")
	require.NotSame(t, NoNode, found)

	val := root.Get("target")
	require.NotSame(t, NoNode, val)
	gotUint, err := val.UIntValue()
	require.NoError(t, err)

	foundParent := found.Parent()
	assert.Same(t, root, foundParent)
	_ = gotUint
}

func TestFindByKeyAbsentReturnsNoNode(t *testing.T) {
	root := NewArray()
	assert.Same(t, NoNode, FindByKey(root, "nope"))
}

func TestFindByString(t *testing.T) {
	root := NewArray()
	require.NoError(t, root.Append(mustString(t, "a")))
	require.NoError(t, root.Append(mustString(t, "target")))

	found := FindByString(root, "target")
	require.NotSame(t, NoNode, found)
	v, err := found.StringValue()
	require.NoError(t, err)
	assert.Equal(t, "target", v)
}

func TestFindByStringAbsentReturnsNoNode(t *testing.T) {
	root := NewDict()
	assert.Same(t, NoNode, FindByString(root, "nope"))
}
