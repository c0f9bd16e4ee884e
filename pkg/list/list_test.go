package list

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func values[V any](l *List[V]) []V {
	return l.Values()
}

func TestList_PushFront(t *testing.T) {
	l := New[int]()
	for i := 0; i < 4; i++ {
		l.PushFront(NewElem(i))
	}
	require.Equal(t, 4, l.Len())
	assert.Equal(t, []int{3, 2, 1, 0}, values(l))
	assert.Equal(t, 3, l.Front().Value)
	assert.Equal(t, 2, l.Front().Next().Value)
}

func TestList_PopElem(t *testing.T) {
	l := New[int]()
	elems := make([]*Elem[int], 0)
	for i := 0; i < 5; i++ {
		elems = append(elems, l.PushFront(NewElem(i)))
	}

	l.PopElem(elems[4]) // front
	assert.Equal(t, []int{3, 2, 1, 0}, values(l))
	l.PopElem(elems[2]) // interior
	assert.Equal(t, []int{3, 1, 0}, values(l))
	l.PopElem(elems[0]) // tail
	assert.Equal(t, []int{3, 1}, values(l))
	assert.Equal(t, 1, l.Front().Next().Value)
	assert.Nil(t, l.Front().Next().Next())
	require.Equal(t, 2, l.Len())

	assert.Panics(t, func() { l.PopElem(elems[0]) })
	assert.Panics(t, func() { l.PushFront(elems[1]) })

	// A popped elem can be pushed again.
	l.PushFront(elems[0])
	assert.Equal(t, []int{0, 3, 1}, values(l))
}

func TestList_RemoveFunc(t *testing.T) {
	l := New[int]()
	for i := 0; i < 10; i++ {
		l.PushFront(NewElem(i))
	}
	removed := l.RemoveFunc(func(v int) bool { return v%2 == 0 })
	assert.Equal(t, 5, removed)
	assert.Equal(t, []int{9, 7, 5, 3, 1}, values(l))

	assert.Equal(t, 0, l.RemoveFunc(func(v int) bool { return v%2 == 0 }))

	l.Clear()
	assert.Equal(t, 0, l.Len())
	assert.Nil(t, l.Front())
}

func TestList_RangeStop(t *testing.T) {
	l := New[int]()
	for i := 9; i >= 0; i-- {
		l.PushFront(NewElem(i))
	}
	var seen []int
	l.Range(func(e *Elem[int]) bool {
		seen = append(seen, e.Value)
		return e.Value < 3
	})
	assert.Equal(t, []int{0, 1, 2, 3}, seen)
}
