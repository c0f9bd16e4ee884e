package list

// List is a doubly linked list. A List owns every Elem pushed into it until
// the Elem is popped.
type List[V any] struct {
	front  *Elem[V]
	length int
}

func New[V any]() *List[V] {
	return &List[V]{}
}

func (l *List[V]) Front() *Elem[V] {
	return l.front
}

func (l *List[V]) Len() int {
	return l.length
}

func (l *List[V]) PushFront(e *Elem[V]) *Elem[V] {
	if e.list != nil {
		panic("elem already belongs to a list")
	}
	l.length++
	e.list = l

	if l.front != nil {
		e.next = l.front
		l.front.prev = e
	}
	l.front = e
	return e
}

func (l *List[V]) PopElem(e *Elem[V]) *Elem[V] {
	if e.list != l {
		panic("elem does not belong to this list")
	}

	l.length--

	p, n := e.prev, e.next

	if p != nil {
		p.next = n
	} else {
		l.front = n
	}

	if n != nil {
		n.prev = p
	}

	e.prev = nil
	e.next = nil
	e.list = nil

	return e
}

// Range calls f for every element from front to back until f returns false.
// f may pop the element it was given.
func (l *List[V]) Range(f func(e *Elem[V]) bool) {
	e := l.front
	for e != nil {
		next := e.next
		if !f(e) {
			return
		}
		e = next
	}
}

// RemoveFunc pops every element whose value satisfies f and returns the
// number of popped elements.
func (l *List[V]) RemoveFunc(f func(v V) bool) (removed int) {
	l.Range(func(e *Elem[V]) bool {
		if f(e.Value) {
			l.PopElem(e)
			removed++
		}
		return true
	})
	return
}

// Values returns a copy of all values from front to back.
func (l *List[V]) Values() []V {
	s := make([]V, 0, l.length)
	for e := l.front; e != nil; e = e.next {
		s = append(s, e.Value)
	}
	return s
}

// Clear pops all elements.
func (l *List[V]) Clear() {
	for l.front != nil {
		l.PopElem(l.front)
	}
}
