package analyse

import (
	"slices"

	"github.com/urieli/jochre-sub004/sequence"
)

// positionMap orders beams by the horizontal position their hypotheses have
// reached inside the group.
type positionMap struct {
	keys  []int
	beams map[int]*sequence.Heap[*sequence.LetterSequence]
}

func newPositionMap() *positionMap {
	return &positionMap{beams: make(map[int]*sequence.Heap[*sequence.LetterSequence])}
}

func (m *positionMap) push(pos int, s *sequence.LetterSequence) {
	h, ok := m.beams[pos]
	if !ok {
		h = sequence.NewLetterHeap()
		m.beams[pos] = h
		i, _ := slices.BinarySearch(m.keys, pos)
		m.keys = slices.Insert(m.keys, i, pos)
	}
	h.Push(s)
}

// popLowest removes and returns the beam with the smallest position.
func (m *positionMap) popLowest() (int, *sequence.Heap[*sequence.LetterSequence], bool) {
	if len(m.keys) == 0 {
		return 0, nil, false
	}
	pos := m.keys[0]
	m.keys = m.keys[1:]
	h := m.beams[pos]
	delete(m.beams, pos)
	return pos, h, true
}
