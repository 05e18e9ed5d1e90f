// Package elements models user-placed perturbations: dye sources, forces
// and attractors. Elements are re-applied every simulation step until
// explicitly removed.
package elements

import "fmt"

// Kind discriminates the closed set of element variants.
type Kind int

const (
	KindDyeSource Kind = iota
	KindForce
	KindAttractor
)

func (k Kind) String() string {
	switch k {
	case KindDyeSource:
		return "dye"
	case KindForce:
		return "force"
	case KindAttractor:
		return "attractor"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

type Vec2 struct {
	X float64
	Y float64
}

type Color struct {
	R float64
	G float64
	B float64
}

// Element is a tagged variant. Pos and Radius are in grid-cell units.
// Which of the remaining fields are meaningful depends on Kind:
// DyeSource uses Color and Intensity, Force uses Direction and Strength,
// Attractor uses Strength.
type Element struct {
	ID        uint64
	Kind      Kind
	Pos       Vec2
	Radius    float64
	Color     Color
	Intensity float64
	Direction Vec2
	Strength  float64
}

func NewDyeSource(pos Vec2, radius float64, color Color, intensity float64) Element {
	return Element{Kind: KindDyeSource, Pos: pos, Radius: radius, Color: color, Intensity: intensity}
}

func NewForce(pos Vec2, radius float64, direction Vec2, strength float64) Element {
	return Element{Kind: KindForce, Pos: pos, Radius: radius, Direction: direction, Strength: strength}
}

func NewAttractor(pos Vec2, radius, strength float64) Element {
	return Element{Kind: KindAttractor, Pos: pos, Radius: radius, Strength: strength}
}

// List owns placed elements in creation order. Order is part of the
// replay/serialization contract, so removal never reorders survivors.
type List struct {
	items  []Element
	nextID uint64
}

func NewList() *List {
	return &List{nextID: 1}
}

// Add assigns the next ID and appends the element.
func (l *List) Add(e Element) uint64 {
	e.ID = l.nextID
	l.nextID++
	l.items = append(l.items, e)
	return e.ID
}

// Remove deletes the element with the given ID, preserving the order of
// the rest. It reports whether anything was removed.
func (l *List) Remove(id uint64) bool {
	for i, e := range l.items {
		if e.ID == id {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return true
		}
	}
	return false
}

// Items returns the elements in creation order. Callers must not mutate
// the returned slice.
func (l *List) Items() []Element { return l.items }

func (l *List) Len() int { return len(l.items) }

func (l *List) Clear() {
	l.items = l.items[:0]
}

// Replace swaps in a decoded element set (share-state load), assigning
// fresh IDs in the given order.
func (l *List) Replace(items []Element) {
	l.items = l.items[:0]
	for _, e := range items {
		l.Add(e)
	}
}
