package live

import (
	"strconv"

	"github.com/beevik/etree"
)

// IDAllocator hands out document-unique numeric identifiers. One
// allocator is threaded through every assembly step of a document, so
// automation targets, envelopes and events never collide.
type IDAllocator struct {
	next int
}

// NewIDAllocator starts allocation at first.
func NewIDAllocator(first int) *IDAllocator {
	return &IDAllocator{next: first}
}

// Next returns a fresh identifier.
func (a *IDAllocator) Next() int {
	id := a.next
	a.next++
	return id
}

// NextString returns a fresh identifier as the string form used in
// attribute values.
func (a *IDAllocator) NextString() string {
	return strconv.Itoa(a.Next())
}

// Peek returns the next identifier without consuming it.
func (a *IDAllocator) Peek() int {
	return a.next
}

// RegenerateIDs rewrites every numeric Id attribute under el with fresh
// values and patches PointeeId references that pointed at rewritten
// ids. Used when a subtree copied from a template joins a document that
// already owns those numbers.
func RegenerateIDs(el *etree.Element, alloc *IDAllocator) {
	mapping := make(map[string]string)

	var renumber func(el *etree.Element)
	renumber = func(el *etree.Element) {
		if old := el.SelectAttrValue("Id", ""); old != "" {
			if _, err := strconv.Atoi(old); err == nil {
				fresh, ok := mapping[old]
				if !ok {
					fresh = alloc.NextString()
					mapping[old] = fresh
				}
				el.CreateAttr("Id", fresh)
			}
		}
		for _, child := range el.ChildElements() {
			renumber(child)
		}
	}
	renumber(el)

	var repoint func(el *etree.Element)
	repoint = func(el *etree.Element) {
		if el.Tag == "PointeeId" {
			if fresh, ok := mapping[el.SelectAttrValue("Value", "")]; ok {
				el.CreateAttr("Value", fresh)
			}
		}
		for _, child := range el.ChildElements() {
			repoint(child)
		}
	}
	repoint(el)
}
