// Package selection keeps the set of records a user has chosen while paging
// through the catalog. Page loads never touch it; only Merge, Sync and Remove
// change its contents.
package selection

import "github.com/jask/artview/internal/catalog"

// Accumulator maps record id to the record as it was when selected. Iteration
// follows first-insertion order. The zero value is not usable; call New.
type Accumulator struct {
	byID  map[int64]catalog.Record
	order []int64
}

func New() *Accumulator {
	return &Accumulator{byID: make(map[int64]catalog.Record)}
}

// Merge adds every record in checked, which is the full set of rows the table
// currently reports as checked. Records already selected keep their position
// and take the newer value. Merge never removes anything: a visible row that
// was selected earlier and is missing from checked stays selected.
func (a *Accumulator) Merge(checked []catalog.Record) {
	for _, r := range checked {
		a.put(r)
	}
}

// Sync treats checked as the complete checked state of visible: records in
// visible but not in checked are dropped, the rest are merged. Used when the
// viewer is configured to let unchecking a row deselect it.
func (a *Accumulator) Sync(visible, checked []catalog.Record) {
	keep := make(map[int64]struct{}, len(checked))
	for _, r := range checked {
		keep[r.ID] = struct{}{}
	}
	for _, r := range visible {
		if _, ok := keep[r.ID]; !ok {
			a.Remove(r)
		}
	}
	a.Merge(checked)
}

// Remove deletes r.ID from the selection. Absent ids are ignored.
func (a *Accumulator) Remove(r catalog.Record) {
	if _, ok := a.byID[r.ID]; !ok {
		return
	}
	delete(a.byID, r.ID)
	for i, id := range a.order {
		if id == r.ID {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
}

// VisibleSelection returns the records of page that are selected, in page order.
func (a *Accumulator) VisibleSelection(page []catalog.Record) []catalog.Record {
	out := make([]catalog.Record, 0, len(page))
	for _, r := range page {
		if _, ok := a.byID[r.ID]; ok {
			out = append(out, r)
		}
	}
	return out
}

// All returns every selected record in insertion order.
func (a *Accumulator) All() []catalog.Record {
	out := make([]catalog.Record, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, a.byID[id])
	}
	return out
}

func (a *Accumulator) Contains(id int64) bool {
	_, ok := a.byID[id]
	return ok
}

func (a *Accumulator) Len() int { return len(a.order) }

func (a *Accumulator) put(r catalog.Record) {
	if _, ok := a.byID[r.ID]; !ok {
		a.order = append(a.order, r.ID)
	}
	a.byID[r.ID] = r
}
