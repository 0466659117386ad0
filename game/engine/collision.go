package engine

import "github.com/zyedidia/generic/mapset"

// occupancy collects the cells of every vehicle except the one at index moving
func occupancy(moving int, vehicles []Vehicle) mapset.Set[string] {
	occupied := mapset.New[string]()
	for i, v := range vehicles {
		if i == moving {
			continue
		}
		for _, c := range v.Cells {
			occupied.Put(c)
		}
	}
	return occupied
}

// IsMoveFree reports whether none of candidate is held by a vehicle other than moving.
func IsMoveFree(moving int, candidate []string, vehicles []Vehicle) bool {
	occupied := occupancy(moving, vehicles)
	for _, c := range candidate {
		if occupied.Has(c) {
			return false
		}
	}
	return true
}

// IsRotationSweepClear checks the rectangle between each non-pivot cell's old and
// new position, pivot excluded, against the other vehicles. A rotation whose
// endpoints are free can still fail here when its swing crosses a vehicle.
func IsRotationSweepClear(moving int, pivot string, oldLabels, newLabels []string, vehicles []Vehicle) bool {
	occupied := occupancy(moving, vehicles)

	n := min(len(oldLabels), len(newLabels))
	for i := 1; i < n; i++ {
		or, oc, err := ParseCell(oldLabels[i])
		if err != nil {
			return false
		}
		nr, nc, err := ParseCell(newLabels[i])
		if err != nil {
			return false
		}

		for r := min(or, nr); r <= max(or, nr); r++ {
			for c := min(oc, nc); c <= max(oc, nc); c++ {
				lbl := FormatCell(r, c)
				if lbl == pivot {
					continue
				}
				if occupied.Has(lbl) {
					return false
				}
			}
		}
	}
	return true
}
