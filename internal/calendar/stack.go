package calendar

// AssignStacks gives every segment the lowest stack row not taken by an
// earlier segment in the same (vehicle, day) bucket whose minute range
// overlaps it. Rows at or beyond maxVisible are marked hidden.
func AssignStacks(layout *Layout, maxVisible int) {
	if maxVisible <= 0 {
		maxVisible = DefaultMaxVisible
	}
	for _, days := range layout.Index {
		for _, bucket := range days {
			assignBucket(bucket, maxVisible)
		}
	}
}

func assignBucket(bucket []*Segment, maxVisible int) {
	for i, seg := range bucket {
		used := make(map[int]bool)
		for _, prev := range bucket[:i] {
			if overlaps(prev, seg) {
				used[prev.Stack] = true
			}
		}
		stack := 0
		for used[stack] {
			stack++
		}
		seg.Stack = stack
		seg.Hidden = stack >= maxVisible
	}
}

func overlaps(a, b *Segment) bool {
	return a.StartMinutes < b.EndMinutes && a.EndMinutes > b.StartMinutes
}
