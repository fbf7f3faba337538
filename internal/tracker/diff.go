package tracker

import "github.com/dbsmedya/historytracker/internal/values"

// ComputeChanges returns the trackable attributes whose before and after
// values differ, in trackable order.
//
// A nil before map stands for a create: every non-null after value is
// recorded with Before nil. A nil after map is the destroy mirror image.
// Values compare with values.Equal, so int 2 and int64 2 are unchanged and
// a nil *string is the same as a missing key. NULL is recorded as nil.
func ComputeChanges(trackable []string, before, after map[string]interface{}) *Changes {
	changes := NewOrdered[Change]()
	for _, attr := range trackable {
		b, a := before[attr], after[attr]
		if values.Equal(b, a) {
			continue
		}
		changes.Set(attr, Change{Before: nullToNil(b), After: nullToNil(a)})
	}
	return changes
}

func nullToNil(v interface{}) interface{} {
	if values.IsNull(v) {
		return nil
	}
	return v
}
