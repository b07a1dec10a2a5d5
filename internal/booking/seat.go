package booking

import "strconv"

// NextFreeSeat returns the lowest free seat label S1..S<capacity> given the
// set of labels already held by CONFIRMED reservations.  The scan is
// bounded by the train's capacity rather than a fixed range, so trains
// larger than any hardcoded limit allocate correctly and a full train
// reports no seat instead of falling back to a random (possibly colliding)
// label.  The caller runs this under the schedule row lock with the taken
// set read in the same transaction, so a false "free" answer is impossible
// for the duration of the booking.
func NextFreeSeat(taken map[string]struct{}, capacity int) (string, bool) {
	for n := 1; n <= capacity; n++ {
		label := "S" + strconv.Itoa(n)
		if _, ok := taken[label]; !ok {
			return label, true
		}
	}
	return "", false
}
