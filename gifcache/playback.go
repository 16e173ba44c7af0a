package gifcache

// CurrentFrame picks the frame showing at nowMillis for an animation that
// loops every total milliseconds. It returns false when there is nothing to
// show. It does not allocate and is safe to call from any goroutine.
func CurrentFrame[T any](frames []T, delays []int, total int, nowMillis int64) (T, bool) {
	var zero T
	if total <= 0 || len(frames) == 0 {
		return zero, false
	}
	t := nowMillis % int64(total)
	if t < 0 {
		t += int64(total)
	}
	var acc int64
	for i, f := range frames {
		if i < len(delays) {
			acc += int64(delays[i])
		}
		if t < acc {
			return f, true
		}
	}
	// Rounding at the loop boundary.
	return frames[0], true
}
