package listings

import "time"

// CanBump decides whether a bump is permitted at now given the last
// successful bump. The second return is the non-negative wait remaining when
// disallowed, zero otherwise. Pure, no side effects.
func CanBump(lastBumpAt, now time.Time, cooldown time.Duration) (bool, time.Duration) {
	wait := cooldown - now.Sub(lastBumpAt)
	if wait <= 0 {
		return true, 0
	}
	return false, wait
}
