package service

import "time"

// apply copies src into dst when the patch field is set, reporting whether
// it changed the stored value. Update handlers use it so audit metadata
// only lists fields that actually moved.
func apply[T comparable](dst *T, src *T) bool {
	if src == nil || *src == *dst {
		return false
	}
	*dst = *src
	return true
}

// applyTime is apply for nullable timestamps.
func applyTime(dst **time.Time, src *time.Time) bool {
	if src == nil {
		return false
	}
	if *dst != nil && (*dst).Equal(*src) {
		return false
	}
	*dst = src
	return true
}
