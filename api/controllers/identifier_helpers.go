package controllers

import "strconv"

func parseNumericID(value string) (uint, bool) {
	id, err := strconv.ParseUint(value, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
