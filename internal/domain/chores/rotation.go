package chores

// NextInRotation picks the member after lastAssigned among the ordered
// members that are available. When lastAssigned is unset or no longer
// eligible the rotation restarts from the first eligible member. It reports
// false when nobody is eligible.
func NextInRotation(ordered []string, available map[string]bool, lastAssigned *string) (string, bool) {
	eligible := eligibleOrder(ordered, available)
	if len(eligible) == 0 {
		return "", false
	}
	if lastAssigned == nil {
		return eligible[0], true
	}

	for i, memberID := range eligible {
		if memberID == *lastAssigned {
			return eligible[(i+1)%len(eligible)], true
		}
	}
	return eligible[0], true
}

// RotationPreview lists the next n assignees, feeding each pick back in as
// the cursor.
func RotationPreview(ordered []string, available map[string]bool, lastAssigned *string, n int) []string {
	result := make([]string, 0, max(n, 0))
	cursor := lastAssigned
	for i := 0; i < n; i++ {
		next, ok := NextInRotation(ordered, available, cursor)
		if !ok {
			break
		}
		result = append(result, next)
		cursor = &next
	}
	return result
}

func eligibleOrder(ordered []string, available map[string]bool) []string {
	eligible := make([]string, 0, len(ordered))
	seen := make(map[string]bool, len(ordered))
	for _, memberID := range ordered {
		if available[memberID] && !seen[memberID] {
			eligible = append(eligible, memberID)
			seen[memberID] = true
		}
	}
	return eligible
}
