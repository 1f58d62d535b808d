package profile

// MaxExpertiseAreas caps the merged expertise list.
const MaxExpertiseAreas = 5

// Merge combines an existing profile with a newly synthesized one for the
// same contributor. The policy is deliberately asymmetric and must stay that
// way: commit counts are summed, expertise areas are a first-seen-ordered set
// union (existing before new) capped at MaxExpertiseAreas, and every other
// field, primary languages included, is taken from the new profile.
func Merge(existing, incoming *Profile) *Profile {
	if incoming == nil {
		return existing
	}
	if existing == nil {
		merged := *incoming
		return &merged
	}

	merged := *incoming
	merged.TotalCommits = existing.TotalCommits + incoming.TotalCommits
	merged.ExpertiseAreas = unionCapped(existing.ExpertiseAreas, incoming.ExpertiseAreas, MaxExpertiseAreas)

	return &merged
}

func unionCapped(first, second []string, limit int) []string {
	seen := make(map[string]struct{}, len(first)+len(second))
	union := make([]string, 0, len(first)+len(second))

	for _, items := range [][]string{first, second} {
		for _, item := range items {
			if _, ok := seen[item]; ok {
				continue
			}
			seen[item] = struct{}{}
			union = append(union, item)
			if len(union) == limit {
				return union
			}
		}
	}

	if len(union) == 0 {
		return nil
	}
	return union
}
