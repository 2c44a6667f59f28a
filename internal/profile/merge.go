package profile

import (
	"strings"

	"github.com/KomaVR/KXS-Osint-Soft/api/schemas"
)

// mergeRelated unions two related-entity lists into an ordered set
// deduplicated case-insensitively by identifier. On a duplicate the
// reference with the higher confidence wins; ties keep the earliest seen.
// First-seen order is preserved, with genuinely new entries appended.
func mergeRelated(existing, incoming []schemas.RelatedEntityRef) []schemas.RelatedEntityRef {
	merged := make([]schemas.RelatedEntityRef, 0, len(existing)+len(incoming))
	index := make(map[string]int, len(existing))

	for _, list := range [][]schemas.RelatedEntityRef{existing, incoming} {
		for _, ref := range list {
			key := strings.ToLower(ref.Identifier)
			if at, seen := index[key]; seen {
				if ref.Confidence > merged[at].Confidence {
					merged[at] = ref
				}
				continue
			}
			index[key] = len(merged)
			merged = append(merged, ref)
		}
	}
	return merged
}

// mergeSocial unions two social-profile lists deduplicated by
// (platform, username), case-insensitive on the username. The same
// max-confidence policy applies.
func mergeSocial(existing, incoming []schemas.SocialProfile) []schemas.SocialProfile {
	merged := make([]schemas.SocialProfile, 0, len(existing)+len(incoming))
	index := make(map[string]int, len(existing))

	for _, list := range [][]schemas.SocialProfile{existing, incoming} {
		for _, sp := range list {
			key := sp.Platform + "\x00" + strings.ToLower(sp.Username)
			if at, seen := index[key]; seen {
				if sp.Confidence > merged[at].Confidence {
					merged[at] = sp
				}
				continue
			}
			index[key] = len(merged)
			merged = append(merged, sp)
		}
	}
	return merged
}
