package profile

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/KomaVR/KXS-Osint-Soft/api/schemas"
)

func TestMergeRelated(t *testing.T) {
	t.Parallel()

	t.Run("union preserves first-seen order and appends new entries", func(t *testing.T) {
		t.Parallel()
		existing := []schemas.RelatedEntityRef{
			{Identifier: "alpha", Confidence: 0.5},
			{Identifier: "beta", Confidence: 0.6},
		}
		incoming := []schemas.RelatedEntityRef{
			{Identifier: "gamma", Confidence: 0.4},
		}

		merged := mergeRelated(existing, incoming)
		want := []schemas.RelatedEntityRef{
			{Identifier: "alpha", Confidence: 0.5},
			{Identifier: "beta", Confidence: 0.6},
			{Identifier: "gamma", Confidence: 0.4},
		}
		if diff := cmp.Diff(want, merged); diff != "" {
			t.Errorf("merged list mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("higher confidence wins on duplicates", func(t *testing.T) {
		t.Parallel()
		existing := []schemas.RelatedEntityRef{{Identifier: "alpha", Confidence: 0.5, Source: "old"}}
		incoming := []schemas.RelatedEntityRef{{Identifier: "alpha", Confidence: 0.9, Source: "new"}}

		merged := mergeRelated(existing, incoming)
		assert.Len(t, merged, 1)
		assert.Equal(t, 0.9, merged[0].Confidence)
		assert.Equal(t, "new", merged[0].Source)
	})

	t.Run("ties keep the earliest entry", func(t *testing.T) {
		t.Parallel()
		existing := []schemas.RelatedEntityRef{{Identifier: "alpha", Confidence: 0.5, Source: "old"}}
		incoming := []schemas.RelatedEntityRef{{Identifier: "alpha", Confidence: 0.5, Source: "new"}}

		merged := mergeRelated(existing, incoming)
		assert.Len(t, merged, 1)
		assert.Equal(t, "old", merged[0].Source)
	})

	t.Run("identifier match is case-insensitive", func(t *testing.T) {
		t.Parallel()
		existing := []schemas.RelatedEntityRef{{Identifier: "Alpha", Confidence: 0.5}}
		incoming := []schemas.RelatedEntityRef{{Identifier: "ALPHA", Confidence: 0.8}}

		merged := mergeRelated(existing, incoming)
		assert.Len(t, merged, 1)
		assert.Equal(t, 0.8, merged[0].Confidence)
	})
}

func TestMergeSocial(t *testing.T) {
	t.Parallel()

	t.Run("same platform different username are distinct", func(t *testing.T) {
		t.Parallel()
		merged := mergeSocial(
			[]schemas.SocialProfile{{Platform: "github", Username: "alice", Confidence: 0.6}},
			[]schemas.SocialProfile{{Platform: "github", Username: "bob", Confidence: 0.6}},
		)
		assert.Len(t, merged, 2)
	})

	t.Run("same platform and username dedupe by max confidence", func(t *testing.T) {
		t.Parallel()
		merged := mergeSocial(
			[]schemas.SocialProfile{{Platform: "github", Username: "alice", Confidence: 0.6}},
			[]schemas.SocialProfile{{Platform: "github", Username: "Alice", Confidence: 0.9}},
		)
		assert.Len(t, merged, 1)
		assert.Equal(t, 0.9, merged[0].Confidence)
	})
}
