package workbench

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/KomaVR/KXS-Osint-Soft/api/schemas"
	"github.com/KomaVR/KXS-Osint-Soft/internal/classifier"
	"github.com/KomaVR/KXS-Osint-Soft/internal/profile"
)

// fakeClient counts classification calls and can hold them open until
// released, to make in-flight collapsing observable.
type fakeClient struct {
	calls   atomic.Int64
	release chan struct{}
	result  schemas.RawClassification
	err     error
}

func (f *fakeClient) Classify(ctx context.Context, identifier string) (schemas.RawClassification, error) {
	f.calls.Add(1)
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return schemas.RawClassification{}, ctx.Err()
		}
	}
	return f.result, f.err
}

func (f *fakeClient) GenerateReport(ctx context.Context, req schemas.ReportRequest) (schemas.RawReport, error) {
	return schemas.RawReport{}, nil
}

func (f *fakeClient) Close() error { return nil }

func ptr[T any](v T) *T { return &v }

func newTestWorkbench(client schemas.InferenceClient) (*Workbench, *profile.Service) {
	profiles := profile.NewService(profile.NewInMemoryRepository(zap.NewNop()), zap.NewNop())
	adapter := classifier.NewAdapter(client, zap.NewNop())
	return New(adapter, profiles, zap.NewNop()), profiles
}

func TestSearchPipeline(t *testing.T) {
	t.Parallel()

	client := &fakeClient{result: schemas.RawClassification{
		DetectedType:      ptr("email"),
		Confidence:        ptr(0.9),
		SuggestedSearches: []string{"jdoe", "john.doe.1990"},
	}}
	wb, profiles := newTestWorkbench(client)

	result, err := wb.Search(context.Background(), " Doe@Example.COM ", "")
	require.NoError(t, err)

	assert.Equal(t, "doe@example.com", result.Profile.Identifier)
	assert.Equal(t, schemas.EntityEmail, result.Profile.Type)
	assert.Equal(t, schemas.EntityEmail, result.Analysis.DetectedType)
	assert.Len(t, result.Graph.Satellites, 2)
	assert.Equal(t, result.Profile.ID, result.Graph.Center.ID)

	stored, err := profiles.Get(context.Background(), "doe@example.com")
	require.NoError(t, err)
	assert.Equal(t, result.Profile.ID, stored.ID)
}

func TestSearchRejectsEmptyIdentifier(t *testing.T) {
	t.Parallel()

	wb, _ := newTestWorkbench(&fakeClient{})
	_, err := wb.Search(context.Background(), "   ", "")
	assert.ErrorIs(t, err, schemas.ErrValidation)
}

func TestSearchPropagatesUnavailability(t *testing.T) {
	t.Parallel()

	wb, profiles := newTestWorkbench(&fakeClient{err: schemas.ErrClassifierUnavailable})
	_, err := wb.Search(context.Background(), "target", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, schemas.ErrClassifierUnavailable)

	all, err := profiles.List(context.Background(), "created_at", 0)
	require.NoError(t, err)
	assert.Empty(t, all, "a failed search must not create a profile")
}

func TestSearchCollapsesDuplicateInFlight(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		release: make(chan struct{}),
		result:  schemas.RawClassification{DetectedType: ptr("username"), Confidence: ptr(0.8)},
	}
	wb, _ := newTestWorkbench(client)
	ctx := context.Background()

	const searchers = 10
	results := make([]SearchResult, searchers)
	var wg sync.WaitGroup
	for i := 0; i < searchers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			// Spellings differ but normalize to the same identifier.
			raw := "John Doe"
			if n%2 == 0 {
				raw = "  john   DOE "
			}
			result, err := wb.Search(ctx, raw, "")
			assert.NoError(t, err)
			results[n] = result
		}(i)
	}

	// Give every searcher time to reach the collapsed call, then release it.
	time.Sleep(100 * time.Millisecond)
	close(client.release)
	wg.Wait()

	assert.Equal(t, int64(1), client.calls.Load(), "in-flight duplicates must share one inference call")
	for _, result := range results[1:] {
		assert.Equal(t, results[0].Profile.ID, result.Profile.ID)
	}
}

func TestSearchDoesNotCollapseAcrossTypeOverrides(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		release: make(chan struct{}),
		result:  schemas.RawClassification{DetectedType: ptr("unknown"), Confidence: ptr(0.5)},
	}
	wb, _ := newTestWorkbench(client)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]SearchResult, 2)
	overrides := []schemas.EntityType{schemas.EntityEmail, schemas.EntityUsername}
	for i, override := range overrides {
		wg.Add(1)
		go func(n int, override schemas.EntityType) {
			defer wg.Done()
			result, err := wb.Search(ctx, "target", override)
			assert.NoError(t, err)
			results[n] = result
		}(i, override)
	}

	time.Sleep(100 * time.Millisecond)
	close(client.release)
	wg.Wait()

	assert.Equal(t, int64(2), client.calls.Load(), "different overrides must not share a pipeline run")

	// Whichever caller created the profile first fixed its type; the other
	// merged into it. Either way an override was applied, never dropped.
	assert.Equal(t, results[0].Profile.ID, results[1].Profile.ID)
	assert.Contains(t, overrides, results[0].Profile.Type)
	assert.Equal(t, results[0].Profile.Type, results[1].Profile.Type)
}

func TestSearchCancelledBeforePersistDoesNotTouchStore(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		release: make(chan struct{}),
		result:  schemas.RawClassification{DetectedType: ptr("username")},
	}
	wb, profiles := newTestWorkbench(client)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := wb.Search(ctx, "target", "")
		done <- err
	}()

	// Cancel while the classification is still held open.
	time.Sleep(50 * time.Millisecond)
	cancel()
	close(client.release)

	err := <-done
	require.Error(t, err)

	all, err := profiles.List(context.Background(), "created_at", 0)
	require.NoError(t, err)
	assert.Empty(t, all, "a cancelled search must leave the store untouched")
}
