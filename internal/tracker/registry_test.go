package tracker

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryTrackDefaults(t *testing.T) {
	reg := NewRegistry()
	cfg, err := reg.Track(blogPostType(), Options{})
	require.NoError(t, err)

	assert.Equal(t, "BlogPost", cfg.EntityType())
	assert.Equal(t, "blog_post", cfg.Scope())
	assert.Equal(t, []string{"id", "title", "body", "status"}, cfg.TrackedAttributes())
	assert.Equal(t, []string{"created_at", "updated_at"}, cfg.NonTrackedAttributes())
	assert.Equal(t, AllEvents, cfg.Events())
	assert.Empty(t, cfg.Associations())
	assert.Empty(t, cfg.Methods())
	assert.False(t, cfg.HasCustomDetector())

	assert.True(t, reg.IsTracked("BlogPost"))
	assert.False(t, reg.IsTracked("Comment"))
}

func TestRegistryTrackOptions(t *testing.T) {
	reg := NewRegistry()
	cfg, err := reg.Track(blogPostType(), Options{
		Scope:   "posts",
		Except:  []string{"status"},
		Include: []Include{AssocFields("comments", "body")},
		Methods: []string{"summary"},
		On:      []EventKind{EventDestroy, EventUpdate},
	})
	require.NoError(t, err)

	assert.Equal(t, "posts", cfg.Scope())
	assert.Equal(t, []string{"id", "title", "body"}, cfg.TrackedAttributes())
	assert.Equal(t, []EventKind{EventUpdate, EventDestroy}, cfg.Events(), "events are kept in canonical order")
	assert.True(t, cfg.Tracks(EventUpdate))
	assert.False(t, cfg.Tracks(EventCreate))
	assert.Equal(t, []string{"summary"}, cfg.Methods())

	rules := cfg.Associations()
	require.Len(t, rules, 1)
	assert.Equal(t, "comments", rules[0].Name)
	assert.Equal(t, []string{"body"}, rules[0].Fields)
}

func TestRegistryCustomIgnoreList(t *testing.T) {
	reg := NewRegistry(WithIgnoredAttributes("id", "id"))
	assert.Equal(t, []string{"id"}, reg.IgnoredAttributes())

	cfg, err := reg.Track(blogPostType(), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"title", "body", "status", "created_at", "updated_at"}, cfg.TrackedAttributes())
}

func TestRegistryTrackIdempotent(t *testing.T) {
	reg := NewRegistry()
	opts := Options{
		Only:    []string{"title", "body"},
		Include: []Include{AssocFields("comments", "body")},
	}

	first, err := reg.Track(blogPostType(), opts)
	require.NoError(t, err)

	// Same sets in another order are the same registration.
	second, err := reg.Track(blogPostType(), Options{
		Only:    []string{"body", "title"},
		Include: []Include{AssocFields("comments", "body")},
	})
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, []string{"BlogPost"}, reg.EntityTypes())
}

func TestRegistryTrackSameDetector(t *testing.T) {
	reg := NewRegistry()
	detector := func(_, _ map[string]interface{}, _ []string) (*Changes, error) { return nil, nil }

	first, err := reg.Track(blogPostType(), Options{Changes: detector})
	require.NoError(t, err)
	second, err := reg.Track(blogPostType(), Options{Changes: detector})
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestRegistryTrackConflict(t *testing.T) {
	tests := []struct {
		name  string
		again Options
	}{
		{"different only", Options{Only: []string{"title"}}},
		{"different scope", Options{Scope: "articles"}},
		{"different events", Options{On: []EventKind{EventCreate}}},
		{"added method", Options{Methods: []string{"summary"}}},
		{"added association", Options{Include: []Include{Assoc("comments")}}},
		{"added detector", Options{Changes: func(_, _ map[string]interface{}, _ []string) (*Changes, error) { return nil, nil }}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			first, err := reg.Track(blogPostType(), Options{})
			require.NoError(t, err)

			_, err = reg.Track(blogPostType(), tt.again)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConflictingOptions)

			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, "BlogPost", cfgErr.EntityType)

			current, ok := reg.Lookup("BlogPost")
			require.True(t, ok)
			assert.Same(t, first, current, "first registration stays in place")
		})
	}
}

func TestRegistryTrackUnknownRelationInstallsNothing(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Track(blogPostType(), Options{Include: []Include{Assoc("nonexistent")}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownRelation)

	assert.False(t, reg.IsTracked("BlogPost"))
	assert.Empty(t, reg.EntityTypes())
}

func TestRegistryTrackUnknownEvent(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Track(blogPostType(), Options{On: []EventKind{EventCreate, "touch"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownEvent)

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "on[1]", cfgErr.Field)
	assert.False(t, reg.IsTracked("BlogPost"))
}

func TestRegistryTrackNilType(t *testing.T) {
	_, err := NewRegistry().Track(nil, Options{})
	var cfgErr *ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestRegistryEntityTypesSorted(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Track(commentType(), Options{})
	require.NoError(t, err)
	_, err = reg.Track(blogPostType(), Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"BlogPost", "Comment"}, reg.EntityTypes())
}

func TestRegistryConcurrentAccess(t *testing.T) {
	reg := NewRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = reg.Track(blogPostType(), Options{})
		}()
		go func() {
			defer wg.Done()
			reg.Lookup("BlogPost")
			reg.EntityTypes()
		}()
	}
	wg.Wait()

	assert.Equal(t, []string{"BlogPost"}, reg.EntityTypes())
}

func TestConfigurationAccessorsReturnCopies(t *testing.T) {
	reg := NewRegistry()
	cfg, err := reg.Track(blogPostType(), Options{Include: []Include{AssocFields("comments", "body")}})
	require.NoError(t, err)

	tracked := cfg.TrackedAttributes()
	tracked[0] = "mutated"
	rules := cfg.Associations()
	rules[0].Fields[0] = "mutated"

	assert.Equal(t, "id", cfg.TrackedAttributes()[0])
	assert.Equal(t, "body", cfg.Associations()[0].Fields[0])
}
