package flatstore

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/anisync/internal/models"
)

func newMemStore(t *testing.T) (*Store, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	kv, err := NewFileKV(fs, "/data/fallback")
	require.NoError(t, err)
	return New(kv), fs
}

func TestFileKVMissingKey(t *testing.T) {
	s, _ := newMemStore(t)
	ctx := context.Background()

	_, err := s.GetSelected(ctx)
	assert.True(t, errors.Is(err, models.ErrNotFound))
	_, err = s.GetSeason(ctx, "spring-2024")
	assert.True(t, errors.Is(err, models.ErrNotFound))
	_, err = s.GetRules(ctx)
	assert.True(t, errors.Is(err, models.ErrNotFound))
	var cfg models.MalConfig
	assert.True(t, errors.Is(s.GetSetting(ctx, models.SettingMal, &cfg), models.ErrNotFound))
}

func TestFileKVRoundTrip(t *testing.T) {
	s, fs := newMemStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSelected(ctx, []int{9, 2, 5}))
	ids, err := s.GetSelected(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 5, 9}, ids)

	score := 7.5
	catalog := &models.SeasonCatalog{
		Season: models.Spring,
		Year:   2024,
		Anime:  []models.Anime{{ID: 1, Title: "A", Score: &score, Genres: []string{"Drama"}}},
	}
	require.NoError(t, s.SaveSeason(ctx, catalog.Key(), catalog))
	got, err := s.GetSeason(ctx, "spring-2024")
	require.NoError(t, err)
	assert.Equal(t, catalog, got)

	rules := []models.AutoRule{{
		ID: "r1", Name: "drama", Enabled: true,
		Conditions: []models.RuleCondition{{Field: models.FieldGenre, Operator: models.OpEquals, Value: models.StringValue("Drama")}},
	}}
	require.NoError(t, s.SaveRules(ctx, rules))
	gotRules, err := s.GetRules(ctx)
	require.NoError(t, err)
	assert.Equal(t, rules, gotRules)

	mal := models.MalConfig{ClientID: "abc", Connected: true}
	require.NoError(t, s.SaveSetting(ctx, models.SettingMal, mal))
	var gotMal models.MalConfig
	require.NoError(t, s.GetSetting(ctx, models.SettingMal, &gotMal))
	assert.Equal(t, mal, gotMal)

	// Keys with separators map to escaped file names, no temp files remain.
	exists, err := afero.Exists(fs, "/data/fallback/season:spring-2024.json")
	require.NoError(t, err)
	assert.True(t, exists)
	tmp, err := afero.Glob(fs, "/data/fallback/*.tmp")
	require.NoError(t, err)
	assert.Empty(t, tmp)
}

func TestFileKVCorruptDocument(t *testing.T) {
	s, fs := newMemStore(t)
	ctx := context.Background()

	require.NoError(t, afero.WriteFile(fs, "/data/fallback/selected_anime_ids.json", []byte("[1,2"), 0644))
	_, err := s.GetSelected(ctx)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, models.ErrNotFound))
}

func TestFileKVDelete(t *testing.T) {
	fs := afero.NewMemMapFs()
	kv, err := NewFileKV(fs, "/kv")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "k", []byte(`"v"`)))
	require.NoError(t, kv.Delete(ctx, "k"))
	_, err = kv.Get(ctx, "k")
	assert.True(t, errors.Is(err, models.ErrNotFound))
	// Deleting a missing key is not an error.
	assert.NoError(t, kv.Delete(ctx, "k"))
}

func TestRedisKV(t *testing.T) {
	redisURL := os.Getenv("ANISYNC_TEST_REDIS_URL")
	if redisURL == "" {
		t.Skip("ANISYNC_TEST_REDIS_URL not set")
	}
	kv, err := NewRedisKV(redisURL)
	require.NoError(t, err)
	defer kv.Close()
	ctx := context.Background()
	s := New(kv)

	t.Cleanup(func() { kv.Delete(context.Background(), keySelected) })

	require.NoError(t, s.SaveSelected(ctx, []int{3, 1}))
	ids, err := s.GetSelected(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, ids)

	require.NoError(t, kv.Delete(ctx, keySelected))
	_, err = s.GetSelected(ctx)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestNewRedisKVInvalidURL(t *testing.T) {
	_, err := NewRedisKV("not a url")
	assert.Error(t, err)
}
