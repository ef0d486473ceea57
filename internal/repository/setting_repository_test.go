package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ers "github.com/customeros/dmarcstore/internal/errors"
	"github.com/customeros/dmarcstore/internal/models"
)

func TestSettingRepository_SaveAndValue(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepositories(t, "")

	require.NoError(t, repos.SettingRepository.Save(ctx, 7, "ui.theme", "dark"))

	value, err := repos.SettingRepository.Value(ctx, 7, "ui.theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", value)

	// Saving the same key again updates in place.
	require.NoError(t, repos.SettingRepository.Save(ctx, 7, "ui.theme", "light"))
	value, err = repos.SettingRepository.Value(ctx, 7, "ui.theme")
	require.NoError(t, err)
	assert.Equal(t, "light", value)

	// The same key under another user is a separate setting.
	_, err = repos.SettingRepository.Value(ctx, 8, "ui.theme")
	assert.True(t, ers.IsNotFound(err))
}

func TestSettingRepository_List(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepositories(t, "")

	require.NoError(t, repos.SettingRepository.Save(ctx, 7, "zeta", "1"))
	require.NoError(t, repos.SettingRepository.Save(ctx, 7, "alpha", "2"))
	require.NoError(t, repos.SettingRepository.Save(ctx, 8, "alpha", "3"))

	settings, err := repos.SettingRepository.List(ctx, 7)
	require.NoError(t, err)
	require.Len(t, settings, 2)
	assert.Equal(t, "alpha", settings[0].Key)
	assert.Equal(t, "zeta", settings[1].Key)
}

func TestSettingRepository_VersionMarkerVisible(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepositories(t, "")

	// The migrator leaves the schema version behind as a global setting.
	version, err := repos.SettingRepository.Value(ctx, models.GlobalUserID, models.SettingVersionKey)
	require.NoError(t, err)
	assert.Equal(t, "4.0", version)
}
