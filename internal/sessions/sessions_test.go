package sessions

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinevox/client/internal/types"
)

func sampleSelection() types.BookingSelection {
	return types.BookingSelection{
		ShowtimeID: 42,
		MovieTitle: "Avatar",
		Theater:    "PVR",
		City:       "Pune",
		StartTime:  "2025-01-01T19:00:00",
		Seats:      []types.Seat{{Row: 1, Seat: 3, Available: true}, {Row: 1, Seat: 4, Available: true}},
		Amount:     500,
	}
}

func TestFileStoreMissingFileLoadsEmpty(t *testing.T) {
	t.Parallel()

	store := NewFileStore(filepath.Join(t.TempDir(), "nested", "state.toml"))
	st, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, stateVersion, st.Version)
	assert.Empty(t, st.Auth.Token)
	assert.Nil(t, st.Selection)
}

func TestContextPersistsAcrossHydrate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.toml")
	sess := NewContext(NewFileStore(path))
	require.NoError(t, sess.SignIn(ctx, types.AuthResponse{Token: "jwt-1", Email: "a@b.c", Name: "Asha", UserID: 9}))
	require.NoError(t, sess.HoldSelection(ctx, sampleSelection()))
	require.NoError(t, sess.RecordBookingID(ctx, 77))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(stateFileMode), info.Mode().Perm())

	again := NewContext(NewFileStore(path))
	require.NoError(t, again.Hydrate(ctx))
	assert.Equal(t, "jwt-1", again.Token())
	user, ok := again.User()
	require.True(t, ok)
	assert.Equal(t, types.User{Email: "a@b.c", Name: "Asha", UserID: 9}, user)

	sel, ok := again.Selection()
	require.True(t, ok)
	assert.Equal(t, int64(42), sel.ShowtimeID)
	assert.Equal(t, int64(77), sel.BookingID)
	assert.Len(t, sel.Seats, 2)
	assert.Equal(t, 500.0, sel.Amount)
	assert.WithinDuration(t, time.Now(), sel.HeldAt, time.Minute)
}

func TestSignOutKeepsSelection(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sess := NewContext(NewMemoryStore())
	require.NoError(t, sess.SignIn(ctx, types.AuthResponse{Token: "jwt"}))
	require.NoError(t, sess.HoldSelection(ctx, sampleSelection()))
	require.NoError(t, sess.SignOut(ctx))

	assert.Empty(t, sess.Token())
	_, ok := sess.User()
	assert.False(t, ok)
	_, ok = sess.Selection()
	assert.True(t, ok)

	require.NoError(t, sess.ReleaseSelection(ctx))
	_, ok = sess.Selection()
	assert.False(t, ok)
}

func TestRecordBookingIDWithoutSelection(t *testing.T) {
	t.Parallel()

	sess := NewContext(NewMemoryStore())
	assert.ErrorIs(t, sess.RecordBookingID(context.Background(), 1), ErrNoSelection)
}

func TestSignInRejectsEmptyToken(t *testing.T) {
	t.Parallel()

	sess := NewContext(NewMemoryStore())
	require.Error(t, sess.SignIn(context.Background(), types.AuthResponse{}))
	assert.Empty(t, sess.Token())
}

func TestSelectionIsCopied(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sess := NewContext(NewMemoryStore())
	sel := sampleSelection()
	require.NoError(t, sess.HoldSelection(ctx, sel))
	sel.Seats[0].Seat = 99

	got, _ := sess.Selection()
	assert.Equal(t, 3, got.Seats[0].Seat)
	got.Seats[1].Seat = 42
	again, _ := sess.Selection()
	assert.Equal(t, 4, again.Seats[1].Seat)
}

func TestFileStoreRejectsNewerVersion(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.toml")
	require.NoError(t, os.WriteFile(path, []byte("version = 9\n"), 0o600))
	_, err := NewFileStore(path).Load(context.Background())
	assert.ErrorContains(t, err, "newer than supported")
}
