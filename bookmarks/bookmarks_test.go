package bookmarks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddRejectsDuplicates(t *testing.T) {
	s := &Store{}
	require.True(t, s.Add("gemini://h.org/", "Home"))
	require.False(t, s.Add("gemini://h.org/", "Again"))
	require.Equal(t, 1, s.Len())
}

func TestRemove(t *testing.T) {
	s := &Store{}
	s.Add("gemini://a.org/", "A")
	s.Add("gemini://b.org/", "B")
	s.Add("gemini://c.org/", "C")

	require.False(t, s.Remove(-1))
	require.False(t, s.Remove(3))
	require.True(t, s.Remove(1))

	got := s.List()
	require.Len(t, got, 2)
	require.Equal(t, "gemini://a.org/", got[0].URL)
	require.Equal(t, "gemini://c.org/", got[1].URL)
}

func TestLoadMissing(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "none.toml"))
	require.NoError(t, err)
	require.Equal(t, 0, s.Len())
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "bookmarks.toml")
	s, err := Load(path)
	require.NoError(t, err)
	s.Add("gemini://h.org/", "Home")
	s.Add("gopher://g.org/1/", "Gopher hole")
	require.NoError(t, s.Save())

	again, err := Load(path)
	require.NoError(t, err)
	want, got := s.List(), again.List()
	require.Len(t, got, len(want))
	for i := range want {
		require.Equal(t, want[i].URL, got[i].URL)
		require.Equal(t, want[i].Title, got[i].Title)
		require.True(t, want[i].AddedAt.Equal(got[i].AddedAt), "added_at %v != %v", want[i].AddedAt, got[i].AddedAt)
	}
}

func TestLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookmarks.toml")
	require.NoError(t, os.WriteFile(path, []byte("[[bookmark]\nurl ="), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}
