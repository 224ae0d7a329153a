package banlist_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bisq-network/bisqeasyd/internal/infrastructure/banlist"
)

func TestIsBannedMatchesNormalized(t *testing.T) {
	t.Parallel()

	list := banlist.NewFromEntries([]string{
		"IBAN DE89 3704 0044 0532 0130 00",
		"  scammer@example.com ",
	})

	require.True(t, list.IsBanned("IBAN DE89 3704 0044 0532 0130 00"))
	require.True(t, list.IsBanned("iban de89 3704 0044 0532 0130 00"))
	require.True(t, list.IsBanned("scammer@example.com"))
	require.False(t, list.IsBanned("IBAN DE89 3704 0044 0532 0130 01"))
	require.False(t, list.IsBanned(""))
}

func TestNewFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "banlist.json")
	require.NoError(t, os.WriteFile(
		path, []byte(`["scammer@example.com"]`), 0644,
	))

	list, err := banlist.NewFromFile(path)
	require.NoError(t, err)
	require.True(t, list.IsBanned("scammer@example.com"))
	require.False(t, list.IsBanned("honest@example.com"))
}

func TestNewFromFileMissingYieldsEmptyList(t *testing.T) {
	t.Parallel()

	list, err := banlist.NewFromFile(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	require.False(t, list.IsBanned("anyone"))
}

func TestNewFromFileMalformed(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "banlist.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json}`), 0644))

	_, err := banlist.NewFromFile(path)
	require.Error(t, err)
}
