package command

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cmd, err := Parse("/mint 10 @alice")
	require.NoError(t, err)
	require.Equal(t, Mint, cmd.Name)
	require.Equal(t, []string{"10", "@alice"}, cmd.Args)
	require.True(t, cmd.CreatorOnly())

	cmd, err = Parse("  /Leadership@SocialXPBot ")
	require.NoError(t, err)
	require.Equal(t, Leadership, cmd.Name)
	require.Empty(t, cmd.Args)
	require.False(t, cmd.CreatorOnly())
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse("hello")
	require.ErrorIs(t, err, ErrNotACommand)

	_, err = Parse("")
	require.ErrorIs(t, err, ErrNotACommand)

	_, err = Parse("/teleport")
	require.ErrorIs(t, err, ErrUnknownCommand)

	_, err = Parse("/mint 10")
	require.ErrorIs(t, err, ErrUsage)
	require.Contains(t, err.Error(), "/mint <amount> <user>")

	_, err = Parse("/me extra")
	require.ErrorIs(t, err, ErrUsage)
}

func TestParseAmount(t *testing.T) {
	amount, err := parseAmount("42")
	require.NoError(t, err)
	require.Equal(t, uint64(42), amount)

	for _, bad := range []string{"0", "-1", "1.5", "ten"} {
		_, err := parseAmount(bad)
		require.ErrorIs(t, err, ErrUsage, "input %q", bad)
	}
}
