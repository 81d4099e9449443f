package log

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"TRACE": LevelTrace,
		"DEBUG": LevelDebug,
		"INFO":  LevelInfo,
		"WARN":  LevelWarn,
		"ERROR": LevelError,
		"FATAL": LevelFatal,
	}
	for s, want := range cases {
		got, err := ParseLevel(s)
		require.NoError(t, err, "ParseLevel(%q)", s)
		require.Equal(t, want, got, "ParseLevel(%q)", s)
	}
}

func TestParseLevelInvalid(t *testing.T) {
	_, err := ParseLevel("bogus")
	require.Error(t, err, "expected an error for an invalid level name")
}

func TestSetLevelRoundTrips(t *testing.T) {
	l := newLogger()
	l.SetLevel(LevelError)
	require.Equal(t, LevelError, l.Level())
}

func TestLevelStringUnknown(t *testing.T) {
	require.Equal(t, "UNKNOWN", Level(99).String())
}
