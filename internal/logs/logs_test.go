package logs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLineSplitsDatetimeAndContent(t *testing.T) {
	line, ok := ParseLine("[Thu Jul 18 17:35:14 2024] You gain experience!!")
	require.True(t, ok)
	require.Equal(t, "Thu Jul 18 17:35:14 2024", line.RawDatetime)
	require.Equal(t, "You gain experience!!", line.Content)
}

func TestParseLineRejectsLineWithoutLeadingBracket(t *testing.T) {
	_, ok := ParseLine("You gain experience!!")
	require.False(t, ok)
}

func TestCharacterFromPathParsesNameAndServer(t *testing.T) {
	c, ok := characterFromPath(`C:\EverQuest\Logs\eqlog_Fippy_erollisi.txt`)
	require.True(t, ok)
	require.Equal(t, "Fippy", c.Name)
	require.Equal(t, "erollisi", c.Server)
}

func TestCharacterFromPathRejectsUnrelatedFile(t *testing.T) {
	_, ok := characterFromPath("/var/log/syslog")
	require.False(t, ok)
}
