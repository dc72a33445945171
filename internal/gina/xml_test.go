package gina

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleXML = `<?xml version="1.0"?>
<SharedData>
  <TriggerGroup>
    <Name>Raid Alerts</Name>
    <EnableByDefault>true</EnableByDefault>
    <Trigger>
      <Name>Slain</Name>
      <TriggerText>You have slain (?&lt;target&gt;\w+)!</TriggerText>
      <EnableRegex>True</EnableRegex>
      <UseText>True</UseText>
      <DisplayText>Nice kill</DisplayText>
      <TimerType>Timer</TimerType>
      <TimerName>Slain Timer</TimerName>
      <TimerMillisecondDuration>30000</TimerMillisecondDuration>
      <Modified>2024-04-10T22:48:35</Modified>
    </Trigger>
    <TriggerGroup>
      <Name>Nested</Name>
      <Trigger>
        <Name>Incoming</Name>
        <TriggerText>incoming!</TriggerText>
        <EnableRegex>False</EnableRegex>
      </Trigger>
    </TriggerGroup>
  </TriggerGroup>
</SharedData>
`

func TestDecodeParsesNestedGroupsAndTriggers(t *testing.T) {
	result, err := decode(strings.NewReader(sampleXML))
	require.NoError(t, err)
	require.Len(t, result.TriggerGroups, 1)

	top := result.TriggerGroups[0]
	require.Equal(t, "Raid Alerts", *top.Name)
	require.True(t, *top.EnableByDefault)
	require.Len(t, top.Triggers, 1)
	require.Len(t, top.TriggerGroups, 1)

	trig := top.Triggers[0]
	require.Equal(t, "Slain", *trig.Name)
	require.True(t, *trig.EnableRegex)
	require.Equal(t, "Timer", *trig.TimerType)
	require.Equal(t, uint32(30000), *trig.TimerMillisecondDuration)

	nested := top.TriggerGroups[0]
	require.Equal(t, "Nested", *nested.Name)
	require.Len(t, nested.Triggers, 1)
}

func TestLoadFromFileRejectsUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.foo")
	require.NoError(t, os.WriteFile(path, []byte(sampleXML), 0o644))

	_, err := LoadFromFile(path)
	require.Error(t, err)
}

func TestLoadFromFileReadsXML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.xml")
	require.NoError(t, os.WriteFile(path, []byte(sampleXML), 0o644))

	result, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Len(t, result.TriggerGroups, 1)
}
