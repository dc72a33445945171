// Package gina imports trigger packages exported by GINA, translating its
// XML schema into the domain model (spec §4.9).
package gina

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ParseError wraps a failure reading or decoding a GINA export file.
type ParseError struct {
	msg string
	err error
}

func (e *ParseError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("gina: %s: %v", e.msg, e.err)
	}
	return "gina: " + e.msg
}

func (e *ParseError) Unwrap() error { return e.err }

// ginaTimeLayout is the NaiveDateTime format GINA stamps trigger
// modification times with, e.g. "2024-04-10T22:48:35".
const ginaTimeLayout = "2006-01-02T15:04:05"

// Triggers is the root of a parsed GINA export.
type Triggers struct {
	TriggerGroups []TriggerGroup `xml:"TriggerGroup"`
}

// TriggerGroup mirrors GINA's <TriggerGroup> element, recursively.
type TriggerGroup struct {
	Name            *string        `xml:"Name"`
	Comments        *string        `xml:"Comments"`
	EnableByDefault *bool          `xml:"EnableByDefault"`
	TriggerGroups   []TriggerGroup `xml:"TriggerGroup"`
	Triggers        []Trigger      `xml:"Trigger"`
	SelfCommented   *bool          `xml:"SelfCommented"`
	GroupID         *uint32        `xml:"GroupId"`
}

// Trigger mirrors GINA's <Trigger> element.
type Trigger struct {
	Name                     *string      `xml:"Name"`
	TriggerText              *string      `xml:"TriggerText"`
	Comments                 *string      `xml:"Comments"`
	Category                 *string      `xml:"Category"`
	EnableRegex              *bool        `xml:"EnableRegex"`
	UseText                  *bool        `xml:"UseText"`
	DisplayText              *string      `xml:"DisplayText"`
	CopyToClipboard          *bool        `xml:"CopyToClipboard"`
	ClipboardText            *string      `xml:"ClipboardText"`
	UseTextToVoice           *bool        `xml:"UseTextToVoice"`
	InterruptSpeech          *bool        `xml:"InterruptSpeech"`
	TextToVoiceText          *string      `xml:"TextToVoiceText"`
	PlayMediaFile            *bool        `xml:"PlayMediaFile"`
	TimerType                *string      `xml:"TimerType"`
	TimerName                *string      `xml:"TimerName"`
	RestartBasedOnTimerName  *bool        `xml:"RestartBasedOnTimerName"`
	TimerMillisecondDuration *uint32      `xml:"TimerMillisecondDuration"`
	TimerDuration            *uint32      `xml:"TimerDuration"`
	TimerVisibleDuration     *uint32      `xml:"TimerVisibleDuration"`
	TimerStartBehavior       *string      `xml:"TimerStartBehavior"`
	TimerEndingTime          *uint32      `xml:"TimerEndingTime"`
	UseTimerEnding           *bool        `xml:"UseTimerEnding"`
	UseTimerEnded            *bool        `xml:"UseTimerEnded"`
	TimerEndingTrigger       *TimerTrigger `xml:"TimerEndingTrigger"`
	TimerEndedTrigger        *TimerTrigger `xml:"TimerEndedTrigger"`
	UseCounterResetTimer     *bool        `xml:"UseCounterResetTimer"`
	CounterResetDuration     *uint32      `xml:"CounterResetDuration"`
	Modified                 *string      `xml:"Modified"`
	UseFastCheck             *bool        `xml:"UseFastCheck"`
	EarlyEnders              []EarlyEnder `xml:"EarlyEnder"`
}

// TimerTrigger backs both <TimerEndingTrigger> and <TimerEndedTrigger>.
type TimerTrigger struct {
	UseText         *bool   `xml:"UseText"`
	DisplayText     *string `xml:"DisplayText"`
	UseTextToVoice  *bool   `xml:"UseTextToVoice"`
	InterruptSpeech *bool   `xml:"InterruptSpeech"`
	TextToVoiceText *string `xml:"TextToVoiceText"`
	PlayMediaFile   *bool   `xml:"PlayMediaFile"`
}

// EarlyEnder mirrors GINA's <EarlyEnder> element.
type EarlyEnder struct {
	EarlyEndText *string `xml:"EarlyEndText"`
	EnableRegex  *bool   `xml:"EnableRegex"`
}

// modifiedTime parses the Modified element, if present and well-formed.
func (t Trigger) modifiedTime() (time.Time, bool) {
	if t.Modified == nil {
		return time.Time{}, false
	}
	parsed, err := time.Parse(ginaTimeLayout, *t.Modified)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

// LoadFromFile reads a GINA export from path. A ".gtp" file is a ZIP
// archive holding ShareData.xml; a ".xml" file is read directly. Any other
// extension is an error.
func LoadFromFile(path string) (*Triggers, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gtp":
		return loadFromZip(path)
	case ".xml":
		f, err := os.Open(path)
		if err != nil {
			return nil, &ParseError{msg: "failed to open " + path, err: err}
		}
		defer f.Close()
		return decode(f)
	default:
		return nil, &ParseError{msg: fmt.Sprintf("unrecognized file extension for %q", path)}
	}
}

func loadFromZip(path string) (*Triggers, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, &ParseError{msg: "failed to open zip " + path, err: err}
	}
	defer archive.Close()

	for _, f := range archive.File {
		if f.Name != "ShareData.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, &ParseError{msg: "failed to open ShareData.xml", err: err}
		}
		defer rc.Close()
		return decode(rc)
	}
	return nil, &ParseError{msg: "zip archive has no ShareData.xml"}
}

func decode(r io.Reader) (*Triggers, error) {
	var result Triggers
	if err := xml.NewDecoder(r).Decode(&result); err != nil {
		return nil, &ParseError{msg: "failed to parse GINA XML", err: err}
	}
	return &result, nil
}
