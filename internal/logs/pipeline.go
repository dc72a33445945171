package logs

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// LineEvent pairs a parsed line with the character whose file it came from,
// letting a single downstream channel serve however many times the active
// character changes.
type LineEvent struct {
	Line      Line
	Character Character
}

// Pipeline ties the watcher, active-character detector, and cursor cache
// together: it always tails whichever character's log file changed most
// recently, restarting the LineStream whenever that changes (spec §4.1 /
// §4.5's active-character-change handling).
type Pipeline struct {
	ctx    context.Context
	cancel context.CancelFunc
	log    zerolog.Logger

	watcher  *Watcher
	detector *ActiveCharacterDetector
	cursors  *CursorCache

	mu      sync.Mutex
	current *LineStream

	out chan LineEvent
}

// NewPipeline scans logsDir for existing files and opens a filesystem watch
// on it. Call Start to begin producing LineEvents.
func NewPipeline(ctx context.Context, logsDir string, log zerolog.Logger) (*Pipeline, error) {
	cursors, err := ScanCursorCache(logsDir)
	if err != nil {
		return nil, err
	}
	watcher, err := NewWatcher(logsDir, log)
	if err != nil {
		return nil, err
	}

	pipelineCtx, cancel := context.WithCancel(ctx)
	events, _ := watcher.Subscribe()
	detector := StartActiveCharacterDetector(pipelineCtx, events)

	return &Pipeline{
		ctx:      pipelineCtx,
		cancel:   cancel,
		log:      log.With().Str("component", "logs.pipeline").Logger(),
		watcher:  watcher,
		detector: detector,
		cursors:  cursors,
		out:      make(chan LineEvent, 256),
	}, nil
}

// Start begins watching the filesystem and reacting to active-character
// changes.
func (p *Pipeline) Start() {
	p.watcher.Start(p.ctx)
	changes, _ := p.detector.Subscribe()
	go p.reactToActiveCharacterChanges(changes)
}

func (p *Pipeline) reactToActiveCharacterChanges(changes <-chan struct{}) {
	for {
		select {
		case <-p.ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			p.switchActiveCharacter(p.detector.Current())
		}
	}
}

func (p *Pipeline) switchActiveCharacter(active *Character) {
	p.mu.Lock()
	if p.current != nil {
		p.current.Stop()
		p.cursors.ResetCursorPosition(p.current.path)
		p.current = nil
	}
	if active == nil {
		p.mu.Unlock()
		return
	}

	cursor, err := p.cursors.GetCursorAndMarkStale(active.LogFilePath)
	if err != nil {
		p.mu.Unlock()
		p.log.Warn().Err(err).Str("path", active.LogFilePath).Msg("failed to get cursor for active character")
		return
	}
	events, cancel := p.watcher.Subscribe()
	stream := StartLineStream(p.ctx, cursor, events)
	p.current = stream
	character := *active
	p.mu.Unlock()

	p.log.Info().Str("character", character.Name).Str("path", character.LogFilePath).Msg("now tailing active character's log file")
	go p.pump(stream, character, cancel)
}

func (p *Pipeline) pump(stream *LineStream, character Character, cancelSub func()) {
	defer cancelSub()
	for line := range stream.Lines() {
		select {
		case p.out <- LineEvent{Line: line, Character: character}:
		case <-p.ctx.Done():
			return
		}
	}
}

// Lines is the merged output of whichever LineStream is currently active.
func (p *Pipeline) Lines() <-chan LineEvent { return p.out }

// CurrentCharacter returns the presently active character, or nil.
func (p *Pipeline) CurrentCharacter() *Character { return p.detector.Current() }

// Stop ends the pipeline and all of its background goroutines.
func (p *Pipeline) Stop() { p.cancel() }
