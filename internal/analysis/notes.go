package analysis

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
)

// Mode selects how placeholder notes are produced.
type Mode string

const (
	ModeRandom Mode = "random"
	ModeFixed  Mode = "fixed"
)

// ParseMode accepts "random" or "fixed", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeRandom:
		return ModeRandom, nil
	case ModeFixed:
		return ModeFixed, nil
	}
	return "", fmt.Errorf("unknown note mode %q (want %q or %q)", s, ModeRandom, ModeFixed)
}

// DurationClass is the symbolic length of a note.
type DurationClass string

const (
	Quarter DurationClass = "quarter"
	Half    DurationClass = "half"
	Whole   DurationClass = "whole"
)

// Beats returns the length of the class in quarter-note beats.
func (d DurationClass) Beats() float64 {
	switch d {
	case Whole:
		return 4
	case Half:
		return 2
	}
	return 1
}

// Note is a synthetic note. It is not derived from the audio signal.
type Note struct {
	Pitch     string        `json:"pitch"`
	Duration  DurationClass `json:"duration"`
	StartTime float64       `json:"startTime"`
}

const (
	// SecondsPerBeat advances the note clock; 0.5s per beat is 120 BPM.
	SecondsPerBeat = 0.5
	// DefaultDuration is used when the track length is unknown.
	DefaultDuration = 3.0
	// MaxNotes caps a random sequence for an infinite duration.
	MaxNotes = 10000
	// MaxNoteSeconds clamps finite durations. A day of quarter notes is
	// 172800 entries.
	MaxNoteSeconds = 24 * 60 * 60.0
)

// Pitches is the vocabulary random notes are drawn from.
var Pitches = []string{"C4", "D4", "E4", "F4", "G4", "A4", "B4"}

var durationClasses = []DurationClass{Quarter, Half, Whole}

var fixedNotes = []Note{
	{Pitch: "C4", Duration: Quarter, StartTime: 0},
	{Pitch: "E4", Duration: Quarter, StartTime: 0.5},
	{Pitch: "G4", Duration: Half, StartTime: 1.0},
}

// Source supplies uniform integers in [0, n).
type Source interface {
	IntN(n int) int
}

// globalSource draws from the process-wide generator, which is safe for
// concurrent use.
type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// NewSeededSource returns a deterministic source for the given seed.
func NewSeededSource(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed))
}

// NoteGenerator produces placeholder notes bounded by a track duration.
type NoteGenerator struct {
	mode Mode

	mu  sync.Mutex
	src Source
}

// GeneratorOption configures a NoteGenerator.
type GeneratorOption func(*NoteGenerator)

// WithSource replaces the unseeded process-wide random source.
func WithSource(src Source) GeneratorOption {
	return func(g *NoteGenerator) {
		if src != nil {
			g.src = src
		}
	}
}

// NewNoteGenerator creates a generator. An empty mode means random.
func NewNoteGenerator(mode Mode, opts ...GeneratorOption) *NoteGenerator {
	if mode == "" {
		mode = ModeRandom
	}
	g := &NoteGenerator{mode: mode, src: globalSource{}}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Mode reports the generator's mode.
func (g *NoteGenerator) Mode() Mode {
	return g.mode
}

// Generate returns notes whose start times are all strictly below the
// duration. A nil or NaN duration is replaced by DefaultDuration; a
// duration <= 0 yields an empty, non-nil slice.
func (g *NoteGenerator) Generate(duration *float64) []Note {
	d := DefaultDuration
	if duration != nil && !math.IsNaN(*duration) {
		d = *duration
	}
	if d <= 0 {
		return []Note{}
	}

	if g.mode == ModeFixed {
		notes := make([]Note, 0, len(fixedNotes))
		for _, n := range fixedNotes {
			if n.StartTime < d {
				notes = append(notes, n)
			}
		}
		return notes
	}
	return g.random(d)
}

func (g *NoteGenerator) random(d float64) []Note {
	g.mu.Lock()
	defer g.mu.Unlock()

	limit := math.MaxInt
	if math.IsInf(d, 1) {
		limit = MaxNotes
	}
	d = math.Min(d, MaxNoteSeconds)

	notes := make([]Note, 0, int(math.Min(d/SecondsPerBeat+1, MaxNotes)))
	for t := 0.0; t < d && len(notes) < limit; {
		pitch := Pitches[g.src.IntN(len(Pitches))]
		class := durationClasses[g.src.IntN(len(durationClasses))]
		notes = append(notes, Note{Pitch: pitch, Duration: class, StartTime: t})
		t += class.Beats() * SecondsPerBeat
	}
	return notes
}
