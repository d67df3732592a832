package analysis

import (
	"fmt"
	"io"
	"math"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const (
	ticksPerQuarter = 960
	midiTempo       = 120.0
	midiChannel     = 0
	midiVelocity    = 100
)

var semitones = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

// MIDIKey converts a pitch label such as "C4", "F#3" or "Bb5" to a MIDI key
// number, with C4 = 60.
func MIDIKey(pitch string) (uint8, error) {
	if len(pitch) < 2 {
		return 0, fmt.Errorf("invalid pitch %q", pitch)
	}
	base, ok := semitones[pitch[0]]
	if !ok {
		return 0, fmt.Errorf("invalid pitch %q", pitch)
	}

	rest := pitch[1:]
	switch rest[0] {
	case '#':
		base++
		rest = rest[1:]
	case 'b':
		base--
		rest = rest[1:]
	}

	var octave int
	if _, err := fmt.Sscanf(rest, "%d", &octave); err != nil {
		return 0, fmt.Errorf("invalid octave in pitch %q", pitch)
	}
	key := 12*(octave+1) + base
	if key < 0 || key > 127 {
		return 0, fmt.Errorf("pitch %q out of MIDI range", pitch)
	}
	return uint8(key), nil
}

type midiEvent struct {
	tick uint32
	on   bool
	key  uint8
}

// WriteMIDI encodes notes as a single-track Standard MIDI File at 120 BPM.
func WriteMIDI(w io.Writer, notes []Note) error {
	events := make([]midiEvent, 0, len(notes)*2)
	for _, n := range notes {
		key, err := MIDIKey(n.Pitch)
		if err != nil {
			return err
		}
		start := secondsToTicks(n.StartTime)
		length := uint32(n.Duration.Beats() * ticksPerQuarter)
		events = append(events,
			midiEvent{tick: start, on: true, key: key},
			midiEvent{tick: start + length, on: false, key: key},
		)
	}
	// Note-offs sort before note-ons on the same tick.
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return !events[i].on && events[j].on
	})

	var track smf.Track
	track.Add(0, smf.MetaTempo(midiTempo))
	var last uint32
	for _, ev := range events {
		delta := ev.tick - last
		last = ev.tick
		if ev.on {
			track.Add(delta, midi.NoteOn(midiChannel, ev.key, midiVelocity))
		} else {
			track.Add(delta, midi.NoteOff(midiChannel, ev.key))
		}
	}
	track.Close(0)

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(ticksPerQuarter)
	if err := s.Add(track); err != nil {
		return fmt.Errorf("adding track: %w", err)
	}
	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("writing midi: %w", err)
	}
	return nil
}

func secondsToTicks(seconds float64) uint32 {
	if seconds <= 0 || math.IsNaN(seconds) {
		return 0
	}
	return uint32(math.Round(seconds / SecondsPerBeat * ticksPerQuarter))
}
