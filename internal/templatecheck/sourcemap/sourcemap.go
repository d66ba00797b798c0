package sourcemap

// Range is a half-open [Start, End) byte span.
type Range struct {
	Start int
	End   int
}

// Len returns the number of bytes covered.
func (r Range) Len() int { return r.End - r.Start }

// Contains reports whether offset lies inside the range.
func (r Range) Contains(offset int) bool { return offset >= r.Start && offset < r.End }

// Entry pairs a synthetic-program range with the template range that owns it.
type Entry struct {
	Synth    Range
	Template Range
}

// Map is the offset side table recorded during synthetic-program emission.
// Entries nest: a parent expression's synthetic range encloses its
// children's. The zero value is ready to use.
type Map struct {
	entries []Entry
}

// Add records one synthetic-to-template correspondence.
func (m *Map) Add(synth, template Range) {
	m.entries = append(m.entries, Entry{Synth: synth, Template: template})
}

// Entries returns the recorded entries in insertion order.
func (m *Map) Entries() []Entry { return m.entries }

// Sentinel is the fallback template range when no entry matches: the start
// of the template buffer.
var Sentinel = Range{Start: 0, End: 0}

// MapBack resolves a synthetic span to template coordinates: the innermost
// entry whose synthetic range contains the span start and whose template
// range is non-empty. The second result is false when only the sentinel
// applies.
func (m *Map) MapBack(span Range) (Range, bool) {
	best := -1
	for i, e := range m.entries {
		if !e.Synth.Contains(span.Start) || e.Template.Len() <= 0 {
			continue
		}
		if best < 0 || e.Synth.Len() < m.entries[best].Synth.Len() {
			best = i
		}
	}
	if best < 0 {
		return Sentinel, false
	}
	return m.entries[best].Template, true
}

// MapForward resolves a template span to synthetic coordinates: the
// innermost entry whose template range contains the span start.
func (m *Map) MapForward(span Range) (Range, bool) {
	best := -1
	for i, e := range m.entries {
		if !e.Template.Contains(span.Start) || e.Synth.Len() <= 0 {
			continue
		}
		if best < 0 || e.Template.Len() < m.entries[best].Template.Len() {
			best = i
		}
	}
	if best < 0 {
		return Range{}, false
	}
	return m.entries[best].Synth, true
}
