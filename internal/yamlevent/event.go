// Package yamlevent wraps gopkg.in/yaml.v3 behind a lazy, pull-based event
// cursor modeled on the libyaml event vocabulary (stream/document
// start/end, mapping/sequence start/end, scalar, alias), so the structural
// parser in package compose can be written as an event-driven recursive
// descent rather than against yaml.v3's tree API directly.
//
// yaml.v3 does not export a token-level scanner/parser event stream (only
// its internal yaml_parser_t does); its public surface decodes one whole
// document at a time into a *yaml.Node tree. Reader adapts that into our
// event vocabulary by decoding a document lazily — only when the previous
// document's events are exhausted — and flattening its Node tree with a
// pre-order walk. Multi-document streams and anchors/aliases are preserved
// because yaml.v3 tracks both on the Node tree.
package yamlevent

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Kind tags an Event's variant.
type Kind int

const (
	StreamStart Kind = iota
	StreamEnd
	DocumentStart
	DocumentEnd
	MappingStart
	MappingEnd
	SequenceStart
	SequenceEnd
	Scalar
	Alias
)

// ScalarStyle mirrors the YAML 1.1 scalar styles.
type ScalarStyle int

const (
	StyleAny ScalarStyle = iota
	StylePlain
	StyleSingleQuoted
	StyleDoubleQuoted
	StyleLiteral
	StyleFolded
)

// Position is a zero-indexed source position; display is one-indexed.
type Position struct {
	Line      int
	Column    int
	ByteIndex int
}

// Event is a single tagged event in source order. Start and End bound the
// event's source span; for container start/end events End coincides with
// Start (yaml.v3 does not hand back a closing-token position).
type Event struct {
	Kind  Kind
	Start Position
	End   Position

	// Scalar / Alias fields.
	Value []byte // Scalar value bytes, or the referenced anchor name for Alias.
	Style ScalarStyle

	// Scalar / MappingStart / SequenceStart fields.
	Anchor string
	Tag    string
}

// ErrorKind distinguishes the reader's two failure modes.
type ErrorKind int

const (
	ScannerError ErrorKind = iota
	ParserError
)

// ReaderError is the error surfaced by LastError.
type ReaderError struct {
	Kind     ErrorKind
	Message  string
	Position Position
}

func (e *ReaderError) Error() string { return e.Message }

type state int

const (
	stateNotStarted state = iota
	stateInStream
	stateEnded
)

// Reader is a single-consumer, not-concurrency-safe cursor over a YAML
// event sequence. Reader copies the input bytes internally; callers may
// free their buffer after New returns. Scalar byte slices returned by Next
// are valid until the next call to Next; callers that want to retain them
// must copy.
type Reader struct {
	dec         *yaml.Decoder
	lineOffsets []int

	queue []Event
	st    state
	last  *ReaderError
}

// New wraps data in a Reader. data is copied internally.
func New(data []byte) *Reader {
	buf := make([]byte, len(data))
	copy(buf, data)

	return &Reader{
		dec:         yaml.NewDecoder(bytes.NewReader(buf)),
		lineOffsets: lineOffsets(buf),
	}
}

// Next returns the next event in source order, or (nil, nil) at end of
// stream (after the terminal StreamEnd event has already been returned
// once). It returns an error wrapping *ReaderError on malformed YAML.
func (r *Reader) Next() (*Event, error) {
	if len(r.queue) == 0 && r.st != stateEnded {
		if err := r.fill(); err != nil {
			return nil, err
		}
	}

	if len(r.queue) == 0 {
		return nil, nil
	}

	ev := r.queue[0]
	r.queue = r.queue[1:]
	return &ev, nil
}

// LastError returns the most recent reader error, or nil if none occurred.
func (r *Reader) LastError() *ReaderError {
	return r.last
}

// Release discards any buffered state. Reader holds no OS resources, so
// Release is safe to call multiple times; it exists for parity with the
// init/next/last_error/release contract.
func (r *Reader) Release() {
	r.queue = nil
	r.dec = nil
}

func (r *Reader) fill() error {
	switch r.st {
	case stateNotStarted:
		r.st = stateInStream
		r.queue = append(r.queue, Event{Kind: StreamStart})
		return nil
	case stateInStream:
		var node yaml.Node
		err := r.dec.Decode(&node)
		if err == io.EOF {
			r.st = stateEnded
			r.queue = append(r.queue, Event{Kind: StreamEnd})
			return nil
		}
		if err != nil {
			rerr := &ReaderError{Kind: ParserError, Message: err.Error(), Position: guessErrorPosition(err)}
			r.last = rerr
			return errors.Wrap(rerr, "yaml_error")
		}

		r.queue = append(r.queue, Event{Kind: DocumentStart, Start: r.posOf(&node), End: r.posOf(&node)})
		root := &node
		if len(node.Content) > 0 {
			root = node.Content[0]
		}
		r.walk(root)
		r.queue = append(r.queue, Event{Kind: DocumentEnd})
		return nil
	default:
		return nil
	}
}

func (r *Reader) walk(n *yaml.Node) {
	if n == nil {
		return
	}
	pos := r.posOf(n)

	switch n.Kind {
	case yaml.MappingNode:
		r.queue = append(r.queue, Event{Kind: MappingStart, Start: pos, End: pos, Anchor: n.Anchor, Tag: n.Tag})
		for i := 0; i+1 < len(n.Content); i += 2 {
			r.walk(n.Content[i])
			r.walk(n.Content[i+1])
		}
		end := pos
		if len(n.Content) > 0 {
			end = r.posOf(n.Content[len(n.Content)-1])
		}
		r.queue = append(r.queue, Event{Kind: MappingEnd, Start: end, End: end})
	case yaml.SequenceNode:
		r.queue = append(r.queue, Event{Kind: SequenceStart, Start: pos, End: pos, Anchor: n.Anchor, Tag: n.Tag})
		for _, item := range n.Content {
			r.walk(item)
		}
		end := pos
		if len(n.Content) > 0 {
			end = r.posOf(n.Content[len(n.Content)-1])
		}
		r.queue = append(r.queue, Event{Kind: SequenceEnd, Start: end, End: end})
	case yaml.AliasNode:
		r.queue = append(r.queue, Event{Kind: Alias, Start: pos, End: pos, Value: []byte(n.Value)})
	case yaml.ScalarNode:
		r.queue = append(r.queue, Event{
			Kind:   Scalar,
			Start:  pos,
			End:    r.scalarEnd(pos, n.Value),
			Value:  []byte(n.Value),
			Style:  mapStyle(n.Style),
			Anchor: n.Anchor,
			Tag:    n.Tag,
		})
	default:
		// DocumentNode should not appear here (handled by fill); anything
		// else is defensively ignored rather than panicking on malformed
		// input, per the "never panic" disposition in the parser core.
	}
}

func (r *Reader) posOf(n *yaml.Node) Position {
	line := n.Line - 1
	col := n.Column - 1
	if line < 0 {
		line = 0
	}
	if col < 0 {
		col = 0
	}
	byteIdx := 0
	if line < len(r.lineOffsets) {
		byteIdx = r.lineOffsets[line] + col
	}
	return Position{Line: line, Column: col, ByteIndex: byteIdx}
}

// scalarEnd approximates a scalar's end position by walking embedded
// newlines in its decoded value; this is an approximation since yaml.v3
// does not expose the scalar's original end token position.
func (r *Reader) scalarEnd(start Position, value string) Position {
	line := start.Line
	col := start.Column
	for i := 0; i < len(value); i++ {
		if value[i] == '\n' {
			line++
			col = 0
		} else {
			col++
		}
	}
	return Position{Line: line, Column: col, ByteIndex: start.ByteIndex + len(value)}
}

func mapStyle(s yaml.Style) ScalarStyle {
	switch {
	case s&yaml.LiteralStyle != 0:
		return StyleLiteral
	case s&yaml.FoldedStyle != 0:
		return StyleFolded
	case s&yaml.DoubleQuotedStyle != 0:
		return StyleDoubleQuoted
	case s&yaml.SingleQuotedStyle != 0:
		return StyleSingleQuoted
	default:
		return StylePlain
	}
}

// lineOffsets returns, for each zero-indexed line, the byte offset of its
// first byte.
func lineOffsets(data []byte) []int {
	offsets := []int{0}
	for i, b := range data {
		if b == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

// guessErrorPosition extracts a "line N" hint from a yaml.v3 error message
// when present, falling back to the zero position. yaml.v3 does not export
// structured position information on decode errors.
func guessErrorPosition(err error) Position {
	msg := err.Error()
	const marker = "line "
	idx := indexAfter(msg, marker)
	if idx == -1 {
		return Position{}
	}
	n := 0
	found := false
	for idx < len(msg) && msg[idx] >= '0' && msg[idx] <= '9' {
		n = n*10 + int(msg[idx]-'0')
		idx++
		found = true
	}
	if !found {
		return Position{}
	}
	// yaml.v3 error messages report one-indexed lines.
	line := n - 1
	if line < 0 {
		line = 0
	}
	return Position{Line: line}
}

func indexAfter(s, marker string) int {
	for i := 0; i+len(marker) <= len(s); i++ {
		if s[i:i+len(marker)] == marker {
			return i + len(marker)
		}
	}
	return -1
}
