// Package vtparser decodes an unbounded, possibly-chunked byte stream into a
// sequence of screen ops (ECMA-48 / xterm control sequences), matching the
// state machine spec.md §4.1 names explicitly (ground, escape, csi_*,
// dcs_*, osc_string, sos_pm_apc_string, utf8_continuation). It holds no
// screen state of its own; decoded ops are pushed to a Performer.
//
// The parser is resumable: Feed may be called with arbitrary chunk
// boundaries, including mid-escape-sequence or mid-UTF-8-codepoint, and
// picks up correctly on the next call. Malformed sequences are discarded
// silently and the state returns to ground.
package vtparser

import "github.com/rivo/uniseg"

// Parser is the resumable ECMA-48 byte-stream decoder described above.
type Parser struct {
	perf  Performer
	state state

	// print-run buffering: printable bytes accumulate here until a
	// non-printable byte or end-of-Feed forces a grapheme-cluster flush.
	printBuf []byte

	// partial UTF-8 sequence spanning a Feed() boundary.
	utf8Pending []byte
	utf8Need    int

	// escape/CSI/DCS collection state.
	intermediates []byte
	private       bool
	params        []Param
	curSub        []int
	curDigits     bool
	curVal        int
	paramsIgnored bool

	// OSC collection.
	oscBuf []byte

	// SOS/PM/APC collection.
	sosKind byte
	sosBuf  []byte

	// pendingST is set when an ESC was seen while collecting a string
	// (OSC/SOS-PM-APC/DCS); the next byte decides whether it completes an
	// ST (ESC \\) terminator or aborts the string.
	pendingST bool
}

// New returns a parser in the ground state, dispatching decoded ops to perf.
func New(perf Performer) *Parser {
	return &Parser{perf: perf}
}

// Reset returns the parser to ground, discarding any partially-collected
// sequence. The parser has no internal-error path that calls it, and no
// other package in the daemon calls it.
func (p *Parser) Reset() {
	p.flushPrint()
	p.state = stateGround
	p.intermediates = p.intermediates[:0]
	p.private = false
	p.params = p.params[:0]
	p.resetCurParam()
	p.paramsIgnored = false
	p.oscBuf = p.oscBuf[:0]
	p.sosBuf = p.sosBuf[:0]
	p.utf8Pending = nil
	p.utf8Need = 0
}

// Feed decodes the next chunk of bytes, invoking Performer callbacks for
// every complete op recognized. It may be called any number of times with
// arbitrarily-sized chunks.
func (p *Parser) Feed(data []byte) {
	for i := 0; i < len(data); i++ {
		b := data[i]
		if p.state == stateUTF8Continuation {
			p.stepUTF8Continuation(b)
			continue
		}
		if p.state == stateGround && b >= 0x20 && b != 0x7f {
			p.stepGroundPrintable(data, &i)
			continue
		}
		p.step(b)
	}
	// Flush any complete printable run buffered in ground state; a partial
	// multi-byte UTF-8 sequence stays in utf8Pending across this call.
	if p.state == stateGround {
		p.flushPrint()
	}
}

// stepGroundPrintable handles the common case of an ASCII/UTF-8 printable
// byte in ground state by consuming the whole contiguous printable run in
// one pass, instead of re-entering step() byte by byte.
func (p *Parser) stepGroundPrintable(data []byte, i *int) {
	start := *i
	j := start
	for j < len(data) {
		b := data[j]
		if b < 0x20 || b == 0x7f {
			break
		}
		if b >= 0x80 {
			// Multi-byte UTF-8 lead/continuation byte: let the general
			// UTF-8 path handle it (it may need more bytes than remain).
			break
		}
		j++
	}
	if j > start {
		p.printBuf = append(p.printBuf, data[start:j]...)
		*i = j - 1
		return
	}
	// data[start] >= 0x80: decode as UTF-8, possibly spanning the chunk end.
	b := data[start]
	need := utf8SeqLen(b)
	if need == 0 {
		// Invalid lead byte; discard silently.
		return
	}
	avail := len(data) - start
	if avail >= need {
		p.printBuf = append(p.printBuf, data[start:start+need]...)
		*i = start + need - 1
		return
	}
	// Sequence spans the end of this chunk: stash what we have and resume
	// in utf8_continuation on the next Feed call.
	p.utf8Pending = append([]byte(nil), data[start:]...)
	p.utf8Need = need - avail
	p.state = stateUTF8Continuation
	*i = len(data) - 1
}

func (p *Parser) stepUTF8Continuation(b byte) {
	if b < 0x80 || b >= 0xc0 {
		// Not a continuation byte: the sequence was malformed or got
		// interrupted; discard what we had and reprocess b from ground.
		p.utf8Pending = nil
		p.utf8Need = 0
		p.state = stateGround
		p.step(b)
		return
	}
	p.utf8Pending = append(p.utf8Pending, b)
	p.utf8Need--
	if p.utf8Need == 0 {
		p.printBuf = append(p.printBuf, p.utf8Pending...)
		p.utf8Pending = nil
		p.state = stateGround
	}
}

func utf8SeqLen(lead byte) int {
	switch {
	case lead&0x80 == 0x00:
		return 1
	case lead&0xe0 == 0xc0:
		return 2
	case lead&0xf0 == 0xe0:
		return 3
	case lead&0xf8 == 0xf0:
		return 4
	default:
		return 0
	}
}

// flushPrint grapheme-clusters and width-measures the buffered printable run
// and emits one Performer.Print call per cluster.
func (p *Parser) flushPrint() {
	if len(p.printBuf) == 0 {
		return
	}
	b := p.printBuf
	gstate := -1
	for len(b) > 0 {
		cluster, rest, width, newState := uniseg.FirstGraphemeCluster(b, gstate)
		p.perf.Print(string(cluster), width)
		b = rest
		gstate = newState
	}
	p.printBuf = p.printBuf[:0]
}

// step handles a single non-printable or control byte according to the
// current state.
func (p *Parser) step(b byte) {
	switch p.state {
	case stateOSCString, stateSosPmApcString, stateDCSPassthrough, stateDCSIgnore:
		p.stepStringState(b)
		return
	}

	// CAN/SUB abort any sequence in progress unconditionally.
	if b == 0x18 || b == 0x1a {
		p.flushPrint()
		p.abortToGround()
		return
	}
	if b == 0x1b {
		p.flushPrint()
		p.beginEscape()
		return
	}

	switch p.state {
	case stateGround:
		p.flushPrint()
		if isC0(b) {
			p.perf.Execute(b)
		}
	case stateEscape:
		p.stepEscape(b)
	case stateEscapeIntermediate:
		p.stepEscapeIntermediate(b)
	case stateCSIEntry:
		p.stepCSIEntry(b)
	case stateCSIParam:
		p.stepCSIParam(b)
	case stateCSIIntermediate:
		p.stepCSIIntermediate(b)
	case stateCSIIgnore:
		p.stepCSIIgnore(b)
	case stateDCSEntry:
		p.stepDCSEntry(b)
	case stateDCSParam:
		p.stepDCSParam(b)
	case stateDCSIntermediate:
		p.stepDCSIntermediate(b)
	}
}

func (p *Parser) abortToGround() {
	p.state = stateGround
	p.intermediates = p.intermediates[:0]
	p.private = false
	p.params = p.params[:0]
	p.resetCurParam()
	p.paramsIgnored = false
	p.oscBuf = p.oscBuf[:0]
	p.sosBuf = p.sosBuf[:0]
}

func (p *Parser) beginEscape() {
	p.intermediates = p.intermediates[:0]
	p.private = false
	p.params = p.params[:0]
	p.resetCurParam()
	p.paramsIgnored = false
	p.state = stateEscape
}

func (p *Parser) resetCurParam() {
	p.curSub = p.curSub[:0]
	p.curDigits = false
	p.curVal = 0
}
