package vtparser

// Param is one CSI/DCS parameter, a sequence of colon-joined sub-params
// (used by SGR truecolor: "38:2::r:g:b"). Params[0] is the primary value;
// len(Params) > 1 only for colon-joined sub-params.
type Param []int

// First returns the primary value of the param, or def if the param is
// empty (omitted and defaulting to zero is handled by the caller via def).
func (p Param) First(def int) int {
	if len(p) == 0 {
		return def
	}
	return p[0]
}

// Sub returns the i'th sub-param, or def if absent.
func (p Param) Sub(i, def int) int {
	if i < 0 || i >= len(p) {
		return def
	}
	return p[i]
}

// Performer receives the decoded screen ops the parser produces. The screen
// engine implements this interface; the parser itself holds no screen
// state — it is a pure byte-stream decoder.
type Performer interface {
	// Print is called once per grapheme cluster, already clustered and
	// width-measured by the parser's UTF-8/grapheme layer.
	Print(grapheme string, width int)

	// Execute handles a single C0 control byte (BEL, BS, HT, LF, VT, FF,
	// CR, SO, SI, and any other 0x00-0x1F/0x7F byte seen in the ground
	// state; a C0 byte inside an ESC or CSI sequence is not passed here).
	Execute(b byte)

	// EscDispatch handles a complete ESC sequence (ESC + intermediates +
	// final byte), for the non-CSI/OSC/DCS escapes (ESC 7, ESC 8, ESC c,
	// ESC D, ESC E, ESC H, ESC M, ESC P is routed to DCS instead).
	EscDispatch(intermediates []byte, final byte)

	// CsiDispatch handles a complete CSI sequence. ignored is true if the
	// parameter count exceeded the parser's bound and the sequence is
	// dispatched anyway with the truncated param list (xterm ignores the
	// excess rather than discarding the whole sequence).
	CsiDispatch(params []Param, intermediates []byte, private bool, ignored bool, final byte)

	// OscDispatch handles a complete OSC string, split on ';' into fields.
	// bellTerminated is true if the string ended with BEL instead of ST.
	OscDispatch(fields [][]byte, bellTerminated bool)

	// DcsHook/DcsPut/DcsUnhook bracket a DCS string: Hook on entry (with the
	// same param/intermediate shape as CSI), Put once per data byte, Unhook
	// at ST.
	DcsHook(params []Param, intermediates []byte, private bool, final byte)
	DcsPut(b byte)
	DcsUnhook()

	// SosPmApcDispatch handles a SOS/PM/APC string (kind is 'X', '^', or
	// '_' — the byte that introduced it after ESC).
	SosPmApcDispatch(kind byte, data []byte)
}
