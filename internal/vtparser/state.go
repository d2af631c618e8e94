package vtparser

// state names match spec.md §4.1 exactly: ground, escape, escape_intermediate,
// csi_entry, csi_param, csi_intermediate, csi_ignore, dcs_entry/param/
// intermediate/passthrough/ignore, osc_string, sos_pm_apc_string,
// utf8_continuation.
type state uint8

const (
	stateGround state = iota
	stateEscape
	stateEscapeIntermediate
	stateCSIEntry
	stateCSIParam
	stateCSIIntermediate
	stateCSIIgnore
	stateDCSEntry
	stateDCSParam
	stateDCSIntermediate
	stateDCSPassthrough
	stateDCSIgnore
	stateOSCString
	stateSosPmApcString
	stateUTF8Continuation
)

const (
	maxParams    = 16
	maxSubParams = 16
	maxOSCLen    = 1 << 20 // defends against an unterminated OSC holding unbounded memory
)

func isC0(b byte) bool {
	return b <= 0x1f || b == 0x7f
}

func isIntermediate(b byte) bool { return b >= 0x20 && b <= 0x2f }
func isParamByte(b byte) bool    { return b >= 0x30 && b <= 0x3b } // digits, ';', ':'
func isPrivateMarker(b byte) bool { return b >= 0x3c && b <= 0x3f }
func isCSIFinal(b byte) bool     { return b >= 0x40 && b <= 0x7e }
func isEscFinal(b byte) bool {
	return (b >= 0x30 && b <= 0x7e) && !isPrivateMarker(b)
}
