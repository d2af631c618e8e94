package screen

import "encoding/base64"

// OscDispatch implements vtparser.Performer for OSC 0/1/2/4/10/11/52/104
// (spec.md §6's minimum compatibility bar). Title and clipboard OSCs are
// surfaced via callbacks rather than applied to the grid; the rest are
// accepted and ignored (palette get/set, dynamic fg/bg queries) since this
// engine has no pixel output to recolor.
func (e *Engine) OscDispatch(fields [][]byte, bellTerminated bool) {
	if len(fields) == 0 {
		return
	}
	switch string(fields[0]) {
	case "0", "2": // icon+title, title only
		if len(fields) > 1 && e.OnTitle != nil {
			e.OnTitle(string(fields[1]))
		}
	case "1": // icon name only — no title-equivalent surface.
	case "52": // clipboard: OSC 52 ; selection ; base64-data
		if len(fields) < 3 || e.OnClipboard == nil {
			return
		}
		selection := string(fields[1])
		if selection == "" {
			selection = "c"
		}
		if string(fields[2]) == "?" {
			return // query form: no stored clipboard to answer from here.
		}
		data, err := base64.StdEncoding.DecodeString(string(fields[2]))
		if err != nil {
			return
		}
		e.OnClipboard(selection, data)
	case "4", "10", "11", "104":
		// Palette/dynamic-color get-set: accepted, no grid effect.
	}
}
