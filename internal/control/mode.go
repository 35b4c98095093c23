package control

import "fmt"

// Mode is the controller branch taken on a tick.
type Mode int

const (
	ModeSearch Mode = iota + 1
	ModeClimb
	ModeAlign
	ModeDescend
	ModeLanded
)

var modeNames = map[Mode]string{
	ModeSearch:  "search",
	ModeClimb:   "climb",
	ModeAlign:   "align",
	ModeDescend: "descend",
	ModeLanded:  "landed",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// MarshalText renders the mode by name in JSON and YAML output.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}
