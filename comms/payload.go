package comms

import (
	"net/http"

	"github.com/CodedInternet/hexastat/onboard"
)

// StatePayload is the wire form of a telemetry snapshot.
type StatePayload struct {
	Targets  []int `json:"targets"`
	Currents []int `json:"currents"`
	Outputs  []int `json:"outputs"`
}

func NewStatePayload(snap onboard.Snapshot) *StatePayload {
	p := &StatePayload{
		Targets:  append([]int(nil), snap.Targets[:]...),
		Currents: append([]int(nil), snap.Currents[:]...),
		Outputs:  make([]int, len(snap.Outputs)),
	}
	for i, o := range snap.Outputs {
		p.Outputs[i] = int(o)
	}
	return p
}

func (p *StatePayload) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}
