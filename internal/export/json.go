package export

import (
	"encoding/json"
	"io"

	"github.com/firmware-grid/fwplan/internal/plan"
)

// WriteJSON renders the plan as indented JSON. Record order inside the
// document is the plan order; map keys are sorted by the encoder, so the
// output is stable.
func WriteJSON(w io.Writer, p *plan.Plan) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}
