package projector

// Result is the outcome of projecting one row of a batch.
type Result struct {
	Index  int
	Record Record
	Err    error
}

func (r Result) OK() bool { return r.Err == nil }

// ProjectBatch projects every change independently. Results keep input
// order and a failing row never stops the rest.
func (p *Projector) ProjectBatch(s Schema, mask Mask, changes []RowChange) []Result {
	out := make([]Result, len(changes))
	for i, c := range changes {
		rec, err := p.Project(s, mask, c)
		out[i] = Result{Index: i, Record: rec, Err: err}
	}
	return out
}

// Failed returns the failed results in order.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}
