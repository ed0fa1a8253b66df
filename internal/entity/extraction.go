package entity

// Box locates an extraction on a document page.
type Box struct {
	Page   int     `json:"page"`
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Extraction is a single named value recognised on a document.
type Extraction struct {
	Name   string `json:"name"`
	Entity string `json:"entity"`
	Value  string `json:"value"`
	Box    *Box   `json:"box,omitempty"`
}

// ExtractionBundle is the full extraction result for a document.
type ExtractionBundle struct {
	Specific map[string]Extraction              `json:"extractions"`
	Compound map[string][]map[string]Extraction `json:"compoundExtractions,omitempty"`
}

// Get returns the specific extraction with the given name.
func (b ExtractionBundle) Get(name string) (Extraction, bool) {
	e, ok := b.Specific[name]
	return e, ok
}

// Clone deep-copies the bundle.
func (b ExtractionBundle) Clone() ExtractionBundle {
	out := ExtractionBundle{Specific: make(map[string]Extraction, len(b.Specific))}
	for k, v := range b.Specific {
		if v.Box != nil {
			box := *v.Box
			v.Box = &box
		}
		out.Specific[k] = v
	}
	if b.Compound != nil {
		out.Compound = make(map[string][]map[string]Extraction, len(b.Compound))
		for k, rows := range b.Compound {
			cp := make([]map[string]Extraction, len(rows))
			for i, row := range rows {
				m := make(map[string]Extraction, len(row))
				for rk, rv := range row {
					m[rk] = rv
				}
				cp[i] = m
			}
			out.Compound[k] = cp
		}
	}
	return out
}
