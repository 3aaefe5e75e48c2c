package domain

// Palette holds the six-color scheme used by asset and code generation.
type Palette struct {
	Primary    string
	Secondary  string
	Accent     string
	Background string
	Muted      string
	Light      string
}

// DefaultPalette returns the fixed fallback palette used when no reference
// image is available or color extraction fails.
func DefaultPalette() Palette {
	return Palette{
		Primary:    "#e63946",
		Secondary:  "#457b9d",
		Accent:     "#f4a261",
		Background: "#1d3557",
		Muted:      "#8d99ae",
		Light:      "#f1faee",
	}
}

// Empty reports whether no color has been set.
func (p Palette) Empty() bool {
	return p == Palette{}
}
