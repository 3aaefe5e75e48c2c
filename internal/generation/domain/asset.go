package domain

// Asset is one generated image accumulated during the pipeline. Either Data
// or Location is set; Data wins when both are present.
type Asset struct {
	Key         string
	Location    string
	Data        []byte
	Transparent bool
	Width       int
	Height      int
}

// Sound is one audio clip bundled into the final landing.
type Sound struct {
	Key      string
	Location string
	Data     []byte
}

// Reference is a branded reference image found by the reference collaborator.
type Reference struct {
	ImageData []byte
	SourceURL string
	Provider  string
}
