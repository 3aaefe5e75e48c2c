package assembly

import (
	"strings"
	"testing"
)

func TestRewriteMarkupTokens(t *testing.T) {
	assetPaths := map[string]string{
		"wheel":      "assets/wheel.png",
		"wheelFrame": "assets/wheelFrame.png",
	}
	soundPaths := map[string]string{
		"spin": "sounds/spin.mp3",
	}

	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{
			name:   "asset token",
			markup: `<img src="{{asset:wheel}}">`,
			want:   `<img src="assets/wheel.png">`,
		},
		{
			name:   "sound token",
			markup: `new Audio("{{sound:spin}}")`,
			want:   `new Audio("sounds/spin.mp3")`,
		},
		{
			name:   "token with inner whitespace",
			markup: `{{ asset:wheelFrame }}`,
			want:   `assets/wheelFrame.png`,
		},
		{
			name:   "unknown key left untouched",
			markup: `{{asset:confetti}}`,
			want:   `{{asset:confetti}}`,
		},
		{
			name:   "unknown sound left untouched",
			markup: `{{sound:fanfare}}`,
			want:   `{{sound:fanfare}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rewriteMarkup(tt.markup, assetPaths, soundPaths)
			if got != tt.want {
				t.Fatalf("rewriteMarkup() = %q, want %q", got, tt.want)
			}
		})
	}
}

// A key that is a strict prefix of another (wheel vs wheelFrame) must never
// corrupt the longer reference, whatever the map iteration order happens to be.
func TestRewriteMarkupPrefixKeysNeverCollide(t *testing.T) {
	assetPaths := map[string]string{
		"wheel":      "assets/wheel.webp",
		"wheelFrame": "assets/wheelFrame.png",
	}

	markup := `<img src="{{asset:wheelFrame}}"><img src="{{asset:wheel}}">`
	want := `<img src="assets/wheelFrame.png"><img src="assets/wheel.webp">`

	// Map iteration order varies per run; repeat to make an ordering bug loud.
	for i := 0; i < 50; i++ {
		if got := rewriteMarkup(markup, assetPaths, nil); got != want {
			t.Fatalf("iteration %d: rewriteMarkup() = %q, want %q", i, got, want)
		}
	}
}

func TestRewriteMarkupBarePaths(t *testing.T) {
	assetPaths := map[string]string{
		"wheel": "assets/wheel.webp",
	}
	soundPaths := map[string]string{
		"win": "sounds/win.mp3",
	}

	markup := `<img src="assets/wheel.png"> <audio src="sounds/win.mp3">`
	got := rewriteMarkup(markup, assetPaths, soundPaths)

	if !strings.Contains(got, "assets/wheel.webp") {
		t.Fatalf("bare asset path not rewritten to final extension: %q", got)
	}
	if !strings.Contains(got, "sounds/win.mp3") {
		t.Fatalf("bare sound path lost: %q", got)
	}
	if strings.Contains(got, "assets/wheel.png") {
		t.Fatalf("stale asset extension survived: %q", got)
	}
}

func TestRewriteMarkupBarePathUnknownKeyUntouched(t *testing.T) {
	markup := `<img src="assets/missing.png">`
	if got := rewriteMarkup(markup, map[string]string{}, nil); got != markup {
		t.Fatalf("unknown bare path must survive unchanged, got %q", got)
	}
}

func TestTokenHelpersRoundTrip(t *testing.T) {
	assetPaths := map[string]string{"boxClosed": "assets/boxClosed.png"}
	soundPaths := map[string]string{"click": "sounds/click.mp3"}

	markup := AssetToken("boxClosed") + " " + SoundToken("click")
	got := rewriteMarkup(markup, assetPaths, soundPaths)
	want := "assets/boxClosed.png sounds/click.mp3"
	if got != want {
		t.Fatalf("rewriteMarkup() = %q, want %q", got, want)
	}
}

func TestExtensionOrDefault(t *testing.T) {
	tests := []struct {
		ext      string
		fallback string
		want     string
	}{
		{".PNG", ".png", ".png"},
		{"jpg", ".png", ".jpg"},
		{"", ".png", ".png"},
		{"  ", ".png", ".png"},
	}
	for _, tt := range tests {
		if got := extensionOrDefault(tt.ext, tt.fallback); got != tt.want {
			t.Fatalf("extensionOrDefault(%q, %q) = %q, want %q", tt.ext, tt.fallback, got, tt.want)
		}
	}
}
