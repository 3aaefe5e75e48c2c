package assembly

import (
	"regexp"
	"strings"
)

// Generated markup references assets two ways: the delimited token syntax
// ({{asset:wheel}}, {{sound:spin}}) and legacy bare paths (assets/wheel.png).
// Both are resolved in a single pass keyed on the full identifier, so a key
// that is a substring of another (wheel vs wheelFrame) can never corrupt the
// longer reference, regardless of map iteration order.
var (
	tokenPattern = regexp.MustCompile(`\{\{\s*(asset|sound):([A-Za-z0-9_-]+)\s*\}\}`)
	assetPattern = regexp.MustCompile(`assets/([A-Za-z0-9_-]+)(\.[A-Za-z0-9]+)?`)
	soundPattern = regexp.MustCompile(`sounds/([A-Za-z0-9_-]+)(\.[A-Za-z0-9]+)?`)
)

// rewriteMarkup substitutes every asset/sound reference in markup with the
// item's final relative path. References to keys missing from the maps (for
// example an asset omitted after a copy failure) are left untouched.
func rewriteMarkup(markup string, assetPaths, soundPaths map[string]string) string {
	markup = tokenPattern.ReplaceAllStringFunc(markup, func(match string) string {
		groups := tokenPattern.FindStringSubmatch(match)
		kind, key := groups[1], groups[2]
		switch kind {
		case "asset":
			if path, ok := assetPaths[key]; ok {
				return path
			}
		case "sound":
			if path, ok := soundPaths[key]; ok {
				return path
			}
		}
		return match
	})

	markup = replaceBareReferences(markup, assetPattern, assetPaths)
	markup = replaceBareReferences(markup, soundPattern, soundPaths)
	return markup
}

func replaceBareReferences(markup string, pattern *regexp.Regexp, paths map[string]string) string {
	return pattern.ReplaceAllStringFunc(markup, func(match string) string {
		groups := pattern.FindStringSubmatch(match)
		if path, ok := paths[groups[1]]; ok {
			return path
		}
		return match
	})
}

// relativeAssetPath is the final in-landing location for an asset file.
func relativeAssetPath(fileName string) string {
	return "assets/" + fileName
}

// relativeSoundPath is the final in-landing location for a sound file.
func relativeSoundPath(fileName string) string {
	return "sounds/" + fileName
}

// AssetToken returns the delimited placeholder the code generator should
// emit for an asset key.
func AssetToken(key string) string {
	return "{{asset:" + key + "}}"
}

// SoundToken returns the delimited placeholder the code generator should
// emit for a sound key.
func SoundToken(key string) string {
	return "{{sound:" + key + "}}"
}

// extensionOrDefault normalizes a file extension, defaulting to fallback.
func extensionOrDefault(ext, fallback string) string {
	ext = strings.TrimSpace(strings.ToLower(ext))
	if ext == "" {
		return fallback
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
