// Package planner maps mechanic types to the fixed set of assets the image
// generator is asked to produce.
package planner

import "github.com/lunagrove/landingforge/internal/generation/domain"

// AssetDescriptor specifies one image to request from the generator.
type AssetDescriptor struct {
	Key                        string
	DisplayName                string
	Width                      int
	Height                     int
	NeedsTransparentBackground bool
}

// Shared descriptors present in every plan.
var (
	backgroundDescriptor = AssetDescriptor{Key: "background", DisplayName: "Page background", Width: 1920, Height: 1080}
	logoDescriptor       = AssetDescriptor{Key: "logo", DisplayName: "Brand logo", Width: 512, Height: 256, NeedsTransparentBackground: true}
)

var plans = map[domain.MechanicType][]AssetDescriptor{
	domain.MechanicWheel: {
		backgroundDescriptor,
		logoDescriptor,
		{Key: "wheel", DisplayName: "Prize wheel disc", Width: 1024, Height: 1024, NeedsTransparentBackground: true},
		{Key: "wheelFrame", DisplayName: "Wheel outer frame", Width: 1024, Height: 1024, NeedsTransparentBackground: true},
		{Key: "pointer", DisplayName: "Wheel pointer", Width: 256, Height: 256, NeedsTransparentBackground: true},
		{Key: "spinButton", DisplayName: "Spin button", Width: 512, Height: 256, NeedsTransparentBackground: true},
	},
	domain.MechanicBoxes: {
		backgroundDescriptor,
		logoDescriptor,
		{Key: "boxClosed", DisplayName: "Closed prize box", Width: 512, Height: 512, NeedsTransparentBackground: true},
		{Key: "boxOpen", DisplayName: "Opened prize box", Width: 512, Height: 512, NeedsTransparentBackground: true},
		{Key: "pickButton", DisplayName: "Pick button", Width: 512, Height: 256, NeedsTransparentBackground: true},
	},
	domain.MechanicCrash: {
		backgroundDescriptor,
		logoDescriptor,
		{Key: "rocket", DisplayName: "Crash rocket", Width: 512, Height: 512, NeedsTransparentBackground: true},
		{Key: "multiplierBoard", DisplayName: "Multiplier board", Width: 1024, Height: 512},
		{Key: "cashoutButton", DisplayName: "Cash-out button", Width: 512, Height: 256, NeedsTransparentBackground: true},
	},
	domain.MechanicSlots: {
		backgroundDescriptor,
		logoDescriptor,
		{Key: "reelFrame", DisplayName: "Slot reel frame", Width: 1024, Height: 768},
		{Key: "symbolSheet", DisplayName: "Reel symbol sheet", Width: 1024, Height: 1024, NeedsTransparentBackground: true},
		{Key: "spinButton", DisplayName: "Spin button", Width: 512, Height: 256, NeedsTransparentBackground: true},
	},
	domain.MechanicScratch: {
		backgroundDescriptor,
		logoDescriptor,
		{Key: "scratchCard", DisplayName: "Scratch card face", Width: 768, Height: 512},
		{Key: "scratchFoil", DisplayName: "Scratch foil layer", Width: 768, Height: 512, NeedsTransparentBackground: true},
		{Key: "coin", DisplayName: "Scratching coin", Width: 256, Height: 256, NeedsTransparentBackground: true},
	},
}

var soundKeys = map[domain.MechanicType][]string{
	domain.MechanicWheel:   {"spin", "win", "click"},
	domain.MechanicBoxes:   {"open", "win", "click"},
	domain.MechanicCrash:   {"launch", "crash", "cashout"},
	domain.MechanicSlots:   {"spin", "stop", "win"},
	domain.MechanicScratch: {"scratch", "win", "click"},
}

// Plan returns the asset descriptors for a mechanic type. Unknown mechanics
// fall back to the wheel plan, mirroring ParseMechanicType.
func Plan(mechanic domain.MechanicType) []AssetDescriptor {
	plan, ok := plans[mechanic]
	if !ok {
		plan = plans[domain.MechanicWheel]
	}
	return append([]AssetDescriptor(nil), plan...)
}

// SoundKeys returns the sound slots a mechanic's landing expects.
func SoundKeys(mechanic domain.MechanicType) []string {
	keys, ok := soundKeys[mechanic]
	if !ok {
		keys = soundKeys[domain.MechanicWheel]
	}
	return append([]string(nil), keys...)
}
