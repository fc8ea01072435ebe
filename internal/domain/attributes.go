package domain

// CategoryKind tags which variant of AttributeSet is populated.
type CategoryKind string

const (
	CategoryMouse    CategoryKind = "mouse"
	CategoryKeyboard CategoryKind = "keyboard"
)

// Valid reports whether the category is one of the known kinds.
func (c CategoryKind) Valid() bool {
	return c == CategoryMouse || c == CategoryKeyboard
}

// Connection describes how a device connects to the host.
type Connection string

const (
	ConnectionWired    Connection = "wired"
	ConnectionWireless Connection = "wireless"
	ConnectionBoth     Connection = "both"
)

// SensorType is the tracking technology of a pointing device.
type SensorType string

const (
	SensorOptical SensorType = "optical"
	SensorLaser   SensorType = "laser"
)

// Shape describes the chassis symmetry of a pointing device.
type Shape string

const (
	ShapeSymmetrical Shape = "symmetrical"
	ShapeErgonomic   Shape = "ergonomic"
)

// Layout is the physical key layout standard of a keyboard.
type Layout string

const (
	LayoutANSI Layout = "ansi"
	LayoutISO  Layout = "iso"
	LayoutJIS  Layout = "jis"
)

// KeyboardSize is the form factor of a keyboard.
type KeyboardSize string

const (
	SizeFull        KeyboardSize = "full"
	SizeTKL         KeyboardSize = "tkl"
	SizeSeventyFive KeyboardSize = "75"
	SizeSixtyFive   KeyboardSize = "65"
	SizeSixty       KeyboardSize = "60"
)

// SwitchFamily is the broad feel category of a keyboard switch.
type SwitchFamily string

const (
	SwitchLinear  SwitchFamily = "linear"
	SwitchTactile SwitchFamily = "tactile"
	SwitchClicky  SwitchFamily = "clicky"
)

// MouseAttributes holds the typed fields for a pointing device. Pointer
// fields are nil when the source value was absent or unparseable; they are
// never coerced to zero. HasRGB is the one explicitly-defaulted flag for this
// category: absence means unsupported, so it defaults to false.
type MouseAttributes struct {
	Connection    *Connection `json:"connection,omitempty"`
	Sensor        *SensorType `json:"sensor,omitempty"`
	Shape         *Shape      `json:"shape,omitempty"`
	WeightGrams   *float64    `json:"weightGrams,omitempty"`
	MaxDPI        *int        `json:"maxDpi,omitempty"`
	PollingRateHz *int        `json:"pollingRateHz,omitempty"`
	ButtonCount   *int        `json:"buttonCount,omitempty"`
	HasRGB        bool        `json:"hasRgb"`
}

// KeyboardAttributes holds the typed fields for an input device. Pointer
// fields follow the same unset-over-zero rule. HasRGB and HotSwappable are
// the explicitly-defaulted flags for this category.
type KeyboardAttributes struct {
	Connection          *Connection   `json:"connection,omitempty"`
	Layout              *Layout       `json:"layout,omitempty"`
	Size                *KeyboardSize `json:"size,omitempty"`
	SwitchFamily        *SwitchFamily `json:"switchFamily,omitempty"`
	KeyCount            *int          `json:"keyCount,omitempty"`
	ActuationForceGrams *float64      `json:"actuationForceGrams,omitempty"`
	PollingRateHz       *int          `json:"pollingRateHz,omitempty"`
	HasRGB              bool          `json:"hasRgb"`
	HotSwappable        bool          `json:"hotSwappable"`
}

// AttributeSet is a tagged union keyed by Category. Exactly one of the
// variant pointers is non-nil for a valid set.
type AttributeSet struct {
	Category CategoryKind        `json:"category"`
	Mouse    *MouseAttributes    `json:"mouse,omitempty"`
	Keyboard *KeyboardAttributes `json:"keyboard,omitempty"`
}
