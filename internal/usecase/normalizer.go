package usecase

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shelfgear/backend/internal/domain"
)

// Package-level compiled patterns for attribute coercion.
var (
	numberRegex     = regexp.MustCompile(`\d[\d,]*\.?\d*`)
	keySeparatorReg = regexp.MustCompile(`[\s_\-]+`)
)

// connectionTable maps free-text connection terms to canonical values.
// Vendor copy is wildly inconsistent here; anything not in the table stays
// unset rather than blocking ingestion.
var connectionTable = map[string]domain.Connection{
	"wired":            domain.ConnectionWired,
	"usb":              domain.ConnectionWired,
	"usb-c":            domain.ConnectionWired,
	"cable":            domain.ConnectionWired,
	"cabled":           domain.ConnectionWired,
	"corded":           domain.ConnectionWired,
	"wireless":         domain.ConnectionWireless,
	"bluetooth":        domain.ConnectionWireless,
	"bt":               domain.ConnectionWireless,
	"2.4ghz":           domain.ConnectionWireless,
	"2.4 ghz":          domain.ConnectionWireless,
	"rf":               domain.ConnectionWireless,
	"cordless":         domain.ConnectionWireless,
	"both":             domain.ConnectionBoth,
	"dual":             domain.ConnectionBoth,
	"dual mode":        domain.ConnectionBoth,
	"hybrid":           domain.ConnectionBoth,
	"wired + wireless": domain.ConnectionBoth,
	"wired/wireless":   domain.ConnectionBoth,
	"wired and wireless": domain.ConnectionBoth,
}

var sensorTable = map[string]domain.SensorType{
	"optical":       domain.SensorOptical,
	"optic":         domain.SensorOptical,
	"led":           domain.SensorOptical,
	"laser":         domain.SensorLaser,
	"laser sensor":  domain.SensorLaser,
	"dark field":    domain.SensorLaser,
	"darkfield":     domain.SensorLaser,
}

var shapeTable = map[string]domain.Shape{
	"symmetrical": domain.ShapeSymmetrical,
	"symmetric":   domain.ShapeSymmetrical,
	"ambidextrous": domain.ShapeSymmetrical,
	"ambi":        domain.ShapeSymmetrical,
	"ergonomic":   domain.ShapeErgonomic,
	"ergo":        domain.ShapeErgonomic,
	"right handed": domain.ShapeErgonomic,
	"right-handed": domain.ShapeErgonomic,
}

var layoutTable = map[string]domain.Layout{
	"ansi": domain.LayoutANSI,
	"us":   domain.LayoutANSI,
	"iso":  domain.LayoutISO,
	"uk":   domain.LayoutISO,
	"eu":   domain.LayoutISO,
	"jis":  domain.LayoutJIS,
	"jp":   domain.LayoutJIS,
	"japanese": domain.LayoutJIS,
}

var sizeTable = map[string]domain.KeyboardSize{
	"full":       domain.SizeFull,
	"full size":  domain.SizeFull,
	"full-size":  domain.SizeFull,
	"100%":       domain.SizeFull,
	"tkl":        domain.SizeTKL,
	"tenkeyless": domain.SizeTKL,
	"80%":        domain.SizeTKL,
	"75%":        domain.SizeSeventyFive,
	"75":         domain.SizeSeventyFive,
	"65%":        domain.SizeSixtyFive,
	"65":         domain.SizeSixtyFive,
	"60%":        domain.SizeSixty,
	"60":         domain.SizeSixty,
	"compact":    domain.SizeSixty,
}

var switchTable = map[string]domain.SwitchFamily{
	"linear":      domain.SwitchLinear,
	"red":         domain.SwitchLinear,
	"yellow":      domain.SwitchLinear,
	"black":       domain.SwitchLinear,
	"silver":      domain.SwitchLinear,
	"speed":       domain.SwitchLinear,
	"tactile":     domain.SwitchTactile,
	"brown":       domain.SwitchTactile,
	"clear":       domain.SwitchTactile,
	"clicky":      domain.SwitchClicky,
	"blue":        domain.SwitchClicky,
	"green":       domain.SwitchClicky,
	"click":       domain.SwitchClicky,
}

var truthyValues = map[string]bool{
	"yes": true, "true": true, "1": true, "y": true, "on": true,
	"rgb": true, "included": true, "supported": true,
}

// Normalize maps loose attribute fragments into the typed set for the
// category. It is total: it never fails, unknown keys are dropped, and a
// value that cannot be coerced leaves its field unset. The only defaults it
// owns are the boolean feature flags where absence means unsupported
// (mouse: hasRgb; keyboard: hasRgb, hotSwappable), which start out false.
func Normalize(category domain.CategoryKind, raw map[string]string) domain.AttributeSet {
	switch category {
	case domain.CategoryMouse:
		return domain.AttributeSet{Category: category, Mouse: normalizeMouse(raw)}
	case domain.CategoryKeyboard:
		return domain.AttributeSet{Category: category, Keyboard: normalizeKeyboard(raw)}
	default:
		return domain.AttributeSet{Category: category}
	}
}

func normalizeMouse(raw map[string]string) *domain.MouseAttributes {
	attrs := &domain.MouseAttributes{}
	for key, value := range raw {
		switch canonicalKey(key) {
		case "connection", "connectivity", "connection type":
			attrs.Connection = lookupConnection(value)
		case "sensor", "sensor type":
			attrs.Sensor = lookupEnum(value, sensorTable)
		case "shape", "form", "handedness":
			attrs.Shape = lookupEnum(value, shapeTable)
		case "weight", "weight grams":
			attrs.WeightGrams = parseFloatValue(value)
		case "dpi", "max dpi", "resolution", "cpi":
			attrs.MaxDPI = parseIntValue(value)
		case "polling rate", "polling rates", "report rate", "polling rate hz":
			attrs.PollingRateHz = maxOfRateList(value)
		case "buttons", "button count":
			attrs.ButtonCount = parseIntValue(value)
		case "rgb", "lighting", "has rgb":
			attrs.HasRGB = parseBoolValue(value)
		}
	}
	return attrs
}

func normalizeKeyboard(raw map[string]string) *domain.KeyboardAttributes {
	attrs := &domain.KeyboardAttributes{}
	for key, value := range raw {
		switch canonicalKey(key) {
		case "connection", "connectivity", "connection type":
			attrs.Connection = lookupConnection(value)
		case "layout":
			attrs.Layout = lookupEnum(value, layoutTable)
		case "size", "form factor":
			attrs.Size = lookupEnum(value, sizeTable)
		case "switch", "switches", "switch type", "switch family":
			attrs.SwitchFamily = lookupEnum(value, switchTable)
		case "keys", "key count":
			attrs.KeyCount = parseIntValue(value)
		case "actuation force", "actuation", "operating force":
			attrs.ActuationForceGrams = parseFloatValue(value)
		case "polling rate", "polling rates", "report rate", "polling rate hz":
			attrs.PollingRateHz = maxOfRateList(value)
		case "rgb", "lighting", "backlight", "has rgb":
			attrs.HasRGB = parseBoolValue(value)
		case "hot swappable", "hotswap", "hot swap":
			attrs.HotSwappable = parseBoolValue(value)
		}
	}
	return attrs
}

// canonicalKey lowercases a raw key and collapses separators so that
// "Polling_Rate" and "polling-rate" both land on "polling rate".
func canonicalKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	return keySeparatorReg.ReplaceAllString(key, " ")
}

func lookupConnection(value string) *domain.Connection {
	return lookupEnum(value, connectionTable)
}

// lookupEnum coerces a free-text value through an explicit mapping table.
// Unknown vendor terminology yields unset, never an error.
func lookupEnum[T ~string](value string, table map[string]T) *T {
	canonical, ok := table[strings.ToLower(strings.TrimSpace(value))]
	if !ok {
		return nil
	}
	return &canonical
}

func parseFloatValue(value string) *float64 {
	m := numberRegex.FindString(value)
	if m == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseIntValue(value string) *int {
	f := parseFloatValue(value)
	if f == nil {
		return nil
	}
	n := int(*f)
	return &n
}

// maxOfRateList reduces a multi-rate list ("125/500/1000/8000 Hz") to a
// single scalar: the maximum of the parsed values. The persisted schema
// stores one canonical rate and the highest is always the one kept; the
// lower rates are discarded. Lossy but deterministic, and intentional.
func maxOfRateList(value string) *int {
	matches := numberRegex.FindAllString(value, -1)
	if len(matches) == 0 {
		return nil
	}

	best := 0
	found := false
	for _, m := range matches {
		f, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
		if err != nil {
			continue
		}
		if n := int(f); !found || n > best {
			best = n
			found = true
		}
	}
	if !found {
		return nil
	}
	return &best
}

// parseBoolValue coerces a flag value. Anything not in the truthy table is
// false, matching the absence-means-unsupported default for these fields.
func parseBoolValue(value string) bool {
	return truthyValues[strings.ToLower(strings.TrimSpace(value))]
}
