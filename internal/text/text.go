// Package text implements the text constructor (spec §4.9): turning a
// tag set into an ordered list of map labels. Grounded on original
// map_machine/text.py, with the address field ordering cross-checked
// against roentgen/address.py.
package text

import (
	"sort"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/mapmachine/internal/mapconfig"
	"github.com/MeKo-Tech/mapmachine/internal/mmcolor"
	"github.com/MeKo-Tech/mapmachine/internal/scheme"
)

// DefaultFontSize is the label font size used unless a label
// overrides it (e.g. the smaller cladr:code label).
const DefaultFontSize = 10.0

// Label is one line of map text, with its own fill and outline color
// so that special labels (names, links, phone numbers) can stand out
// from ordinary tag-value labels.
type Label struct {
	Text    string
	Fill    mmcolor.RGB
	OutFill mmcolor.RGB
	Size    float64
}

// Constructor builds ordered label lists from tags, resolving its
// default/main/outline colors once from the scheme's palette.
type Constructor struct {
	scheme          *scheme.Scheme
	defaultColor    mmcolor.RGB
	mainColor       mmcolor.RGB
	defaultOutColor mmcolor.RGB
}

// NewConstructor builds a Constructor bound to sch's "text_color",
// "text_main_color" and "text_outline_color" palette entries.
func NewConstructor(sch *scheme.Scheme) Constructor {
	return Constructor{
		scheme:          sch,
		defaultColor:    sch.Colors.Get("text_color"),
		mainColor:       sch.Colors.Get("text_main_color"),
		defaultOutColor: sch.Colors.Get("text_outline_color"),
	}
}

func (c Constructor) label(text string, size float64) Label {
	return Label{Text: text, Fill: c.defaultColor, OutFill: c.defaultOutColor, Size: size}
}

// getAddress collects the addr:* fields, always housenumber, plus
// postcode/country/city/street when labelMode is Address (spec §4.9
// item 3). Consumed keys are marked in processed.
func getAddress(tags map[string]string, processed map[string]struct{}, labelMode mapconfig.LabelMode) []string {
	names := []string{"housenumber"}
	if labelMode == mapconfig.LabelModeAddress {
		names = append(names, "postcode", "country", "city", "street")
	}

	var address []string
	for _, name := range names {
		key := "addr:" + name
		if v, ok := tags[key]; ok {
			address = append(address, v)
			processed[key] = struct{}{}
		}
	}
	return address
}

// formatVoltage renders a raw voltage tag value as "N kV" when it is
// an exact multiple of 1000, otherwise "N V" (falls back to the raw
// string on parse failure).
func formatVoltage(value string) string {
	n, err := strconv.Atoi(value)
	if err != nil {
		return value
	}
	if n%1000 == 0 {
		return strconv.Itoa(n/1000) + " kV"
	}
	return value + " V"
}

func formatFrequency(value string) string {
	return value + " "
}

// getVoltageAndFrequency builds the voltage (spec §4.9 item 5) and
// frequency (item 6) labels, marking every key it consumes.
func (c Constructor) getVoltageAndFrequency(tags map[string]string, processed map[string]struct{}) []Label {
	var labels []Label
	var values []string

	if v, ok := tags["voltage:primary"]; ok {
		values = append(values, v)
		processed["voltage:primary"] = struct{}{}
	}
	if v, ok := tags["voltage:secondary"]; ok {
		values = append(values, v)
		processed["voltage:secondary"] = struct{}{}
	}
	if v, ok := tags["voltage"]; ok {
		values = strings.Split(v, ";")
		processed["voltage"] = struct{}{}
	}

	if len(values) > 0 {
		formatted := make([]string, len(values))
		for i, v := range values {
			formatted[i] = formatVoltage(v)
		}
		labels = append(labels, c.label(strings.Join(formatted, ", "), DefaultFontSize))
	}

	if v, ok := tags["frequency"]; ok {
		parts := strings.Split(v, ";")
		formatted := make([]string, len(parts))
		for i, p := range parts {
			formatted[i] = formatFrequency(p)
		}
		labels = append(labels, c.label(strings.Join(formatted, ", "), DefaultFontSize))
		processed["frequency"] = struct{}{}
	}

	return labels
}

// cleanWebsite strips a scheme prefix, "www.", and a trailing slash
// from a website tag value, truncating to 25 characters with an
// ellipsis if it was longer (spec §4.9 item 9).
func cleanWebsite(link string) string {
	original := link
	link = strings.TrimPrefix(link, "http://")
	link = strings.TrimPrefix(link, "https://")
	link = strings.TrimPrefix(link, "www.")
	link = strings.TrimSuffix(link, "/")
	if len(link) > 25 {
		return link[:25] + "..."
	}
	if len(original) > 25 {
		return link + "..."
	}
	return link
}

// Construct builds the ordered label list for tags under labelMode,
// marking every consumed tag key in processed (spec §4.9).
func (c Constructor) Construct(tags map[string]string, processed map[string]struct{}, labelMode mapconfig.LabelMode) []Label {
	var labels []Label

	var name string
	if v, ok := tags["name"]; ok {
		name = v
		processed["name"] = struct{}{}
	} else if v, ok := tags["name:en"]; ok {
		name = v
		processed["name:en"] = struct{}{}
	} else if v, ok := tags["ref"]; ok {
		name = v
		processed["ref"] = struct{}{}
	}

	var alternative []string
	if v, ok := tags["alt_name"]; ok {
		alternative = append(alternative, v)
		processed["alt_name"] = struct{}{}
	}
	if v, ok := tags["old_name"]; ok {
		alternative = append(alternative, "ex "+v)
		processed["old_name"] = struct{}{}
	}

	address := getAddress(tags, processed, labelMode)

	if name != "" {
		labels = append(labels, Label{Text: name, Fill: c.mainColor, OutFill: c.defaultOutColor, Size: DefaultFontSize})
	}
	if len(alternative) > 0 {
		labels = append(labels, c.label("("+strings.Join(alternative, ", ")+")", DefaultFontSize))
	}
	if len(address) > 0 {
		labels = append(labels, c.label(strings.Join(address, ", "), DefaultFontSize))
	}

	if labelMode == mapconfig.LabelModeMain {
		return labels
	}

	labels = append(labels, c.getVoltageAndFrequency(tags, processed)...)

	if v, ok := tags["route_ref"]; ok {
		labels = append(labels, c.label(strings.ReplaceAll(v, ";", " "), DefaultFontSize))
		processed["route_ref"] = struct{}{}
	}

	if v, ok := tags["cladr:code"]; ok {
		labels = append(labels, c.label(v, 7.0))
		processed["cladr:code"] = struct{}{}
	}

	if v, ok := tags["website"]; ok {
		labels = append(labels, Label{
			Text: cleanWebsite(v), Fill: mmcolor.RGB{R: 0x00, G: 0x00, B: 0x88}, OutFill: c.defaultOutColor, Size: DefaultFontSize,
		})
		processed["website"] = struct{}{}
	}

	if v, ok := tags["phone"]; ok {
		labels = append(labels, Label{
			Text: v, Fill: mmcolor.RGB{R: 0x44, G: 0x44, B: 0x44}, OutFill: c.defaultOutColor, Size: DefaultFontSize,
		})
		processed["phone"] = struct{}{}
	}

	if v, ok := tags["height"]; ok {
		labels = append(labels, c.label("↕ "+v+" m", DefaultFontSize))
		processed["height"] = struct{}{}
	}

	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, seen := processed[k]; seen {
			continue
		}
		if !c.scheme.IsWritable(k) {
			continue
		}
		labels = append(labels, c.label(tags[k], DefaultFontSize))
	}

	return labels
}
