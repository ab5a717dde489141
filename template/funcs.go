package template

import (
	"strings"
	texttemplate "text/template"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"appforge"
)

var titleCaser = cases.Title(language.English)

// funcs is the function table available inside every template body.
var funcs = texttemplate.FuncMap{
	"title":    titleCaser.String,
	"upper":    strings.ToUpper,
	"camelize": inflect.Camelize,
	"column":   columnType,
	"input":    inputElement,
	"label":    labelText,
	"permit":   permitList,
	"seedargs": seedArgs,
}

// columnKinds maps a field kind to the column type used in generated
// migrations.
var columnKinds = map[appforge.FieldKind]string{
	appforge.KindText:     "string",
	appforge.KindBoolean:  "boolean",
	appforge.KindSecret:   "string",
	appforge.KindFreeText: "text",
}

// inputKinds is the fieldKind → rendering strategy dispatch table: each kind
// renders a structurally different form element.
var inputKinds = map[appforge.FieldKind]string{
	appforge.KindText:     "text_field",
	appforge.KindBoolean:  "check_box",
	appforge.KindSecret:   "password_field",
	appforge.KindFreeText: "text_area",
}

func columnType(a appforge.Attribute) string {
	if c, ok := columnKinds[a.Kind]; ok {
		return c
	}
	return "string"
}

func inputElement(a appforge.Attribute) string {
	helper, ok := inputKinds[a.Kind]
	if !ok {
		helper = "text_field"
	}
	return "<%= form." + helper + " :" + a.Name + " %>"
}

func labelText(a appforge.Attribute) string {
	return titleCaser.String(strings.ReplaceAll(a.Name, "_", " "))
}

// permitList renders the strong-parameter list of a controller,
// e.g. ":title, :published".
func permitList(attrs []appforge.Attribute) string {
	parts := make([]string, len(attrs))
	for i, a := range attrs {
		parts[i] = ":" + a.Name
	}
	return strings.Join(parts, ", ")
}

// seedArgs renders one sample record literal per attribute for seed files.
func seedArgs(attrs []appforge.Attribute) string {
	parts := make([]string, len(attrs))
	for i, a := range attrs {
		switch a.Kind {
		case appforge.KindBoolean:
			parts[i] = a.Name + ": true"
		case appforge.KindSecret:
			parts[i] = a.Name + ": \"changeme\""
		case appforge.KindFreeText:
			parts[i] = a.Name + ": \"Sample " + strings.ReplaceAll(a.Name, "_", " ") + " body #{i}\""
		default:
			parts[i] = a.Name + ": \"Sample " + strings.ReplaceAll(a.Name, "_", " ") + " #{i}\""
		}
	}
	return strings.Join(parts, ", ")
}
