package lang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/datalit/lang/value"
)

// Format writes v in literal syntax to the writer.
func Format(_ context.Context, w io.Writer, v value.Value) error {
	_, err := fmt.Fprintln(w, v.String())

	return err
}

// FormatJSON writes the native form of v as JSON to the writer.
func FormatJSON(_ context.Context, w io.Writer, v value.Value, indent int) error {
	var (
		jsonData []byte
		err      error
	)

	if indent > 0 {
		jsonData, err = json.MarshalIndent(v.ToNative(), "", strings.Repeat(" ", indent))
	} else {
		jsonData, err = json.Marshal(v.ToNative())
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(jsonData))

	return err
}

// FormatYAML writes the native form of v as YAML to the writer.
func FormatYAML(ctx context.Context, w io.Writer, v value.Value, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	yamlData, err := yaml.MarshalContext(ctx, v.ToNative(), opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(yamlData))

	return err
}

// FormatTree writes v as an indented tree, one field or element per line.
func FormatTree(_ context.Context, w io.Writer, v value.Value) error {
	var sb strings.Builder

	writeTree(&sb, "", "", v)

	_, err := io.WriteString(w, sb.String())

	return err
}

func writeTree(sb *strings.Builder, indent, label string, v value.Value) {
	sb.WriteString(label)

	type child struct {
		label string
		v     value.Value
	}

	var children []child

	switch {
	case v.Kind() == value.KindStruct:
		sb.WriteString(v.StructType().String())

		for name, f := range v.Fields() {
			children = append(children, child{name + ": ", f})
		}

	case v.Kind() == value.KindObject && v.Object().Kind() == value.ObjRecord:
		sb.WriteString(v.Object().Type().String())

		for name, f := range v.Fields() {
			children = append(children, child{name + ": ", f})
		}

	case v.Kind() == value.KindObject:
		fmt.Fprintf(sb, "%s (%d)", v.Object().Type(), v.Object().Len())

		for i, e := range v.Object().Elems() {
			children = append(children, child{fmt.Sprintf("[%d] ", i), e})
		}

	default:
		sb.WriteString(v.String())
	}

	sb.WriteByte('\n')

	for i, c := range children {
		branch, next := "├─ ", "│  "
		if i == len(children)-1 {
			branch, next = "└─ ", "   "
		}

		sb.WriteString(indent + branch)
		writeTree(sb, indent+next, c.label, c.v)
	}
}
