package config

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError reports one invalid field of a panel file.
type ValidationError struct {
	// Path locates the node, such as "root.children[1]".
	Path    string
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("%s.%s: %s", e.Path, e.Field, e.Message)
}

// NewValidator returns a validator that names fields by their yaml keys.
func NewValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("yaml"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return validate
}

// Validate checks struct tags and the per-kind rules of every node. All
// problems are returned joined.
func Validate(panel Panel) error {
	var problems []error
	if err := NewValidator().Struct(panel); err != nil {
		var fieldErrors validator.ValidationErrors
		if !errors.As(err, &fieldErrors) {
			return fmt.Errorf("validate panel: %w", err)
		}
		for _, fieldError := range fieldErrors {
			problems = append(problems, translate(fieldError))
		}
	}
	problems = append(problems, validateNode(panel.Root, "root")...)
	return errors.Join(problems...)
}

func translate(fieldError validator.FieldError) ValidationError {
	namespace := fieldError.Namespace()
	// Drop the leading struct name.
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		namespace = rest
	}
	path, field := namespace, ""
	if index := strings.LastIndex(namespace, "."); index >= 0 {
		path, field = namespace[:index], namespace[index+1:]
	}

	var message string
	switch fieldError.Tag() {
	case "required":
		message = "is required"
	case "oneof":
		message = fmt.Sprintf("must be one of %s", strings.ReplaceAll(fieldError.Param(), " ", ", "))
	case "gtfield":
		message = "must be greater than low"
	case "gt":
		message = fmt.Sprintf("must be greater than %s", fieldError.Param())
	default:
		message = fmt.Sprintf("failed %s validation", fieldError.Tag())
	}
	return ValidationError{Path: path, Field: field, Message: message}
}

var kindFields = map[string][]string{
	"box":      {"title", "orientation", "children"},
	"notebook": {"children"},
	"label":    {"text"},
	"image":    {"path"},
	"button":   {"text", "on_click"},
	"checkbox": {"text", "initialize", "on_click", "watch"},
	"scale":    {"range", "step", "initialize", "select", "on_update", "watch", "coalesce"},
	"combobox": {"initialize", "select", "on_update", "watch"},
}

var kindRequired = map[string][]string{
	"label":    {"text"},
	"image":    {"path"},
	"button":   {"text"},
	"checkbox": {"text"},
	"scale":    {"range"},
	"combobox": {"initialize"},
}

func validateNode(node Node, path string) []error {
	allowed, known := kindFields[node.Type]
	if !known {
		// Reported by the oneof tag.
		return nil
	}

	var problems []error
	set := node.setFields()
	for _, field := range kindRequired[node.Type] {
		if _, ok := set[field]; !ok {
			problems = append(problems, ValidationError{Path: path, Field: field, Message: "is required for " + node.Type})
		}
	}

	var unexpected []string
	for field := range set {
		if !slices.Contains(allowed, field) {
			unexpected = append(unexpected, field)
		}
	}
	sort.Strings(unexpected)
	for _, field := range unexpected {
		problems = append(problems, ValidationError{Path: path, Field: field, Message: "does not apply to " + node.Type})
	}

	for index, child := range node.Children {
		problems = append(problems, validateNode(child, fmt.Sprintf("%s.children[%d]", path, index))...)
	}
	return problems
}

// setFields lists the kind-specific fields with a value.
func (node Node) setFields() map[string]struct{} {
	set := map[string]struct{}{}
	mark := func(field string, present bool) {
		if present {
			set[field] = struct{}{}
		}
	}
	mark("title", node.Title != "")
	mark("orientation", node.Orientation != "")
	mark("children", len(node.Children) > 0)
	mark("text", node.Text != "")
	mark("path", node.Path != "")
	mark("initialize", node.Initialize != "")
	mark("select", node.Select != "")
	mark("on_update", node.OnUpdate != "")
	mark("on_click", node.OnClick != "")
	mark("watch", node.Watch != "")
	mark("range", node.Range != nil)
	mark("step", node.Step != nil)
	mark("coalesce", node.Coalesce != nil)
	return set
}
