package validation

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/brizzbuzz/cfgscrub/internal/errors"
)

// Encodings lists the fixed text encodings a document may be stored in.
var Encodings = []string{"utf-8", "utf-8-bom"}

// pathMetaChars have special meaning in JSON path lookups.
const pathMetaChars = `*?|#@\`

// Validator provides comprehensive validation with helpful error messages
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// TargetData represents a scrub target for validation
type TargetData struct {
	Container string
	Fields    []string
}

// ConfigData represents the settings checked before a document is touched
type ConfigData struct {
	TargetFile string
	Encoding   string
	Indent     string
	Targets    []TargetData
}

// ValidateConfigStruct validates the whole configuration
func (v *Validator) ValidateConfigStruct(cfg ConfigData) error {
	if err := v.validateTargetFile(cfg.TargetFile); err != nil {
		return err
	}

	if err := v.validateEncoding(cfg.Encoding); err != nil {
		return err
	}

	if err := v.validateIndent(cfg.Indent); err != nil {
		return err
	}

	if len(cfg.Targets) == 0 {
		return errors.ConfigError(
			"Configuration validation",
			"No targets defined in configuration",
			nil,
		)
	}

	// Track containers to detect duplicates
	seenContainers := make(map[string]string)

	for i, target := range cfg.Targets {
		targetName := fmt.Sprintf("targets[%d]", i)
		if err := v.validateTarget(target, targetName, seenContainers); err != nil {
			return err
		}
	}

	return nil
}

// validateTargetFile validates the document path
func (v *Validator) validateTargetFile(path string) error {
	if path == "" {
		return errors.ConfigValidationError(
			"target_file",
			"<empty>",
			"Target file cannot be empty",
			[]string{
				"Specify the settings file to scrub",
				"Example: AmesaBackend/appsettings.Development.json",
			},
		)
	}

	// Check for path traversal attempts
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return errors.ConfigValidationError(
				"target_file",
				path,
				"Path traversal detected (contains '..')",
				[]string{
					"Remove '..' from the path",
					"Run the tool from the directory that contains the settings file",
				},
			)
		}
	}

	if !strings.EqualFold(filepath.Ext(path), ".json") {
		return errors.ConfigValidationError(
			"target_file",
			path,
			"Target file must be a .json document",
			[]string{
				"Point target_file at a JSON settings file",
			},
		)
	}

	return nil
}

// validateEncoding validates the fixed text encoding name
func (v *Validator) validateEncoding(encoding string) error {
	for _, known := range Encodings {
		if encoding == known {
			return nil
		}
	}

	return errors.ValidationError(
		"Validating encoding",
		"encoding",
		encoding,
		strings.Join(Encodings, " or "),
	)
}

// validateIndent validates that the indentation unit is whitespace only
func (v *Validator) validateIndent(indent string) error {
	if indent == "" {
		return errors.ConfigValidationError(
			"indent",
			"<empty>",
			"Indent cannot be empty",
			[]string{"Use two spaces to match the settings files in the repository"},
		)
	}

	if strings.Trim(indent, " \t") != "" {
		return errors.ValidationError(
			"Validating indent",
			"indent",
			indent,
			"spaces or tabs only",
		)
	}

	return nil
}

// validateTarget validates a container path and its fields
func (v *Validator) validateTarget(target TargetData, targetName string, seenContainers map[string]string) error {
	if err := v.validatePath(target.Container, targetName+".container"); err != nil {
		return err
	}

	if existing, exists := seenContainers[target.Container]; exists {
		return errors.ConfigValidationError(
			targetName+".container",
			target.Container,
			fmt.Sprintf("Duplicate container (already used by %s)", existing),
			[]string{
				"List every field of a container under a single target",
			},
		)
	}
	seenContainers[target.Container] = targetName

	if len(target.Fields) == 0 {
		return errors.ConfigValidationError(
			targetName+".fields",
			"<empty>",
			"Target must name at least one field",
			[]string{
				"Add the secret field names, for example ClientId and ClientSecret",
			},
		)
	}

	seenFields := make(map[string]bool, len(target.Fields))
	for i, field := range target.Fields {
		fieldName := fmt.Sprintf("%s.fields[%d]", targetName, i)

		if err := v.validateSegment(field, fieldName); err != nil {
			return err
		}
		if strings.Contains(field, ".") {
			return errors.ConfigValidationError(
				fieldName,
				field,
				"Field name cannot contain '.'",
				[]string{
					"Move the nested part of the path into the container",
				},
			)
		}
		if seenFields[field] {
			return errors.ConfigValidationError(
				fieldName,
				field,
				"Duplicate field in target",
				[]string{"Remove the repeated field name"},
			)
		}
		seenFields[field] = true
	}

	return nil
}

// validatePath validates a dotted container path
func (v *Validator) validatePath(path, name string) error {
	if path == "" {
		return errors.ConfigValidationError(
			name,
			"<empty>",
			"Container path cannot be empty",
			[]string{
				"Use a dotted path to a JSON object: Authentication.Google",
			},
		)
	}

	for i, segment := range strings.Split(path, ".") {
		if err := v.validateSegment(segment, fmt.Sprintf("%s[%d]", name, i)); err != nil {
			return err
		}
	}

	return nil
}

// validateSegment validates a single key in a path
func (v *Validator) validateSegment(segment, name string) error {
	if strings.TrimSpace(segment) == "" {
		return errors.ConfigValidationError(
			name,
			"<empty>",
			"Path segment cannot be empty",
			[]string{
				"Remove doubled or trailing dots from the path",
			},
		)
	}

	if strings.ContainsAny(segment, pathMetaChars) {
		return errors.ConfigValidationError(
			name,
			segment,
			fmt.Sprintf("Path segment contains a reserved character (one of %s)", pathMetaChars),
			[]string{
				"Use plain key names; wildcards and modifiers are not supported",
			},
		)
	}

	return nil
}
