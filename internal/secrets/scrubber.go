package secrets

import (
	"bytes"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	"github.com/brizzbuzz/cfgscrub/internal/config"
	"github.com/brizzbuzz/cfgscrub/internal/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Scrubber clears known secret fields in JSON settings documents. Key order,
// sibling values and non-ASCII text survive the round trip.
type Scrubber struct {
	targets     []config.Target
	placeholder string
	indent      string
	encoding    string
	logger      *zap.Logger
}

// NewScrubber creates a scrubber for the configured targets.
func NewScrubber(cfg *config.Config, logger *zap.Logger) *Scrubber {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scrubber{
		targets:     cfg.Targets,
		placeholder: cfg.Placeholder,
		indent:      cfg.Indent,
		encoding:    cfg.Encoding,
		logger:      logger.Named("scrubber"),
	}
}

// Scrub clears every target field whose container object exists and returns
// the re-indented document. Containers that are missing, or are not objects,
// are left alone and never created.
func (s *Scrubber) Scrub(data []byte) ([]byte, *Result, error) {
	return s.scrub(data, "<document>")
}

func (s *Scrubber) scrub(data []byte, name string) ([]byte, *Result, error) {
	start := time.Now()
	result := &Result{
		Cleared:     make([]string, 0),
		Skipped:     make([]string, 0),
		Duplicates:  make([]string, 0),
		InputDigest: digest(data),
	}

	if err := s.checkDocument(data, name); err != nil {
		return nil, nil, err
	}

	parsed := gjson.ParseBytes(data)
	out := appendCanonical(nil, parsed, "", &result.Duplicates)
	if len(result.Duplicates) > 0 {
		s.logger.Info("Collapsed duplicate keys, keeping the last value of each",
			zap.String("document", name),
			zap.Strings("keys", result.Duplicates))
	}

	root := parsed.IsObject()
	value := appendString(nil, s.placeholder)

	for _, target := range s.targets {
		var container gjson.Result
		if root {
			container = gjson.GetBytes(out, target.Container)
		}
		if !container.IsObject() {
			s.logger.Debug("Container not present, leaving document as is",
				zap.String("container", target.Container),
				zap.Bool("exists", container.Exists()),
				zap.String("type", container.Type.String()))
			result.Skipped = append(result.Skipped, target.Container)
			continue
		}

		for _, field := range target.Fields {
			path := target.Container + "." + field

			var err error
			out, err = sjson.SetRawBytes(out, path, value)
			if err != nil {
				return nil, nil, errors.WrapWithSuggestions(
					err,
					fmt.Sprintf("Clearing %s", path),
					"document",
					[]string{"Check that the container path points at a JSON object"},
				)
			}

			s.logger.Debug("Cleared field", zap.String("path", path))
			result.Cleared = append(result.Cleared, path)
		}
	}

	out = s.format(out)

	result.OutputDigest = digest(out)
	result.Changed = result.OutputDigest != result.InputDigest
	result.Bytes = len(out)
	result.Duration = time.Since(start)

	return out, result, nil
}

// checkDocument rejects text that is not a single valid JSON value.
func (s *Scrubber) checkDocument(data []byte, name string) error {
	if !utf8.Valid(data) {
		return errors.ParseError(name, "document is not valid UTF-8", nil)
	}

	if bytes.HasPrefix(data, utf8BOM) {
		err := errors.ParseError(name, "document starts with a UTF-8 byte-order mark", nil)
		err.Suggestions = append(err.Suggestions, "Set encoding to utf-8-bom to accept files saved with a BOM")
		return err
	}

	if !gjson.ValidBytes(data) {
		return errors.ParseError(name, "document is not valid JSON", nil)
	}

	return nil
}

// format re-indents the canonical document. Arrays are never folded onto one
// line.
func (s *Scrubber) format(data []byte) []byte {
	out := pretty.PrettyOptions(data, &pretty.Options{
		Width:  -1,
		Indent: s.indent,
	})
	return bytes.TrimRight(out, "\n")
}
