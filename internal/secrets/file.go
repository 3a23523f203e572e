package secrets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/moby/sys/atomicwriter"
	"go.uber.org/zap"

	"github.com/brizzbuzz/cfgscrub/internal/errors"
)

// ScrubFile reads the document at path, scrubs it and replaces the file.
// Nothing is written unless the whole document was read and parsed, and the
// replacement is atomic, so a failure leaves the original bytes in place.
// A symbolic link is followed and the file it points at is replaced; the link
// itself is kept.
func (s *Scrubber) ScrubFile(path string) (*Result, error) {
	logger := s.logger.With(zap.String("path", path))

	enc, err := codecFor(s.encoding)
	if err != nil {
		return nil, errors.ConfigError("Selecting text encoding", err.Error(), err)
	}

	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		return nil, errors.FileOperationError("Reading document", path, "Failed to resolve path", err)
	}
	if target != path {
		logger.Debug("Following symbolic link", zap.String("target", target))
	}

	raw, mode, err := readDocument(target)
	if err != nil {
		return nil, err
	}
	logger.Debug("Read document", zap.Int("size", len(raw)), zap.String("mode", mode.String()))

	text, err := decodeText(enc, raw)
	if err != nil {
		return nil, errors.ParseError(path, fmt.Sprintf("Failed to decode as %s", s.encoding), err)
	}

	out, result, err := s.scrub(text, path)
	if err != nil {
		return nil, err
	}

	encoded, err := encodeText(enc, out)
	if err != nil {
		return nil, errors.FileOperationError(
			"Encoding document",
			path,
			fmt.Sprintf("Failed to encode as %s", s.encoding),
			err,
		)
	}

	if err := atomicwriter.WriteFile(target, encoded, mode); err != nil {
		return nil, errors.FileOperationError(
			"Writing document",
			path,
			"Failed to replace file",
			err,
		)
	}

	result.Path = path
	result.Bytes = len(encoded)

	logger.Info("Document scrubbed",
		zap.Strings("cleared", result.Cleared),
		zap.Strings("duplicates", result.Duplicates),
		zap.Strings("skipped", result.Skipped),
		zap.Bool("changed", result.Changed),
		zap.Duration("duration", result.Duration))

	return result, nil
}

// readDocument returns the file contents and permission bits. The handle is
// closed before returning.
func readDocument(path string) ([]byte, os.FileMode, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, errors.FileOperationError("Reading document", path, "Failed to open file", err)
	}
	defer func() { _ = f.Close() }() // Ignore error - read-only handle

	info, err := f.Stat()
	if err != nil {
		return nil, 0, errors.FileOperationError("Reading document", path, "Failed to get file information", err)
	}

	if !info.Mode().IsRegular() {
		return nil, 0, errors.FileOperationError("Reading document", path, "Path is not a regular file", nil)
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, 0, errors.FileOperationError("Reading document", path, "Failed to read file content", err)
	}

	return data, info.Mode().Perm(), nil
}
