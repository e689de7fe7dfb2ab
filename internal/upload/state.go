// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package upload

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/unicode"

	"github.com/jeranaias/jellycat-tui/internal/model"
)

// maxConcurrentReads bounds the goroutines reading one batch.
const maxConcurrentReads = 4

// =============================================================================
// CANDIDATES
// =============================================================================

// Candidate is a file the user picked but that has not been read yet.
type Candidate struct {
	Name string
	Size int64
	Type string

	// Open returns the file content. It is only called for candidates that
	// pass validation.
	Open func() (io.ReadCloser, error)
}

// FromBytes builds a candidate backed by an in-memory payload.
func FromBytes(name, mimeType string, data []byte) Candidate {
	return Candidate{
		Name: name,
		Size: int64(len(data)),
		Type: mimeType,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// FromPath builds a candidate for a file on disk, detecting its MIME type.
func FromPath(path string) (Candidate, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Candidate{}, err
	}
	if info.IsDir() {
		return Candidate{}, fmt.Errorf("%s is a directory", path)
	}

	head, err := readHead(path)
	if err != nil {
		return Candidate{}, err
	}

	return Candidate{
		Name: filepath.Base(path),
		Size: info.Size(),
		Type: DetectType(path, head),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

func readHead(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf[:n], nil
}

// =============================================================================
// STATE
// =============================================================================

// FileInfo is the display summary of an attachment.
type FileInfo struct {
	Icon     string
	SizeText string
}

// State holds the composer's pending attachments. It is safe for concurrent
// use, but overlapping AddFiles calls are not coalesced: each batch checks
// the total against what was held when it started, and the last error
// written wins.
type State struct {
	mu        sync.Mutex
	files     []model.UploadedFile
	err       string
	uploading int
	logger    *zap.Logger
}

// NewState creates an empty upload state. A nil logger disables logging.
func NewState(logger *zap.Logger) *State {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &State{logger: logger}
}

// AddFiles validates and reads a batch of candidates, appending the ones
// that succeed in candidate order. It returns the files added. If the held
// files plus the batch exceed SizeLimit, nothing is added.
//
// Reads run concurrently. A failed read records an error and aborts the
// whole batch, so nothing is added; cancelling ctx aborts it silently.
func (s *State) AddFiles(ctx context.Context, candidates []Candidate) []model.UploadedFile {
	s.mu.Lock()
	s.err = ""
	s.uploading++
	held := model.TotalSize(s.files)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.uploading--
		s.mu.Unlock()
	}()

	var batch int64
	for _, c := range candidates {
		batch += c.Size
	}
	if held+batch > SizeLimit {
		s.setError(ErrMsgTotalTooLarge)
		return nil
	}

	// Validate in candidate order so the recorded error is the last invalid one.
	results := make([]*model.UploadedFile, len(candidates))
	readErrs := make([]error, len(candidates))
	stamp := strconv.FormatInt(time.Now().UnixMilli(), 10)

	var g errgroup.Group
	g.SetLimit(maxConcurrentReads)
	for i, c := range candidates {
		if res := Validate(c); !res.IsValid {
			s.logger.Debug("attachment rejected",
				zap.String("name", c.Name),
				zap.String("type", c.Type),
				zap.Int64("size", c.Size),
				zap.String("reason", res.Error))
			s.setError(res.Error)
			continue
		}

		i, c := i, c
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				readErrs[i] = err
				return nil
			}
			f, err := readCandidate(c)
			if err != nil {
				readErrs[i] = err
				return nil
			}
			f.ID = stamp + "-" + strconv.Itoa(i)
			results[i] = f
			return nil
		})
	}
	_ = g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, err := range readErrs {
		if err == nil {
			continue
		}
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn("attachment read failed, batch dropped",
				zap.String("name", candidates[i].Name),
				zap.Error(err))
			s.err = fmt.Sprintf("Failed to read %s", candidates[i].Name)
		}
		return nil
	}

	var added []model.UploadedFile
	for _, f := range results {
		if f != nil {
			added = append(added, *f)
		}
	}
	s.files = append(s.files, added...)
	return added
}

// readCandidate loads the payload and derives its displayable form: a data
// URL for images, UTF-8 text otherwise.
func readCandidate(c Candidate) (*model.UploadedFile, error) {
	if c.Open == nil {
		return nil, errors.New("candidate has no content")
	}
	rc, err := c.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, SizeLimit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > SizeLimit {
		return nil, errors.New(ErrMsgFileTooLarge)
	}

	f := &model.UploadedFile{
		Name: c.Name,
		Size: int64(len(data)),
		Type: c.Type,
		Data: data,
	}
	if f.IsImage() {
		f.Content = "data:" + c.Type + ";base64," + base64.StdEncoding.EncodeToString(data)
		return f, nil
	}

	// Strip a UTF-8 BOM and replace invalid sequences with U+FFFD.
	text, err := unicode.UTF8BOM.NewDecoder().Bytes(data)
	if err != nil {
		return nil, err
	}
	f.Content = string(text)
	return f, nil
}

func (s *State) setError(msg string) {
	s.mu.Lock()
	s.err = msg
	s.mu.Unlock()
}

// RemoveFile drops the file with the given id and clears the error.
func (s *State) RemoveFile(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.files[:0]
	for _, f := range s.files {
		if f.ID != id {
			kept = append(kept, f)
		}
	}
	s.files = kept
	s.err = ""
}

// ClearFiles empties the held list and clears the error.
func (s *State) ClearFiles() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = nil
	s.err = ""
}

// Info returns the icon and human size of a file.
func (s *State) Info(f model.UploadedFile) FileInfo {
	return InfoFor(f)
}

// InfoFor is Info without a State.
func InfoFor(f model.UploadedFile) FileInfo {
	return FileInfo{Icon: IconFor(f.Type), SizeText: FormatSize(f.Size)}
}

// Files returns a copy of the held files.
func (s *State) Files() []model.UploadedFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.UploadedFile(nil), s.files...)
}

// Len returns the number of held files.
func (s *State) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

// Error returns the current error, or "".
func (s *State) Error() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// IsUploading reports whether an AddFiles call is in progress.
func (s *State) IsUploading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploading > 0
}
