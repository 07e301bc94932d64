package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/King12-D/hypegrow-boost/internal/config"
)

var (
	ErrProofTooLarge = errors.New("payment proof is too large")
	ErrProofNotImage = errors.New("payment proof must be an image")
)

var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

type ProofStore interface {
	// Save writes the proof for a payment and returns its public URL.
	Save(ctx context.Context, paymentID string, r io.Reader) (string, error)
}

type localProofStore struct {
	dir       string
	publicURL string
	maxBytes  int64
}

func NewLocalProofStore(cfg *config.Storage) (ProofStore, error) {
	if err := os.MkdirAll(cfg.ProofDir, 0o755); err != nil {
		return nil, fmt.Errorf("create proof dir: %w", err)
	}

	return &localProofStore{
		dir:       cfg.ProofDir,
		publicURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		maxBytes:  cfg.MaxProofBytes,
	}, nil
}

func (s *localProofStore) Save(ctx context.Context, paymentID string, r io.Reader) (string, error) {
	// read one byte past the limit to tell "exactly max" from "too big"
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read proof: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", ErrProofTooLarge
	}

	ext, ok := imageExtensions[http.DetectContentType(data)]
	if !ok {
		return "", ErrProofNotImage
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s.%s", filepath.Base(paymentID), ext)
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create proof file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write proof: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close proof: %w", err)
	}

	// a re-upload replaces the previous file
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return "", fmt.Errorf("store proof: %w", err)
	}

	return s.publicURL + "/" + name, nil
}
