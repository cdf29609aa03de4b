// Package avatar stores user profile pictures on disk. Uploads are decoded,
// downscaled to a bounded size and re-encoded as PNG, so arbitrary upstream
// image bytes are never served back verbatim.
package avatar

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"

	apperrors "github.com/oakrobotics/scoutbase/pkg/errors"
)

// MaxSize is the largest stored avatar edge in pixels.
const MaxSize = 512

// MinSize is the smallest size callers may request when serving.
const MinSize = 32

// Store keeps one PNG file per user under a single directory.
type Store struct {
	dir string
}

// NewStore creates the avatar directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create avatar dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(userID string) string {
	return filepath.Join(s.dir, userID+".png")
}

// Save decodes the uploaded image, scales it down to at most MaxSize on the
// longest edge (never enlarging), and writes it as PNG.
func (s *Store) Save(userID string, r io.Reader) error {
	src, _, err := image.Decode(r)
	if err != nil {
		return apperrors.InvalidInput(fmt.Errorf("decode avatar image: %w", err))
	}

	dst := scale(src, MaxSize, false)

	f, err := os.CreateTemp(s.dir, "upload-*.png")
	if err != nil {
		return fmt.Errorf("create avatar temp file: %w", err)
	}
	tmp := f.Name()

	if err := png.Encode(f, dst); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode avatar: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close avatar temp file: %w", err)
	}

	// Atomic replace so concurrent readers never observe a partial file.
	if err := os.Rename(tmp, s.path(userID)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("store avatar: %w", err)
	}

	return nil
}

// Open returns the user's avatar scaled to the requested size.
func (s *Store) Open(userID string, size int) (io.ReadCloser, error) {
	if size < MinSize {
		size = MinSize
	}
	if size > MaxSize {
		size = MaxSize
	}

	f, err := os.Open(s.path(userID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("open avatar: %w", err)
	}
	defer f.Close()

	src, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode stored avatar: %w", err)
	}

	dst := scale(src, size, true)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode avatar: %w", err)
	}

	return io.NopCloser(&buf), nil
}

// Remove deletes the user's avatar. Removing a missing avatar is not an error.
func (s *Store) Remove(userID string) error {
	if err := os.Remove(s.path(userID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove avatar: %w", err)
	}
	return nil
}

// scale resizes src so its longest edge equals max, preserving aspect
// ratio. Unless enlarge is set, images already within bounds are returned
// untouched.
func scale(src image.Image, max int, enlarge bool) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	if w == max && h <= max || h == max && w <= max {
		return src
	}
	if !enlarge && w <= max && h <= max {
		return src
	}

	var dw, dh int
	if w >= h {
		dw = max
		dh = h * max / w
	} else {
		dh = max
		dw = w * max / h
	}
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
