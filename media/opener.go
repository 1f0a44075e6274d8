package media

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"os"
	"strings"

	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// Opener turns locators into decodable sources. Methods are called from
// decode goroutines and must be safe for concurrent use.
type Opener interface {
	// OpenImage decodes a still image.
	OpenImage(locator string) (image.Image, error)

	// OpenVideo opens a video for frame-by-frame decoding.
	OpenVideo(locator string) (VideoSource, error)
}

// Revoker is implemented by openers that hold resources per locator.
// The loader calls Revoke when it evicts a locator.
type Revoker interface {
	Revoke(locator string)
}

// VideoSource decodes the frames of one video in order.
type VideoSource interface {
	// NextFrame returns the next frame, or io.EOF after the last one.
	NextFrame() (*image.RGBA, error)

	// Rewind restarts decoding from the first frame.
	Rewind() error

	// FrameRate returns the nominal frames per second, 0 when unknown.
	FrameRate() float64

	// Close releases the decoder.
	Close() error
}

// FileOpener opens file paths, file:// URLs and blob: locators.
type FileOpener struct {
	// Blobs resolves blob: locators. Nil disables them.
	Blobs *Blobs
}

// NewFileOpener returns an opener backed by blobs.
func NewFileOpener(blobs *Blobs) *FileOpener {
	return &FileOpener{Blobs: blobs}
}

// OpenImage implements Opener.
func (o *FileOpener) OpenImage(locator string) (image.Image, error) {
	data, err := o.read(locator)
	if err != nil {
		return nil, err
	}
	if !filetype.IsImage(data) {
		return nil, fmt.Errorf("%w: %s is not an image", ErrUnsupported, locator)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("media: decode %s: %w", locator, err)
	}
	return img, nil
}

// OpenVideo implements Opener. Blob videos are spooled to a temporary file
// that is removed when the source is closed.
func (o *FileOpener) OpenVideo(locator string) (VideoSource, error) {
	if IsBlob(locator) {
		data, err := o.blob(locator)
		if err != nil {
			return nil, err
		}
		if !filetype.IsVideo(data) {
			return nil, fmt.Errorf("%w: %s is not a video", ErrUnsupported, locator)
		}
		return openSpooled(data)
	}

	path := Path(locator)
	head, err := readHead(path)
	if err != nil {
		return nil, err
	}
	if !filetype.IsVideo(head) {
		return nil, fmt.Errorf("%w: %s is not a video", ErrUnsupported, locator)
	}
	return openVideoFile(path, nil)
}

// Revoke implements Revoker by releasing blob data.
func (o *FileOpener) Revoke(locator string) {
	if o.Blobs != nil && IsBlob(locator) {
		o.Blobs.Revoke(locator)
	}
}

func (o *FileOpener) read(locator string) ([]byte, error) {
	if IsBlob(locator) {
		return o.blob(locator)
	}
	data, err := os.ReadFile(Path(locator))
	if err != nil {
		return nil, fmt.Errorf("media: read %s: %w", locator, err)
	}
	return data, nil
}

func (o *FileOpener) blob(locator string) ([]byte, error) {
	if o.Blobs == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, locator)
	}
	data, ok := o.Blobs.Lookup(locator)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, locator)
	}
	return data, nil
}

// Path returns the file path of a locator. file:// URLs lose their scheme;
// anything else is taken as a path.
func Path(locator string) string {
	return strings.TrimPrefix(locator, "file://")
}

// readHead reads the bytes filetype needs to sniff a container.
func readHead(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("media: open %s: %w", path, err)
	}
	defer f.Close()

	head := make([]byte, 262)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("media: read %s: %w", path, err)
	}
	return head[:n], nil
}

func openSpooled(data []byte) (VideoSource, error) {
	f, err := os.CreateTemp("", "aether-blob-*")
	if err != nil {
		return nil, fmt.Errorf("media: spool blob: %w", err)
	}
	name := f.Name()
	_, werr := f.Write(data)
	cerr := f.Close()
	if werr != nil || cerr != nil {
		os.Remove(name)
		return nil, fmt.Errorf("media: spool blob: %w", firstErr(werr, cerr))
	}
	return openVideoFile(name, func() { os.Remove(name) })
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

var _ Revoker = (*FileOpener)(nil)
