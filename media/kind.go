package media

import "errors"

// Errors returned by openers and the loader.
var (
	// ErrUnsupported is returned for sources that are not a supported
	// image or video format.
	ErrUnsupported = errors.New("media: unsupported format")

	// ErrNotFound is returned for unknown or revoked blob locators.
	ErrNotFound = errors.New("media: source not found")

	// ErrNoVideoStream is returned for containers without a video stream.
	ErrNoVideoStream = errors.New("media: no video stream")

	// ErrEmptyImage is returned for sources that decode to zero pixels.
	ErrEmptyImage = errors.New("media: empty image")

	// ErrAutoplayBlocked is returned by policies that refuse playback
	// before a user gesture.
	ErrAutoplayBlocked = errors.New("media: autoplay blocked")
)

// Kind is the media type of a locator.
type Kind int

const (
	// KindImage is a still image.
	KindImage Kind = iota

	// KindVideo is a looping video.
	KindVideo
)

// String returns the kind name.
func (k Kind) String() string {
	if k == KindVideo {
		return "video"
	}
	return "image"
}

// Status is the outcome of Loader.Acquire.
type Status int

const (
	// Pending means the source is being decoded. The layer is skipped.
	Pending Status = iota

	// Ready means the node can be drawn.
	Ready

	// Failed means the source could not be loaded. It is not retried until
	// its locator is evicted.
	Failed
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "pending"
	}
}
