package media

// Autoplay decides whether a video may start playing.
//
// userGesture is true once the host reported a user interaction through
// Loader.ResumePlayback.
type Autoplay interface {
	Permit(locator string, userGesture bool) error
}

// AutoplayFunc adapts a function to the Autoplay interface.
type AutoplayFunc func(locator string, userGesture bool) error

// Permit implements Autoplay.
func (f AutoplayFunc) Permit(locator string, userGesture bool) error {
	return f(locator, userGesture)
}

var (
	// AllowAutoplay starts every video immediately.
	AllowAutoplay Autoplay = AutoplayFunc(func(string, bool) error { return nil })

	// RequireGesture holds videos until the first user gesture.
	RequireGesture Autoplay = AutoplayFunc(func(_ string, userGesture bool) error {
		if !userGesture {
			return ErrAutoplayBlocked
		}
		return nil
	})
)
