package imageset

import "errors"

// ErrImageNotFound means the image service has no image set for the id.
var ErrImageNotFound = errors.New("image set not found")
