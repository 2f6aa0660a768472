package enums

import (
	"fmt"
	"strings"
)

// MediaKind says what an upload is for. The media service derives the
// object prefix and the accepted content types from it.
type MediaKind string

const (
	MediaKindSermonVideo     MediaKind = "sermon_video"
	MediaKindSermonThumbnail MediaKind = "sermon_thumbnail"
	MediaKindBlogImage       MediaKind = "blog_image"
	MediaKindEventImage      MediaKind = "event_image"
	MediaKindAvatar          MediaKind = "avatar"
)

var mediaKinds = map[MediaKind]struct{}{
	MediaKindSermonVideo:     {},
	MediaKindSermonThumbnail: {},
	MediaKindBlogImage:       {},
	MediaKindEventImage:      {},
	MediaKindAvatar:          {},
}

func (k MediaKind) String() string { return string(k) }

func (k MediaKind) IsValid() bool {
	_, ok := mediaKinds[k]
	return ok
}

// IsImage is true for every kind except sermon video.
func (k MediaKind) IsImage() bool {
	return k.IsValid() && k != MediaKindSermonVideo
}

// ParseMediaKind accepts the wire value case-insensitively.
func ParseMediaKind(value string) (MediaKind, error) {
	kind := MediaKind(strings.ToLower(strings.TrimSpace(value)))
	if !kind.IsValid() {
		return "", fmt.Errorf("invalid media kind %q", value)
	}
	return kind, nil
}
