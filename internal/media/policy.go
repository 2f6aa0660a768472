package media

import (
	"fmt"

	"github.com/angelmondragon/churchhub-backend/pkg/enums"
	"github.com/gabriel-vasile/mimetype"
)

var (
	imageTypes = []string{"image/png", "image/jpeg", "image/webp", "image/gif"}
	videoTypes = []string{"video/mp4", "video/webm", "video/quicktime"}
)

// policy is what a media kind may contain, where it is stored and who may manage it.
type policy struct {
	prefix     string
	label      string
	types      []string
	permission enums.AdminPermission
}

var policies = map[enums.MediaKind]policy{
	enums.MediaKindSermonVideo:     newPolicy(enums.MediaKindSermonVideo, "sermons/videos", enums.PermissionManageSermons),
	enums.MediaKindSermonThumbnail: newPolicy(enums.MediaKindSermonThumbnail, "sermons/thumbnails", enums.PermissionManageSermons),
	enums.MediaKindBlogImage:       newPolicy(enums.MediaKindBlogImage, "blogs", enums.PermissionManageContent),
	enums.MediaKindEventImage:      newPolicy(enums.MediaKindEventImage, "events", enums.PermissionManageContent),
	enums.MediaKindAvatar:          newPolicy(enums.MediaKindAvatar, "avatars", ""),
}

func newPolicy(kind enums.MediaKind, prefix string, permission enums.AdminPermission) policy {
	if kind.IsImage() {
		return policy{prefix: prefix, label: "images", types: imageTypes, permission: permission}
	}
	return policy{prefix: prefix, label: "videos", types: videoTypes, permission: permission}
}

// accepts matches the sniffed type, or any of its aliases, against the allow list.
func (p policy) accepts(detected *mimetype.MIME) bool {
	for _, t := range p.types {
		if detected.Is(t) {
			return true
		}
	}
	return false
}

func (p policy) rejection(kind enums.MediaKind, got string) string {
	return fmt.Sprintf("%s uploads must be %s, got %s", kind, p.label, got)
}

// PermissionFor names the admin capability needed to manage media of kind. Avatars need none.
func PermissionFor(kind enums.MediaKind) (enums.AdminPermission, bool) {
	p, ok := policies[kind]
	return p.permission, ok && p.permission != ""
}
