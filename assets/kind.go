package assets

import (
	"path/filepath"
	"strings"
)

// Kind classifies an asset by its file extension.
type Kind string

const (
	KindModel Kind = "model"
	KindImage Kind = "image"
	KindVideo Kind = "video"
	KindHDR   Kind = "hdr"
	KindOther Kind = "other"
)

var kindByExtension = map[string]Kind{
	".gltf": KindModel,
	".glb":  KindModel,
	".obj":  KindModel,
	".fbx":  KindModel,
	".stl":  KindModel,
	".jpg":  KindImage,
	".jpeg": KindImage,
	".png":  KindImage,
	".webp": KindImage,
	".gif":  KindImage,
	".mp4":  KindVideo,
	".webm": KindVideo,
	".mov":  KindVideo,
	".hdr":  KindHDR,
	".exr":  KindHDR,
}

// KindOf returns the kind for a file name, case-insensitively.
func KindOf(fileName string) Kind {
	if kind, ok := kindByExtension[strings.ToLower(filepath.Ext(strings.TrimSpace(fileName)))]; ok {
		return kind
	}
	return KindOther
}
