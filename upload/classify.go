package upload

import "github.com/rise-and-shine/voiceout/filestore"

// Classify maps an extension (without dot) to a resource kind.
// Audio is grouped with video, as players handle both.
func Classify(ext string) filestore.Kind {
	switch ext {
	case "mp3", "mp4", "m4a", "wav", "avi", "mkv", "mov":
		return filestore.KindVideo
	case "jpeg", "jpg", "png", "gif":
		return filestore.KindImage
	default:
		return filestore.KindRaw
	}
}
