package domain

import "time"

// AssetStatus enumerates source asset upload states.
type AssetStatus string

const (
	AssetStatusUploading AssetStatus = "uploading"
	AssetStatusReady     AssetStatus = "ready"
)

// SourceAsset is a user-supplied reference image used as the anchor for
// image-to-image generation. It starts life as an uploading placeholder and
// is promoted to ready once the remote media store returns a durable id.
type SourceAsset struct {
	ID            string
	URL           string
	RemoteMediaID string
	Status        AssetStatus
	Filename      string
	MIME          string
	Bytes         int64
	CreatedAt     time.Time
}

// Ready reports whether the asset can anchor a dispatch.
func (a SourceAsset) Ready() bool {
	return a.Status == AssetStatusReady
}
