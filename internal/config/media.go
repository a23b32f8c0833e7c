package config

import "os"

// MediaConfig describes the S3-compatible bucket that stores avatars, cover
// images, thumbnails and video files, plus the local scratch directory used
// for multipart uploads before they are pushed to the bucket.
type MediaConfig struct {
	Bucket        string // S3_BUCKET
	Region        string // S3_REGION
	Endpoint      string // S3_ENDPOINT; empty uses the AWS default resolver
	AccessKey     string // S3_ACCESS_KEY
	SecretKey     string // S3_SECRET_KEY
	UsePathStyle  bool   // S3_USE_PATH_STYLE, required by MinIO
	PublicBaseURL string // MEDIA_PUBLIC_BASE_URL; prefix of returned URLs
	TempDir       string // MEDIA_TEMP_DIR
	MaxImageWidth int    // MEDIA_MAX_IMAGE_WIDTH; wider images are downscaled
	MaxUploadMB   int    // MEDIA_MAX_UPLOAD_MB; request body limit for multipart routes
}

func LoadMediaConfig() MediaConfig {
	return MediaConfig{
		Bucket:        envStr("S3_BUCKET", "vidtube"),
		Region:        envStr("S3_REGION", "us-east-1"),
		Endpoint:      envStr("S3_ENDPOINT", ""),
		AccessKey:     envStr("S3_ACCESS_KEY", ""),
		SecretKey:     envStr("S3_SECRET_KEY", ""),
		UsePathStyle:  envBool("S3_USE_PATH_STYLE", false),
		PublicBaseURL: envStr("MEDIA_PUBLIC_BASE_URL", ""),
		TempDir:       envStr("MEDIA_TEMP_DIR", os.TempDir()),
		MaxImageWidth: envInt("MEDIA_MAX_IMAGE_WIDTH", 1920),
		MaxUploadMB:   envInt("MEDIA_MAX_UPLOAD_MB", 512),
	}
}
