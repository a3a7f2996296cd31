package storage

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Uploader handles avatar and listing image uploads to AWS S3
type S3Uploader struct {
	client  *s3.Client
	bucket  string
	region  string
	baseURL string
}

// UploadResult contains the result of an S3 upload
type UploadResult struct {
	Key    string `json:"key"`
	URL    string `json:"url"`
	Bucket string `json:"bucket"`
	Size   int64  `json:"size"`
}

// NewS3Uploader creates a new S3 uploader
func NewS3Uploader(region, bucket, baseURL string) (*S3Uploader, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3Uploader{
		client:  s3.NewFromConfig(cfg),
		bucket:  bucket,
		region:  region,
		baseURL: baseURL,
	}, nil
}

// UploadAvatar uploads a profile picture and returns its public URL.
// Keys are organized as avatars/{userID}/{fileID}{ext}.
func (u *S3Uploader) UploadAvatar(ctx context.Context, data []byte, userID, originalFilename string) (*UploadResult, error) {
	return u.upload(ctx, data, originalFilename, fmt.Sprintf("avatars/%s/%s", userID, uuid.New().String()))
}

// UploadListingImage uploads a product image for a listing.
// Keys are organized as listings/{year}/{month}/{sellerID}/{fileID}{ext}.
func (u *S3Uploader) UploadListingImage(ctx context.Context, data []byte, sellerID, originalFilename string) (*UploadResult, error) {
	now := time.Now()
	prefix := fmt.Sprintf("listings/%d/%02d/%s/%s", now.Year(), now.Month(), sellerID, uuid.New().String())
	return u.upload(ctx, data, originalFilename, prefix)
}

func (u *S3Uploader) upload(ctx context.Context, data []byte, originalFilename, keyPrefix string) (*UploadResult, error) {
	extension := strings.ToLower(filepath.Ext(originalFilename))
	if extension == "" {
		extension = ".jpg"
	}
	key := keyPrefix + extension

	putObjectInput := &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentTypeFor(extension)),

		// Images are immutable once uploaded; new uploads get new keys
		CacheControl: aws.String("max-age=86400"),

		Metadata: map[string]string{
			"original-filename": originalFilename,
			"upload-timestamp":  time.Now().Format(time.RFC3339),
		},
	}

	if _, err := u.client.PutObject(ctx, putObjectInput); err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	publicURL := fmt.Sprintf("%s/%s", strings.TrimSuffix(u.baseURL, "/"), key)

	return &UploadResult{
		Key:    key,
		URL:    publicURL,
		Bucket: u.bucket,
		Size:   int64(len(data)),
	}, nil
}

// CheckBucketAccess verifies the bucket is reachable with the current
// credentials.
func (u *S3Uploader) CheckBucketAccess(ctx context.Context) error {
	_, err := u.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(u.bucket),
	})
	if err != nil {
		return fmt.Errorf("bucket %s not accessible: %w", u.bucket, err)
	}
	return nil
}

// contentTypeFor maps an image extension to its MIME type
func contentTypeFor(extension string) string {
	switch extension {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
