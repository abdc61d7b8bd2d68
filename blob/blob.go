// Package blob stores user avatars in S3-compatible object storage.
package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// allowedImageTypes are the avatar content types accepted for upload.
// Detection is done on the bytes, not the client-supplied header.
var allowedImageTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Store wraps a MinIO client bound to a single bucket.
type Store struct {
	cli       *minio.Client
	bucket    string
	publicURL string
}

// New connects to the object storage endpoint and ensures the bucket exists.
func New(ctx context.Context, endpoint, accessKey, secretKey, bucket, publicURL string, secure bool) (*Store, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("creating object storage client : %w", err)
	}

	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("checking bucket %s : %w", bucket, err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("creating bucket %s : %w", bucket, err)
		}
	}

	return &Store{cli: cli, bucket: bucket, publicURL: publicURL}, nil
}

// SniffImage detects the content type of data and returns it with the
// canonical file extension. It returns an error when the bytes are not one of
// the allowed image formats.
func SniffImage(data []byte) (contentType, ext string, err error) {
	detected := mimetype.Detect(data)
	ext, ok := allowedImageTypes[detected.String()]
	if !ok {
		return "", "", fmt.Errorf("unsupported avatar type %s", detected.String())
	}
	return detected.String(), ext, nil
}

// UploadAvatar validates and stores an avatar image for the user, returning
// the object key. A user's previous avatar is overwritten since keys are
// derived from the user ID.
func (s *Store) UploadAvatar(ctx context.Context, userID uuid.UUID, data []byte) (string, error) {
	contentType, ext, err := SniffImage(data)
	if err != nil {
		return "", err
	}

	key := path.Join("avatars", userID.String()+ext)
	_, err = s.cli.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("uploading avatar %s : %w", key, err)
	}

	return key, nil
}

// Remove deletes the object with the given key. Removing a missing key is not an error.
func (s *Store) Remove(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	err := s.cli.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("removing object %s : %w", key, err)
	}
	return nil
}

// Fetch reads the object with the given key into memory.
func (s *Store) Fetch(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.cli.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("fetching object %s : %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("reading object %s : %w", key, err)
	}
	return data, nil
}

// PublicURL returns the externally reachable URL for an object key, or the
// empty string when the key is empty.
func (s *Store) PublicURL(key string) string {
	if key == "" {
		return ""
	}
	return strings.TrimRight(s.publicURL, "/") + "/" + path.Join(s.bucket, key)
}
