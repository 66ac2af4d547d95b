package supabase

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
	storage "github.com/supabase-community/storage-go"
)

// StorageClient stores uploaded media in a Supabase Storage bucket. It is
// the alternative blob-store backend to the local disk store; the returned
// location is the object path within the bucket.
type StorageClient struct {
	client *storage.Client
	bucket string
}

func NewStorageClient(supabaseURL, publishableKey, bucket string) (*StorageClient, error) {
	baseURL := strings.TrimSuffix(supabaseURL, "/")
	client := storage.NewClient(baseURL+"/storage/v1", publishableKey, nil)

	return &StorageClient{
		client: client,
		bucket: bucket,
	}, nil
}

func (s *StorageClient) Put(data []byte, fileName string) (string, error) {
	// Object path: media/{upload_uuid}/{filename}
	location := fmt.Sprintf("media/%s/%s", uuid.New().String(), fileName)

	contentType := "application/octet-stream"
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		contentType = kind.MIME.Value
	}

	upsert := false
	_, err := s.client.UploadFile(s.bucket, location, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	return location, nil
}

func (s *StorageClient) Delete(location string) error {
	_, err := s.client.RemoveFile(s.bucket, []string{location})
	return err
}
