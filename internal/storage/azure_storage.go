package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/google/uuid"
)

type azureStorage struct {
	client    *azblob.Client
	container string
}

// NewAzureStorage creates a blob-backed image store in the given container.
func NewAzureStorage(accountName, accountKey, container string) (ImageStore, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, err
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, err
	}

	return &azureStorage{client: client, container: container}, nil
}

func (s *azureStorage) Save(ctx context.Context, data []byte, filename string) (string, error) {
	key := uuid.NewString() + sanitizeExt(filename)
	if _, err := s.client.UploadBuffer(ctx, s.container, key, data, nil); err != nil {
		return "", fmt.Errorf("upload blob: %w", err)
	}
	return key, nil
}

func (s *azureStorage) Read(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.client.DownloadStream(ctx, s.container, key, nil)
	if err != nil {
		if isBlobNotFound(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("download blob: %w", err)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (s *azureStorage) Path(key string) string {
	return s.container + "/" + key
}

func (s *azureStorage) Delete(ctx context.Context, key string) error {
	if _, err := s.client.DeleteBlob(ctx, s.container, key, nil); err != nil {
		if isBlobNotFound(err) {
			return ErrObjectNotFound
		}
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

func isBlobNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "BlobNotFound")
}
