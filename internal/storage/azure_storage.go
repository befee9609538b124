package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"net/url"
	"strings"

	apperrors "go-image-compressor/internal/errors"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// AzureImageStore keeps PNG-encoded images as blobs in one container
type AzureImageStore struct {
	client    *azblob.Client
	container string
}

// NewAzureImageStore connects with a shared key credential
func NewAzureImageStore(accountName, accountKey, container string) (*AzureImageStore, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid azure credentials", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to create azure client", err)
	}

	return NewAzureImageStoreFromClient(client, container), nil
}

// NewAzureImageStoreFromClient wraps an existing client, e.g. one built from
// a connection string.
func NewAzureImageStoreFromClient(client *azblob.Client, container string) *AzureImageStore {
	return &AzureImageStore{client: client, container: container}
}

// EnsureContainer creates the container unless it already exists
func (s *AzureImageStore) EnsureContainer(ctx context.Context) error {
	_, err := s.client.CreateContainer(ctx, s.container, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return apperrors.NewNetworkError("failed to create container", err).WithDetails("container %s", s.container)
	}
	return nil
}

func (s *AzureImageStore) SaveImage(ctx context.Context, name string, img image.Image) (string, error) {
	if name == "" {
		return "", apperrors.NewValidationError("blob name is required", nil)
	}
	if !strings.HasSuffix(strings.ToLower(name), ".png") {
		name += ".png"
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", apperrors.NewInternalError("failed to encode image", err)
	}

	contentType := "image/png"
	_, err := s.client.UploadBuffer(ctx, s.container, name, buf.Bytes(), &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return "", apperrors.NewNetworkError("upload failed", err).WithDetails("blob %s/%s", s.container, name)
	}
	return strings.TrimSuffix(s.client.URL(), "/") + "/" + s.container + "/" + name, nil
}

func (s *AzureImageStore) LoadImage(ctx context.Context, name string) (image.Image, error) {
	return s.download(ctx, s.container, name)
}

// FetchImage downloads a blob addressed by its full URL,
// https://<account>.blob.core.windows.net/<container>/<blob>.
func (s *AzureImageStore) FetchImage(ctx context.Context, blobURL string) (image.Image, error) {
	container, name, err := parseBlobURL(blobURL)
	if err != nil {
		return nil, err
	}
	return s.download(ctx, container, name)
}

func (s *AzureImageStore) download(ctx context.Context, container, name string) (image.Image, error) {
	resp, err := s.client.DownloadStream(ctx, container, name, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, apperrors.NewNotFoundError("blob not found", err).WithDetails("blob %s/%s", container, name)
		}
		return nil, apperrors.NewNetworkError("download failed", err)
	}

	body := resp.Body
	defer body.Close()

	img, _, err := image.Decode(body)
	if err != nil {
		return nil, apperrors.NewInvalidInputError("failed to decode blob", err)
	}
	return img, nil
}

func parseBlobURL(blobURL string) (string, string, error) {
	parsed, err := url.Parse(blobURL)
	if err != nil {
		return "", "", apperrors.NewValidationError("invalid blob URL", err)
	}
	container, name, ok := strings.Cut(strings.TrimPrefix(parsed.Path, "/"), "/")
	if !ok || container == "" || name == "" {
		return "", "", apperrors.NewValidationError("blob URL must name a container and a blob", nil).
			WithDetails("%s", blobURL)
	}
	return container, name, nil
}
