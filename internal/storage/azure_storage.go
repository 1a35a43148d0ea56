package storage

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
)

type blobUploader interface {
	UploadBuffer(ctx context.Context, containerName string, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error)
}

// AzureBlobSink writes each record as a JSON blob
type AzureBlobSink struct {
	client    blobUploader
	container string
}

func NewAzureBlobSink(accountName, accountKey, container string) (*AzureBlobSink, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("azure client: %w", err)
	}

	return &AzureBlobSink{client: client, container: container}, nil
}

func (s *AzureBlobSink) Capture(ctx context.Context, rec DiagnosticRecord) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	_, err = s.client.UploadBuffer(ctx, s.container, rec.ObjectKey(""), data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: to.Ptr("application/json")},
	})
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	return nil
}

func (s *AzureBlobSink) Name() string { return "azure" }

func (s *AzureBlobSink) Close() error { return nil }
