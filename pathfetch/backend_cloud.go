package pathfetch

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/Azure/azure-storage-blob-go/azblob"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/colinmarc/hdfs/v2"

	"github.com/tileflow/streamcore/cmn"
)

// S3Backend fetches s3:// URIs (bucket = host, key = path), mirroring the
// bucket/key split the teacher's multi-cloud backend registry uses one
// layer up the stack (ais/backend), but scoped here to a single
// GetObject call per fetch.
type S3Backend struct {
	client *s3.S3
}

func NewS3Backend(sess *session.Session) *S3Backend {
	return &S3Backend{client: s3.New(sess)}
}

func (b *S3Backend) FetchBytes(ctx context.Context, u *url.URL) ([]byte, error) {
	out, err := b.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(u.Host),
		Key:    aws.String(strings.TrimPrefix(u.Path, "/")),
	})
	if err != nil {
		return nil, cmn.NewIoError("s3 GetObject failed", err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, cmn.NewIoError("s3 body read failed", err)
	}
	return data, nil
}

// GCSBackend fetches gs:// URIs via the Cloud Storage client.
type GCSBackend struct {
	client *storage.Client
}

func NewGCSBackend(client *storage.Client) *GCSBackend {
	return &GCSBackend{client: client}
}

func (b *GCSBackend) FetchBytes(ctx context.Context, u *url.URL) ([]byte, error) {
	r, err := b.client.Bucket(u.Host).Object(strings.TrimPrefix(u.Path, "/")).NewReader(ctx)
	if err != nil {
		return nil, cmn.NewIoError("gcs NewReader failed", err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, cmn.NewIoError("gcs body read failed", err)
	}
	return data, nil
}

// AzureBackend fetches azblob:// URIs (host = container) via a
// pre-built container URL.
type AzureBackend struct {
	containerURL azblob.ContainerURL
}

func NewAzureBackend(containerURL azblob.ContainerURL) *AzureBackend {
	return &AzureBackend{containerURL: containerURL}
}

func (b *AzureBackend) FetchBytes(ctx context.Context, u *url.URL) ([]byte, error) {
	blobURL := b.containerURL.NewBlockBlobURL(strings.TrimPrefix(u.Path, "/"))
	resp, err := blobURL.Download(ctx, 0, azblob.CountToEnd, azblob.BlobAccessConditions{}, false, azblob.ClientProvidedKeyOptions{})
	if err != nil {
		return nil, cmn.NewIoError("azblob Download failed", err)
	}
	body := resp.Body(azblob.RetryReaderOptions{})
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, cmn.NewIoError("azblob body read failed", err)
	}
	return data, nil
}

// HDFSBackend fetches hdfs:// URIs via the one shared client it was
// constructed with. Only the URI's path is used; its host is not consulted
// and the client is never re-dialed.
type HDFSBackend struct {
	client *hdfs.Client
	host   string
}

func NewHDFSBackend(client *hdfs.Client, host string) *HDFSBackend {
	return &HDFSBackend{client: client, host: host}
}

func (b *HDFSBackend) FetchBytes(_ context.Context, u *url.URL) ([]byte, error) {
	f, err := b.client.Open(u.Path)
	if err != nil {
		return nil, cmn.NewIoError("hdfs Open failed", err)
	}
	defer f.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, f); err != nil {
		return nil, cmn.NewIoError("hdfs read failed", err)
	}
	return buf.Bytes(), nil
}
