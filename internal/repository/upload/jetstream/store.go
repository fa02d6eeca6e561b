package jetstream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/sharetube/watchtogether/internal/repository/upload"
)

const defaultContentType = "application/octet-stream"

type store struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	bucket jetstream.ObjectStore
}

// NewStore connects to NATS and opens the bucket, creating it on first use.
func NewStore(ctx context.Context, natsURL, bucketName string) (*store, error) {
	conn, err := nats.Connect(natsURL, nats.Name("watchtogether-uploads"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create jetstream context: %w", err)
	}

	bucket, err := js.ObjectStore(ctx, bucketName)
	if errors.Is(err, jetstream.ErrBucketNotFound) {
		bucket, err = js.CreateObjectStore(ctx, jetstream.ObjectStoreConfig{
			Bucket:      bucketName,
			Description: "Uploaded memory images",
		})
	}
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open object store bucket: %w", err)
	}

	return &store{conn: conn, js: js, bucket: bucket}, nil
}

func contentType(headers nats.Header) string {
	if headers != nil {
		if ct := headers.Get("Content-Type"); ct != "" {
			return ct
		}
	}

	return defaultContentType
}

func (s *store) Put(ctx context.Context, name string, data []byte, ct string) (*upload.ObjectInfo, error) {
	meta := jetstream.ObjectMeta{
		Name: name,
		Headers: nats.Header{
			"Content-Type": []string{ct},
		},
	}

	info, err := s.bucket.Put(ctx, meta, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to store object: %w", err)
	}

	return &upload.ObjectInfo{
		Name:        info.Name,
		Size:        info.Size,
		ContentType: ct,
		ModTime:     info.ModTime,
	}, nil
}

func (s *store) Get(ctx context.Context, name string) ([]byte, *upload.ObjectInfo, error) {
	result, err := s.bucket.Get(ctx, name)
	if err != nil {
		if errors.Is(err, jetstream.ErrObjectNotFound) {
			return nil, nil, upload.ErrObjectNotFound
		}
		return nil, nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer result.Close()

	data, err := io.ReadAll(result)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read object: %w", err)
	}

	info, err := result.Info()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get object info: %w", err)
	}

	return data, &upload.ObjectInfo{
		Name:        info.Name,
		Size:        info.Size,
		ContentType: contentType(info.Headers),
		ModTime:     info.ModTime,
	}, nil
}

func (s *store) Close() {
	s.conn.Close()
}
