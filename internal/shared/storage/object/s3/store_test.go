package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"documind-backend/internal/shared/storage/object"
)

type fakeS3 struct {
	objects map[string][]byte
	inputs  []*s3.PutObjectInput
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	f.inputs = append(f.inputs, in)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "invoice/file.png", want: "invoice/file.png"},
		{name: "simple prefix", prefix: "archive", key: "invoice/file.png", want: "archive/invoice/file.png"},
		{name: "prefix trailing slash", prefix: "archive/", key: "invoice/file.png", want: "archive/invoice/file.png"},
		{name: "prefix and key slashes", prefix: "/archive/", key: "/invoice/file.png", want: "archive/invoice/file.png"},
		{name: "empty key", prefix: "archive", key: "", want: "archive"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}

func TestSaveOpenDeleteWithPrefix(t *testing.T) {
	fake := newFakeS3()
	store := newWithClient(fake, "docs", "/archive/", "")
	ctx := context.Background()

	key, size, mimeType, err := store.Save(ctx, "email", "note.txt", strings.NewReader("Subject: hello"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(key, "email/") {
		t.Fatalf("unexpected key %q", key)
	}
	if size != int64(len("Subject: hello")) {
		t.Fatalf("unexpected size %d", size)
	}
	if !strings.HasPrefix(mimeType, "text/plain") {
		t.Fatalf("unexpected mime %q", mimeType)
	}
	if _, ok := fake.objects["archive/"+key]; !ok {
		t.Fatalf("expected prefixed object key, have %v", fake.objects)
	}
	if fake.inputs[0].ServerSideEncryption != s3types.ServerSideEncryptionAes256 {
		t.Fatalf("expected AES256 SSE without kms key")
	}

	rc, err := store.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	rc.Close()

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Open(ctx, key); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveUsesKMSWhenConfigured(t *testing.T) {
	fake := newFakeS3()
	store := newWithClient(fake, "docs", "", "kms-123")
	if _, _, _, err := store.Save(context.Background(), "invoice", "a.png", strings.NewReader("x")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	in := fake.inputs[0]
	if in.ServerSideEncryption != s3types.ServerSideEncryptionAwsKms || aws.ToString(in.SSEKMSKeyId) != "kms-123" {
		t.Fatalf("expected kms encryption, got %v", in.ServerSideEncryption)
	}
}

func TestPresignGetUsesEndpointAndPrefix(t *testing.T) {
	cfg := aws.Config{
		Region:      "us-east-1",
		Credentials: aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider("AKID", "SECRET", "")),
	}
	store := newFromConfig(cfg, Options{
		Bucket:       "docs",
		Prefix:       "archive",
		Endpoint:     "http://minio.local:9000",
		UsePathStyle: true,
	})

	raw, err := store.PresignGet(context.Background(), "invoice/abc_bill.png", 5*time.Minute)
	if err != nil {
		t.Fatalf("PresignGet: %v", err)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if parsed.Host != "minio.local:9000" {
		t.Fatalf("expected custom endpoint host, got %q", parsed.Host)
	}
	if parsed.Path != "/docs/archive/invoice/abc_bill.png" {
		t.Fatalf("unexpected path %q", parsed.Path)
	}
	if parsed.Query().Get("X-Amz-Expires") != "300" {
		t.Fatalf("expected 300s expiry, got %q", parsed.Query().Get("X-Amz-Expires"))
	}
}

func TestPresignGetWithoutPresigner(t *testing.T) {
	store := newWithClient(newFakeS3(), "docs", "", "")
	if _, err := store.PresignGet(context.Background(), "k", time.Minute); err == nil {
		t.Fatalf("expected error without presigner")
	}
}
