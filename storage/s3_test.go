package storage

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 keeps objects in memory and pages listings two keys at a time
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeS3() *fakeS3 { return &fakeS3{objects: map[string][]byte{}} }

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = b
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) CopyObject(ctx context.Context, in *s3.CopyObjectInput, _ ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
	src := aws.ToString(in.CopySource)
	_, escaped, _ := strings.Cut(src, "/")
	key, err := url.PathUnescape(escaped)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	f.objects[aws.ToString(in.Key)] = b
	return &s3.CopyObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	prefix := aws.ToString(in.Prefix)
	var keys []string
	for k := range f.objects {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		if d := aws.ToString(in.Delimiter); d != "" && strings.Contains(strings.TrimPrefix(k, prefix), d) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	start := 0
	if tok := aws.ToString(in.ContinuationToken); tok != "" {
		for i, k := range keys {
			if k == tok {
				start = i
				break
			}
		}
	}
	end := start + 2
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	if end < len(keys) {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(keys[end])
	} else {
		end = len(keys)
	}
	for _, k := range keys[start:end] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func TestS3Storage_RoundTrip(t *testing.T) {
	s := newS3StorageWithClient(newFakeS3(), "docs")
	ctx := context.Background()

	require.NoError(t, s.Upload(ctx, "alice_notes.txt", strings.NewReader("hello")))
	assert.Equal(t, "hello", readAll(t, s, "alice_notes.txt"))

	ok, err := s.Exists(ctx, "alice_notes.txt")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Exists(ctx, "ghost.txt")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Download(ctx, "ghost.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestS3Storage_ListPagesAndSkipsNested(t *testing.T) {
	s := newS3StorageWithClient(newFakeS3(), "docs")
	ctx := context.Background()

	for _, k := range []string{"alice_c.txt", "alice_a.txt", "alice_b.txt", "bob_a.txt", "staging/alice_x"} {
		require.NoError(t, s.Upload(ctx, k, strings.NewReader(k)))
	}

	keys, err := s.List(ctx, "alice_")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice_a.txt", "alice_b.txt", "alice_c.txt"}, keys)
}

func TestS3Storage_Move(t *testing.T) {
	fake := newFakeS3()
	s := newS3StorageWithClient(fake, "docs")
	ctx := context.Background()

	require.NoError(t, s.Upload(ctx, "staging/123", strings.NewReader("a b c d")))
	require.NoError(t, s.Move(ctx, "staging/123", "bob_notes.txt"))

	assert.Equal(t, "a b c d", readAll(t, s, "bob_notes.txt"))
	_, still := fake.objects["staging/123"]
	assert.False(t, still)

	assert.ErrorIs(t, s.Move(ctx, "staging/none", "x.txt"), ErrNotFound)
}

func TestNewStorage(t *testing.T) {
	ctx := context.Background()

	st, err := NewStorage(ctx, StorageConfig{Type: StorageTypeLocal, LocalPath: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, st)

	_, err = NewStorage(ctx, StorageConfig{Type: StorageTypeS3})
	assert.Error(t, err)

	_, err = NewStorage(ctx, StorageConfig{Type: "ftp"})
	assert.ErrorContains(t, err, "unknown storage type")
}
