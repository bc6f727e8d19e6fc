package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/RubachokBoss/student-portal/pkg/hash"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type object struct {
	body        []byte
	contentType string
	meta        map[string]string
}

type fakeStorage struct {
	mu       sync.Mutex
	objects  map[string]object
	failures map[string]int
	puts     int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string]object{}, failures: map[string]int{}}
}

func (s *fakeStorage) PutObject(_ context.Context, key string, r io.Reader, _ int64, contentType string, meta map[string]string) error {
	body, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	if s.failures[meta["original-name"]] > 0 {
		s.failures[meta["original-name"]]--
		return errors.New("connection reset")
	}
	s.objects[key] = object{body: body, contentType: contentType, meta: meta}
	return nil
}

func (s *fakeStorage) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok, nil
}

func newStorageTransport(t *testing.T, storage *fakeStorage, retries int) *StorageTransport {
	t.Helper()
	hasher, err := hash.NewHasher("sha256")
	require.NoError(t, err)
	return NewStorageTransport(storage, hasher, StorageTransportConfig{
		RetryCount:  retries,
		RetryDelay:  time.Millisecond,
		FileTimeout: time.Second,
	}, zerolog.Nop())
}

func TestSimulatedTransportSteps(t *testing.T) {
	var seen []int
	err := NewSimulatedTransport(4, 0).Upload(context.Background(), UploadRequest{}, func(p int) { seen = append(seen, p) })
	require.NoError(t, err)
	assert.Equal(t, []int{25, 50, 75, 100}, seen)
}

func TestSimulatedTransportCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewSimulatedTransport(20, time.Hour).Upload(ctx, UploadRequest{}, func(int) {})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStorageTransportStoresContentAddressed(t *testing.T) {
	storage := newFakeStorage()
	tr := newStorageTransport(t, storage, 0)
	files := descriptors("a.pdf", "b.png")
	files[0].Extension, files[1].Extension = "pdf", "png"

	var seen []int
	err := tr.Upload(context.Background(), UploadRequest{StudentID: "42", Course: "net", Files: files}, func(p int) { seen = append(seen, p) })
	require.NoError(t, err)

	hasher, _ := hash.NewHasher("sha256")
	key := ObjectKey("42", hasher.Calculate([]byte("content of a.pdf")), "pdf")
	obj, ok := storage.objects[key]
	require.True(t, ok, key)
	assert.Equal(t, "application/pdf", obj.contentType)
	assert.Equal(t, "a.pdf", obj.meta["original-name"])
	assert.Equal(t, "net", obj.meta["course"])
	assert.Len(t, storage.objects, 2)
	require.NotEmpty(t, seen)
	assert.Equal(t, 100, seen[len(seen)-1])
}

func TestStorageTransportSkipsStoredObjects(t *testing.T) {
	storage := newFakeStorage()
	tr := newStorageTransport(t, storage, 0)
	req := UploadRequest{StudentID: "42", Files: descriptors("a.pdf")}

	require.NoError(t, tr.Upload(context.Background(), req, func(int) {}))
	require.NoError(t, tr.Upload(context.Background(), req, func(int) {}))
	assert.Equal(t, 1, storage.puts)
}

func TestStorageTransportRetries(t *testing.T) {
	storage := newFakeStorage()
	storage.failures["a.pdf"] = 2
	tr := newStorageTransport(t, storage, 2)

	err := tr.Upload(context.Background(), UploadRequest{StudentID: "42", Files: descriptors("a.pdf")}, func(int) {})
	require.NoError(t, err)
	assert.Equal(t, 3, storage.puts)
}

func TestStorageTransportReportsPartialBatch(t *testing.T) {
	storage := newFakeStorage()
	storage.failures["b.pdf"] = 10
	tr := newStorageTransport(t, storage, 1)

	err := tr.Upload(context.Background(), UploadRequest{StudentID: "42", Files: descriptors("a.pdf", "b.pdf", "c.pdf")}, func(int) {})

	var batchErr *BatchError
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, []string{"a.pdf"}, batchErr.Uploaded)
	assert.Equal(t, "b.pdf", batchErr.Failed)
	assert.Len(t, storage.objects, 1)
}

func TestStorageTransportThroughPipeline(t *testing.T) {
	storage := newFakeStorage()
	p := NewPipeline(newStorageTransport(t, storage, 0), nil, zerolog.Nop())
	rec := &progressRecorder{}
	p.OnProgress(rec.record)
	require.NoError(t, p.Select(descriptors("a.pdf", "b.docx", "c.zip")))

	run, err := p.Begin("42", "net")
	require.NoError(t, err)
	require.NoError(t, run.Execute(context.Background()))

	seen := rec.percents()
	for i := 1; i < len(seen); i++ {
		assert.GreaterOrEqual(t, seen[i], seen[i-1])
	}
	assert.Equal(t, 100, seen[len(seen)-1])
	assert.Empty(t, p.Staged())
	assert.Len(t, storage.objects, 3)
}

func TestObjectKeyAndContentType(t *testing.T) {
	assert.Equal(t, "submissions/7/abc.pdf", ObjectKey("7", "abc", "pdf"))
	assert.Equal(t, "submissions/anonymous/abc", ObjectKey("", "abc", ""))
	assert.Equal(t, "image/jpeg", ContentType("JPG"))
	assert.Equal(t, "application/octet-stream", ContentType("bin"))
}
