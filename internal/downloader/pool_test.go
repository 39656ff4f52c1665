package downloader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"coversync/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockClient is a mock cover fetcher
type MockClient struct {
	downloadDelay   time.Duration
	downloadError   error
	downloadCounter int32
	inFlight        int32
	maxInFlight     int32
}

func (m *MockClient) FetchBinary(ctx context.Context, url string) ([]byte, error) {
	atomic.AddInt32(&m.downloadCounter, 1)
	n := atomic.AddInt32(&m.inFlight, 1)
	defer atomic.AddInt32(&m.inFlight, -1)
	for {
		peak := atomic.LoadInt32(&m.maxInFlight)
		if n <= peak || atomic.CompareAndSwapInt32(&m.maxInFlight, peak, n) {
			break
		}
	}

	if m.downloadDelay > 0 {
		time.Sleep(m.downloadDelay)
	}
	if m.downloadError != nil {
		return nil, m.downloadError
	}
	return []byte("cover from " + url), nil
}

func (m *MockClient) GetDownloadCount() int {
	return int(atomic.LoadInt32(&m.downloadCounter))
}

// MockStorage is an in-memory mirror directory
type MockStorage struct {
	files     map[string][]byte
	saveError error
	mu        sync.Mutex
}

func NewMockStorage() *MockStorage {
	return &MockStorage{files: make(map[string][]byte)}
}

func (m *MockStorage) Exists(name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[name]
	return ok, nil
}

func (m *MockStorage) Save(r io.Reader, name string) error {
	if m.saveError != nil {
		return m.saveError
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = data
	return nil
}

func (m *MockStorage) GetSavedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

func makeJobs(n int) []DownloadJob {
	jobs := make([]DownloadJob, n)
	for i := range jobs {
		jobs[i] = DownloadJob{
			Filename: fmt.Sprintf("Batman(1940)#%d.jpg", i),
			URL:      fmt.Sprintf("https://example.com/w400/%d.jpg", i),
		}
	}
	return jobs
}

func collect(pool *WorkerPool, jobs []DownloadJob) []DownloadResult {
	var results []DownloadResult
	pool.Run(jobs, func(r DownloadResult) {
		results = append(results, r)
	})
	return results
}

func TestWorkerPoolBasicFunctionality(t *testing.T) {
	mockClient := &MockClient{downloadDelay: 10 * time.Millisecond}
	mockStorage := NewMockStorage()

	pool := NewWorkerPool(context.Background(), 3, mockClient, mockStorage, logger.NewNopLogger())
	results := collect(pool, makeJobs(10))

	require.Len(t, results, 10)
	for _, r := range results {
		assert.True(t, r.Success)
		assert.False(t, r.Skipped)
		assert.NoError(t, r.Error)
	}
	assert.Equal(t, 10, mockClient.GetDownloadCount())
	assert.Equal(t, 10, mockStorage.GetSavedCount())
	assert.Equal(t, []byte("cover from https://example.com/w400/3.jpg"), mockStorage.files["Batman(1940)#3.jpg"])
}

func TestWorkerPoolWithErrors(t *testing.T) {
	mockClient := &MockClient{downloadError: fmt.Errorf("download error")}
	mockStorage := NewMockStorage()

	pool := NewWorkerPool(context.Background(), 2, mockClient, mockStorage, logger.NewNopLogger())
	results := collect(pool, makeJobs(5))

	require.Len(t, results, 5)
	for _, r := range results {
		assert.False(t, r.Success)
		assert.Error(t, r.Error)
	}
	assert.Zero(t, mockStorage.GetSavedCount())
}

func TestWorkerPoolSaveFailure(t *testing.T) {
	mockClient := &MockClient{}
	mockStorage := NewMockStorage()
	mockStorage.saveError = fmt.Errorf("disk full")

	pool := NewWorkerPool(context.Background(), 2, mockClient, mockStorage, logger.NewNopLogger())
	results := collect(pool, makeJobs(3))

	require.Len(t, results, 3)
	for _, r := range results {
		assert.False(t, r.Success)
		assert.ErrorContains(t, r.Error, "disk full")
	}
}

func TestWorkerPoolConcurrencyCap(t *testing.T) {
	mockClient := &MockClient{downloadDelay: 20 * time.Millisecond}
	mockStorage := NewMockStorage()

	pool := NewWorkerPool(context.Background(), 5, mockClient, mockStorage, logger.NewNopLogger())
	results := collect(pool, makeJobs(20))

	assert.Len(t, results, 20)
	assert.LessOrEqual(t, int(atomic.LoadInt32(&mockClient.maxInFlight)), 5)
	assert.Greater(t, int(atomic.LoadInt32(&mockClient.maxInFlight)), 1)
}

func TestWorkerPoolSkipsExisting(t *testing.T) {
	mockClient := &MockClient{}
	mockStorage := NewMockStorage()
	mockStorage.files["existing1.jpg"] = []byte("old")
	mockStorage.files["existing2.jpg"] = []byte("old")

	jobs := []DownloadJob{
		{Filename: "new1.jpg", URL: "https://example.com/new1.jpg"},
		{Filename: "existing1.jpg", URL: "https://example.com/existing1.jpg"},
		{Filename: "new2.jpg", URL: "https://example.com/new2.jpg"},
		{Filename: "existing2.jpg", URL: "https://example.com/existing2.jpg"},
	}

	pool := NewWorkerPool(context.Background(), 2, mockClient, mockStorage, logger.NewNopLogger())
	results := collect(pool, jobs)

	require.Len(t, results, len(jobs))
	skipped := 0
	for _, r := range results {
		if r.Skipped {
			skipped++
			assert.False(t, r.Success)
		}
	}
	assert.Equal(t, 2, skipped)
	assert.Equal(t, 2, mockClient.GetDownloadCount())
	assert.True(t, bytes.Equal([]byte("old"), mockStorage.files["existing1.jpg"]))
}

func TestWorkerPoolCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mockClient := &MockClient{}
	pool := NewWorkerPool(ctx, 2, mockClient, NewMockStorage(), logger.NewNopLogger())

	done := make(chan []DownloadResult)
	go func() { done <- collect(pool, makeJobs(50)) }()

	select {
	case results := <-done:
		assert.Less(t, len(results), 50)
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not stop after cancellation")
	}
}
