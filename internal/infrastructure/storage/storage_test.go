package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voucherdesk/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

func TestAttachmentKey(t *testing.T) {
	companyID := uuid.MustParse("6f1c2b1e-8d1f-4a57-9b3e-2f6c1d0e9a11")
	now := time.Date(2026, 3, 7, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		fileName string
		suffix   string
	}{
		{"plain", "bill.pdf", "-bill.pdf"},
		{"spaces and symbols", "Hotel Bill (March).jpg", "-Hotel_Bill_March_.jpg"},
		{"path traversal", "../../etc/passwd", "-passwd"},
		{"windows path", `C:\scans\cheque 12.png`, "-cheque_12.png"},
		{"empty", "", "-file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := AttachmentKey(companyID, tt.fileName, now)
			assert.True(t, strings.HasPrefix(key, "vouchers/6f1c2b1e-8d1f-4a57-9b3e-2f6c1d0e9a11/2026/03/"), key)
			assert.True(t, strings.HasSuffix(key, tt.suffix), key)
			assert.NotContains(t, key, "..")
		})
	}

	assert.NotEqual(t, AttachmentKey(companyID, "a.pdf", now), AttachmentKey(companyID, "a.pdf", now))
}

func TestNew(t *testing.T) {
	s, err := New(context.Background(), &config.StorageConfig{Driver: "stub"}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &StubObjectStorage{}, s)

	_, err = New(context.Background(), &config.StorageConfig{Driver: "ftp"}, nil)
	require.Error(t, err)
}

type failingStorage struct {
	*StubObjectStorage
	fail map[string]bool
}

func (f *failingStorage) DeleteObject(ctx context.Context, key string) error {
	if f.fail[key] {
		return errors.New("access denied")
	}
	return f.StubObjectStorage.DeleteObject(ctx, key)
}

func TestAttachmentRemover_Remove(t *testing.T) {
	ctx := context.Background()
	stub := NewStubObjectStorage()
	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, stub.Upload(ctx, k, strings.NewReader(k), 1, "text/plain"))
	}
	store := &failingStorage{StubObjectStorage: stub, fail: map[string]bool{"b": true}}

	err := NewAttachmentRemover(store, nil).Remove(ctx, []string{"a", "", "b", "c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b: access denied")

	// failures do not stop the rest
	assert.Equal(t, 1, stub.Len())
	exists, _ := stub.ObjectExists(ctx, "b")
	assert.True(t, exists)

	require.NoError(t, NewAttachmentRemover(stub, nil).Remove(ctx, nil))
}

type batchStorage struct {
	*StubObjectStorage
	calls  [][]string
	refuse map[string]bool
	err    error
}

func (b *batchStorage) DeleteObjects(ctx context.Context, keys []string) (map[string]error, error) {
	b.calls = append(b.calls, keys)
	if b.err != nil {
		return nil, b.err
	}
	failed := map[string]error{}
	for _, k := range keys {
		if b.refuse[k] {
			failed[k] = errors.New("AccessDenied: denied")
			continue
		}
		_ = b.StubObjectStorage.DeleteObject(ctx, k)
	}
	return failed, nil
}

func TestAttachmentRemover_Batch(t *testing.T) {
	ctx := context.Background()
	stub := NewStubObjectStorage()
	for _, k := range []string{"main.pdf", "p0.pdf", "p1.pdf"} {
		require.NoError(t, stub.Upload(ctx, k, strings.NewReader(k), 1, "application/pdf"))
	}

	store := &batchStorage{StubObjectStorage: stub, refuse: map[string]bool{"p1.pdf": true}}
	err := NewAttachmentRemover(store, nil).Remove(ctx, []string{"main.pdf", "", "p0.pdf", "p1.pdf"})
	require.Error(t, err)
	assert.Equal(t, "p1.pdf: AccessDenied: denied", err.Error())
	require.Len(t, store.calls, 1, "one round trip")
	assert.Equal(t, []string{"main.pdf", "p0.pdf", "p1.pdf"}, store.calls[0])
	assert.Equal(t, 1, stub.Len())

	store.err = errors.New("connection reset")
	assert.EqualError(t, NewAttachmentRemover(store, nil).Remove(ctx, []string{"p1.pdf"}), "connection reset")

	store.calls = nil
	require.NoError(t, NewAttachmentRemover(store, nil).Remove(ctx, []string{""}))
	assert.Empty(t, store.calls, "nothing to delete")
}
