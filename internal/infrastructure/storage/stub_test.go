package storage

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubObjectStorage(t *testing.T) {
	ctx := context.Background()
	s := NewStubObjectStorage()

	require.NoError(t, s.Upload(ctx, "vouchers/a.pdf", strings.NewReader("pdf"), 3, "application/pdf"))
	assert.Equal(t, 1, s.Len())

	exists, err := s.ObjectExists(ctx, "vouchers/a.pdf")
	require.NoError(t, err)
	assert.True(t, exists)

	r, contentType, ok := s.Open("vouchers/a.pdf")
	require.True(t, ok)
	data, _ := io.ReadAll(r)
	assert.Equal(t, "pdf", string(data))
	assert.Equal(t, "application/pdf", contentType)

	url, expiresAt, err := s.GenerateDownloadURL(ctx, "vouchers/a.pdf", time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, s.BaseURL+"/vouchers/a.pdf?expires="))
	assert.True(t, expiresAt.After(time.Now()))

	require.NoError(t, s.DeleteObject(ctx, "vouchers/a.pdf"))
	require.NoError(t, s.DeleteObject(ctx, "vouchers/a.pdf"))
	exists, _ = s.ObjectExists(ctx, "vouchers/a.pdf")
	assert.False(t, exists)
}

func TestStubObjectStorage_EmptyKey(t *testing.T) {
	ctx := context.Background()
	s := NewStubObjectStorage()

	require.ErrorIs(t, s.Upload(ctx, "", strings.NewReader(""), 0, ""), errEmptyKey)
	require.ErrorIs(t, s.DeleteObject(ctx, ""), errEmptyKey)
	_, _, err := s.GenerateDownloadURL(ctx, "", time.Minute)
	require.ErrorIs(t, err, errEmptyKey)
}
