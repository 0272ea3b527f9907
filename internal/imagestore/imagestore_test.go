package imagestore

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// pngBytes is a PNG signature plus filler; enough for content sniffing.
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), []byte("fake-image-body")...)

func dataURI(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ===== DecodeDataURI =====

func TestDecodeDataURI(t *testing.T) {
	img, err := DecodeDataURI(dataURI("image/png", pngBytes))
	require.NoError(t, err)
	assert.Equal(t, "png", img.Ext)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, pngBytes, img.Data)

	img, err = DecodeDataURI(dataURI("image/gif", []byte("GIF89a-body")))
	require.NoError(t, err)
	assert.Equal(t, "gif", img.Ext)
}

func TestDecodeDataURI_Rejects(t *testing.T) {
	tests := []struct {
		name string
		uri  string
	}{
		{"not a data uri", "https://example.com/a.png"},
		{"no comma", "data:image/png;base64"},
		{"not base64", "data:image/png," + string(pngBytes)},
		{"text type", dataURI("text/plain", pngBytes)},
		{"unknown image type", dataURI("image/tiff", pngBytes)},
		{"bad payload", "data:image/png;base64,@@@"},
		{"empty payload", "data:image/png;base64,"},
		{"bytes are not an image", dataURI("image/png", []byte("hello world, plain text"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeDataURI(tt.uri)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidImage), "error %v should wrap ErrInvalidImage", err)
		})
	}
}

// ===== LocalStore =====

func TestLocalStore_Save(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir, "/media")

	img := &Image{Data: pngBytes, Ext: "png", ContentType: "image/png"}
	url, err := store.Save(context.Background(), img)
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(url, "/media/recipes/images/"), url)
	assert.True(t, strings.HasSuffix(url, ".png"), url)

	rel := strings.TrimPrefix(url, "/media/")
	got, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, got)

	other, err := store.Save(context.Background(), img)
	require.NoError(t, err)
	assert.NotEqual(t, url, other, "every save gets its own key")
}

func TestLocalStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLocalStore(t.TempDir(), "/media/").Save(ctx, &Image{Data: pngBytes, Ext: "png"})
	assert.ErrorIs(t, err, context.Canceled)
}

// ===== S3Store =====

type mockS3 struct {
	mock.Mock
}

func (m *mockS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.PutObjectOutput)
	return out, args.Error(1)
}

func TestS3Store_Save(t *testing.T) {
	client := new(mockS3)
	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		if *in.Bucket != "recipes-bucket" || *in.ContentType != "image/png" {
			return false
		}
		body, _ := io.ReadAll(in.Body)
		return strings.HasPrefix(*in.Key, "recipes/images/") && string(body) == string(pngBytes)
	})).Return(&s3.PutObjectOutput{}, nil).Once()

	store := NewS3StoreWithClient(client, "recipes-bucket", "https://cdn.example.com/")
	url, err := store.Save(context.Background(), &Image{Data: pngBytes, Ext: "png", ContentType: "image/png"})

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://cdn.example.com/recipes/images/"), url)
	client.AssertExpectations(t)
}

func TestS3Store_DefaultPublicURL(t *testing.T) {
	client := new(mockS3)
	client.On("PutObject", mock.Anything, mock.Anything).Return(&s3.PutObjectOutput{}, nil)

	url, err := NewS3StoreWithClient(client, "b", "").Save(context.Background(), &Image{Data: pngBytes, Ext: "png", ContentType: "image/png"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://b.s3.amazonaws.com/recipes/images/"), url)
}

func TestS3Store_UploadError(t *testing.T) {
	client := new(mockS3)
	client.On("PutObject", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))

	_, err := NewS3StoreWithClient(client, "b", "").Save(context.Background(), &Image{Data: pngBytes, Ext: "png"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}
