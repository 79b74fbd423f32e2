package marketing

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/levrixhq/levrix/pkg/ai/assistant"
	"github.com/levrixhq/levrix/pkg/ai/llm"
	"github.com/levrixhq/levrix/pkg/domain"
)

const description = "Modern 4 bed villa with infinity pool overlooking the bay"

type fakeGenerator struct {
	img     *llm.Image
	imgErr  error
	copy    *assistant.MarketingCopy
	copyErr error
}

func (f fakeGenerator) MarketingImage(ctx context.Context, d string) (*llm.Image, error) {
	return f.img, f.imgErr
}

func (f fakeGenerator) MarketingCopy(ctx context.Context, d string) (*assistant.MarketingCopy, error) {
	return f.copy, f.copyErr
}

type recordingStore struct {
	keys []string
	err  error
}

func (r *recordingStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	r.keys = append(r.keys, key)
	return "https://cdn.levrix.io/" + key, nil
}

var sampleCopy = &assistant.MarketingCopy{Instagram: "Sunset views #dreamhome", Flyer: assistant.Flyer{Headline: "Bayfront Living"}}

func TestGenerate_BothHalves(t *testing.T) {
	store := &recordingStore{}
	svc := NewService(fakeGenerator{img: &llm.Image{Data: []byte{1, 2}, MIMEType: "image/jpeg"}, copy: sampleCopy}, store, nil)

	res, err := svc.Generate(context.Background(), "u1", description)
	require.NoError(t, err)
	require.Len(t, store.keys, 1)
	assert.True(t, strings.HasPrefix(store.keys[0], "marketing/u1/"))
	assert.True(t, strings.HasSuffix(store.keys[0], ".jpg"))
	assert.Equal(t, "https://cdn.levrix.io/"+store.keys[0], res.ImageURL)
	assert.Equal(t, sampleCopy, res.Copy)
	assert.Empty(t, res.ImageError)
	assert.Empty(t, res.CopyError)
}

func TestGenerate_UploadFailureInlines(t *testing.T) {
	svc := NewService(fakeGenerator{img: &llm.Image{Data: []byte("hi")}, copy: sampleCopy}, &recordingStore{err: errors.New("access denied")}, nil)

	res, err := svc.Generate(context.Background(), "u1", description)
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,aGk=", res.ImageURL)
}

func TestGenerate_PartialFailures(t *testing.T) {
	t.Run("image fails", func(t *testing.T) {
		svc := NewService(fakeGenerator{imgErr: errors.New("quota"), copy: sampleCopy}, nil, nil)
		res, err := svc.Generate(context.Background(), "u1", description)
		require.NoError(t, err)
		assert.Empty(t, res.ImageURL)
		assert.NotEmpty(t, res.ImageError)
		assert.Equal(t, sampleCopy, res.Copy)
	})

	t.Run("copy fails", func(t *testing.T) {
		svc := NewService(fakeGenerator{img: &llm.Image{Data: []byte("x"), MIMEType: "image/png"}, copyErr: errors.New("bad json")}, nil, nil)
		res, err := svc.Generate(context.Background(), "u1", description)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(res.ImageURL, "data:image/png;base64,"))
		assert.Nil(t, res.Copy)
		assert.NotEmpty(t, res.CopyError)
	})

	t.Run("empty image counts as failure", func(t *testing.T) {
		svc := NewService(fakeGenerator{img: &llm.Image{}, copy: sampleCopy}, nil, nil)
		res, err := svc.Generate(context.Background(), "u1", description)
		require.NoError(t, err)
		assert.NotEmpty(t, res.ImageError)
	})

	t.Run("both fail", func(t *testing.T) {
		svc := NewService(fakeGenerator{imgErr: errors.New("x"), copyErr: errors.New("y")}, nil, nil)
		_, err := svc.Generate(context.Background(), "u1", description)
		assert.True(t, domain.IsBadRequest(err))
	})
}

func TestGenerate_RequiresDescription(t *testing.T) {
	svc := NewService(fakeGenerator{}, nil, nil)
	_, err := svc.Generate(context.Background(), "u1", "  ")
	assert.True(t, domain.IsValidation(err))
}
