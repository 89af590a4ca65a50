package upload

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/nerdneilsfield/quizmark/pkg/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectImage(t *testing.T) {
	rec := notify.NewRecorder()
	s := NewSession("q1", Options{}, rec, nil)

	p, err := s.Select(context.Background(), File{
		Name:     "dot.gif",
		MimeType: "image/gif",
		Reader:   bytes.NewReader([]byte("GIF89a")),
	})
	require.NoError(t, err)

	assert.Equal(t, "data:image/gif;base64,R0lGODlh", p.DataURL)
	assert.Equal(t, "image/gif", p.MimeType)
	assert.EqualValues(t, 6, p.Size)
	assert.NotEmpty(t, p.ID)
	assert.Len(t, s.Previews(), 1)
	assert.Empty(t, rec.Messages())

	latest, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, p, latest)
}

func TestSelectUsesDeclaredType(t *testing.T) {
	s := NewSession("q1", Options{}, nil, nil)
	p, err := s.Select(context.Background(), File{
		Name:     "photo.jpg",
		MimeType: "image/jpeg; charset=binary",
		Reader:   strings.NewReader("x"),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p.DataURL, "data:image/jpeg;base64,"))
}

func TestSelectRejectsNonImage(t *testing.T) {
	rec := notify.NewRecorder()
	s := NewSession("q1", Options{}, rec, nil)

	for _, mt := range []string{"text/plain", "", "not a type", "application/pdf"} {
		_, err := s.Select(context.Background(), File{Name: "a", MimeType: mt, Reader: strings.NewReader("x")})
		assert.ErrorIs(t, err, ErrNotImage, mt)
	}

	assert.Empty(t, s.Previews())
	assert.Equal(t, 4, rec.Count(notify.SeverityError))
	msg, _ := rec.Last()
	assert.Equal(t, "q1", msg.NodeID)
}

func TestSelectTooLarge(t *testing.T) {
	rec := notify.NewRecorder()
	s := NewSession("q1", Options{MaxBytes: 4}, rec, nil)

	_, err := s.Select(context.Background(), File{Name: "big.png", MimeType: "image/png", Reader: strings.NewReader("12345")})
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Empty(t, s.Previews())

	_, err = s.Select(context.Background(), File{Name: "ok.png", MimeType: "image/png", Reader: strings.NewReader("1234")})
	assert.NoError(t, err)
}

func TestSelectCanceled(t *testing.T) {
	s := NewSession("q1", Options{}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Select(ctx, File{Name: "a.png", MimeType: "image/png", Reader: strings.NewReader("x")})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, s.Previews())
}

func TestRemoveAndClose(t *testing.T) {
	s := NewSession("q1", Options{}, nil, nil)
	a, err := s.Select(context.Background(), File{Name: "a.png", MimeType: "image/png", Reader: strings.NewReader("a")})
	require.NoError(t, err)
	b, err := s.Select(context.Background(), File{Name: "b.png", MimeType: "image/png", Reader: strings.NewReader("b")})
	require.NoError(t, err)

	assert.True(t, s.Remove(a.ID))
	assert.False(t, s.Remove(a.ID))
	assert.Equal(t, []Preview{b}, s.Previews())

	s.Close()
	assert.Empty(t, s.Previews())
	_, err = s.Select(context.Background(), File{Name: "c.png", MimeType: "image/png", Reader: strings.NewReader("c")})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestHelpers(t *testing.T) {
	assert.True(t, IsImage("image/png"))
	assert.True(t, IsImage("IMAGE/PNG"))
	assert.False(t, IsImage("text/plain"))

	assert.Equal(t, "data:image/png;base64,AQI=", DataURL("image/png", []byte{1, 2}))

	assert.Equal(t, "![image](u.png)", ImageMarkdown("", "u.png"))
	assert.Equal(t, "![a \\[b\\]](u.png)", ImageMarkdown("a [b]", "u.png"))
}
