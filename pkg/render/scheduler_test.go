package render

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/nerdneilsfield/quizmark/pkg/enhance"
	"github.com/nerdneilsfield/quizmark/pkg/markdown"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// countingConverter 统计真实转换次数
type countingConverter struct {
	inner markdown.HTMLConverter
	calls atomic.Int32
}

func (c *countingConverter) Convert(source string) (string, error) {
	c.calls.Add(1)
	return c.inner.Convert(source)
}

// blockingConverter 对指定文本阻塞，直到对应通道关闭
type blockingConverter struct {
	entered chan string
	release map[string]chan struct{}
}

func (c *blockingConverter) Convert(source string) (string, error) {
	if ch, ok := c.release[source]; ok {
		c.entered <- source
		<-ch
	}
	return "<p>" + source + "</p>", nil
}

type failingConverter struct{}

func (failingConverter) Convert(string) (string, error) {
	return "", errors.New("boom")
}

type recordingSink struct {
	mu      sync.Mutex
	commits []string
}

func (r *recordingSink) Commit(id, html string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commits = append(r.commits, id+"="+html)
}

func (r *recordingSink) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.commits...)
}

func newEnhancer() *enhance.Enhancer {
	return enhance.New(enhance.DefaultOptions(), nil, nil, nil)
}

func TestAddRemove(t *testing.T) {
	s := NewScheduler(markdown.NewConverter(markdown.DefaultOptions()), nil)

	require.NoError(t, s.Add("a", "x"))
	require.NoError(t, s.Add("b", "y"))
	assert.ErrorIs(t, s.Add("a", "z"), ErrDuplicateNode)
	assert.ErrorIs(t, s.Add("", "z"), ErrEmptyNodeID)
	assert.Equal(t, []string{"a", "b"}, s.IDs())

	require.NoError(t, s.Remove("a"))
	assert.ErrorIs(t, s.Remove("a"), ErrUnknownNode)
	assert.Equal(t, []string{"b"}, s.IDs())

	_, err := s.Render(context.Background(), "a")
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestRenderIsIdempotent(t *testing.T) {
	conv := &countingConverter{inner: markdown.NewConverter(markdown.DefaultOptions())}
	sink := &recordingSink{}
	s := NewScheduler(conv, newEnhancer(), WithSink(sink))
	ctx := context.Background()

	require.NoError(t, s.Add("q", "## Title\n\n```\ncode\n```"))

	out, err := s.Render(ctx, "q")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCommitted, out)

	snap, ok := s.Node("q")
	require.True(t, ok)
	assert.Equal(t, StateRendered, snap.State)
	assert.Contains(t, snap.HTML, `<h2 id="title">`)
	assert.Equal(t, 1, strings.Count(snap.HTML, "copy-code-btn"))
	require.NotNil(t, snap.Result)
	assert.Len(t, snap.Result.CopyButtons, 1)

	// 已渲染的节点再次渲染直接跳过
	out, err = s.Render(ctx, "q")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, out)
	assert.EqualValues(t, 1, conv.calls.Load())

	// 相同文本不会触发重新渲染
	changed, err := s.SetText("q", "## Title\n\n```\ncode\n```")
	require.NoError(t, err)
	assert.False(t, changed)
	out, _ = s.Render(ctx, "q")
	assert.Equal(t, OutcomeSkipped, out)

	require.NoError(t, s.Invalidate("q"))
	out, _ = s.Render(ctx, "q")
	assert.Equal(t, OutcomeCommitted, out)
	assert.EqualValues(t, 2, conv.calls.Load())

	snap, _ = s.Node("q")
	assert.Equal(t, 1, strings.Count(snap.HTML, "copy-code-btn"))
	assert.Len(t, sink.all(), 2)
}

func TestSetTextBumpsVersion(t *testing.T) {
	s := NewScheduler(markdown.NewConverter(markdown.DefaultOptions()), nil)
	require.NoError(t, s.Add("n", "one"))
	_, err := s.Render(context.Background(), "n")
	require.NoError(t, err)

	before, _ := s.Node("n")
	changed, err := s.SetText("n", "two")
	require.NoError(t, err)
	assert.True(t, changed)

	after, _ := s.Node("n")
	assert.Equal(t, before.Version+1, after.Version)
	assert.Equal(t, StateUnrendered, after.State)

	_, err = s.SetText("missing", "x")
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestLatestWins(t *testing.T) {
	conv := &blockingConverter{
		entered: make(chan string, 2),
		release: map[string]chan struct{}{
			"A": make(chan struct{}),
			"B": make(chan struct{}),
		},
	}
	sink := &recordingSink{}
	s := NewScheduler(conv, nil, WithSink(sink))
	ctx := context.Background()

	require.NoError(t, s.Add("n", "A"))

	outcomes := make(chan Outcome, 2)
	renderAsync := func() {
		go func() {
			o, _ := s.Render(ctx, "n")
			outcomes <- o
		}()
	}

	renderAsync()
	require.Equal(t, "A", <-conv.entered)

	// 同一版本正在渲染
	o, err := s.Render(ctx, "n")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, o)
	snap, _ := s.Node("n")
	assert.Equal(t, StateRendering, snap.State)

	_, err = s.SetText("n", "B")
	require.NoError(t, err)
	renderAsync()
	require.Equal(t, "B", <-conv.entered)

	_, err = s.SetText("n", "C")
	require.NoError(t, err)
	o, err = s.Render(ctx, "n")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCommitted, o)

	close(conv.release["A"])
	close(conv.release["B"])
	assert.Equal(t, OutcomeDiscarded, <-outcomes)
	assert.Equal(t, OutcomeDiscarded, <-outcomes)

	snap, _ = s.Node("n")
	assert.Equal(t, StateRendered, snap.State)
	assert.Equal(t, "<p>C</p>", snap.HTML)
	assert.Equal(t, []string{"n=<p>C</p>"}, sink.all())
}

func TestRemoveDuringRender(t *testing.T) {
	conv := &blockingConverter{
		entered: make(chan string, 1),
		release: map[string]chan struct{}{"slow": make(chan struct{})},
	}
	sink := &recordingSink{}
	s := NewScheduler(conv, nil, WithSink(sink))
	require.NoError(t, s.Add("n", "slow"))

	done := make(chan Outcome, 1)
	go func() {
		o, _ := s.Render(context.Background(), "n")
		done <- o
	}()
	<-conv.entered

	require.NoError(t, s.Remove("n"))
	close(conv.release["slow"])
	assert.Equal(t, OutcomeDiscarded, <-done)
	assert.Empty(t, sink.all())
}

func TestRenderFailureDegrades(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	s := NewScheduler(failingConverter{}, newEnhancer(), WithLogger(zap.New(core)))
	ctx := context.Background()
	require.NoError(t, s.Add("bad", "a < b"))

	o, err := s.Render(ctx, "bad")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCommitted, o)

	snap, _ := s.Node("bad")
	assert.Equal(t, StateRendered, snap.State)
	assert.True(t, snap.Failed)
	assert.Contains(t, snap.HTML, `data-render-error="true"`)
	assert.Contains(t, snap.HTML, "a &lt; b")
	assert.Equal(t, 1, logs.Len())

	// 失败后不会自动重试
	o, _ = s.Render(ctx, "bad")
	assert.Equal(t, OutcomeSkipped, o)
	assert.Equal(t, 1, logs.Len())

	_, err = s.SetText("bad", "other")
	require.NoError(t, err)
	o, _ = s.Render(ctx, "bad")
	assert.Equal(t, OutcomeCommitted, o)
	assert.Equal(t, 2, logs.Len())
}

func TestRenderCanceled(t *testing.T) {
	s := NewScheduler(markdown.NewConverter(markdown.DefaultOptions()), nil)
	require.NoError(t, s.Add("n", "text"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o, err := s.Render(ctx, "n")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, OutcomeSkipped, o)

	snap, _ := s.Node("n")
	assert.Equal(t, StateUnrendered, snap.State)

	o, err = s.Render(context.Background(), "n")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCommitted, o)
}

func TestRenderAll(t *testing.T) {
	sink := &recordingSink{}
	s := NewScheduler(markdown.NewConverter(markdown.DefaultOptions()), nil, WithSink(sink))
	require.NoError(t, s.Add("a", "one"))
	require.NoError(t, s.Add("b", ""))

	require.NoError(t, s.RenderAll(context.Background()))
	assert.Equal(t, []string{
		"a=<p>one</p>\n",
		`b=<p class="markdown-empty">no content</p>`,
	}, sink.all())
}
