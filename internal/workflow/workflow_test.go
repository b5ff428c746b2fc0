package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goreforced/YCTNewsBot-TG/internal/articles"
	"github.com/goreforced/YCTNewsBot-TG/internal/feed"
)

// --- заглушки внешних участников ---

type fakeFeeds struct {
	entries []feed.Entry
	err     error
}

func (f *fakeFeeds) FetchAll(ctx context.Context) ([]feed.Entry, error) {
	return f.entries, f.err
}

type fakeSummarizer struct {
	mu      sync.Mutex
	results map[string][2]string // link -> {title, summary}
	failFor map[string]bool
	calls   int
}

func (s *fakeSummarizer) Summarize(ctx context.Context, link string) (string, string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if s.failFor[link] {
		return "", "", errors.New("summarizer down")
	}
	if r, ok := s.results[link]; ok {
		return r[0], r[1], nil
	}
	return "Заголовок", "Текст новости", nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []articles.Article
	err       error
}

func (p *fakePublisher) Publish(ctx context.Context, a articles.Article) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, a)
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

type fakeStore struct {
	mu  sync.Mutex
	set map[string]articles.Article
}

func newFakeStore() *fakeStore {
	return &fakeStore{set: make(map[string]articles.Article)}
}

func (s *fakeStore) Exists(fingerprint string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.set[fingerprint]
	return ok, nil
}

func (s *fakeStore) Add(a articles.Article) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fp := articles.Fingerprint(a.Link)
	if _, ok := s.set[fp]; ok {
		return false, nil
	}
	s.set[fp] = a
	return true, nil
}

func (s *fakeStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.set)
}

type env struct {
	wf    *Workflow
	feeds *fakeFeeds
	sum   *fakeSummarizer
	pub   *fakePublisher
	store *fakeStore
}

func newEnv(entries ...feed.Entry) *env {
	e := &env{
		feeds: &fakeFeeds{entries: entries},
		sum:   &fakeSummarizer{results: map[string][2]string{}, failFor: map[string]bool{}},
		pub:   &fakePublisher{},
		store: newFakeStore(),
	}
	e.wf = New(Deps{Feeds: e.feeds, Summarizer: e.sum, Publisher: e.pub, Store: e.store})
	return e
}

func entry(link string) feed.Entry {
	return feed.Entry{Title: "X", Link: link, Published: time.Now()}
}

// --- тесты ---

func TestFetchCandidates(t *testing.T) {
	e := newEnv(entry("http://a/1"))

	items, err := e.wf.FetchCandidates(context.Background(), 42, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, "Заголовок", item.Article.Title)
	assert.Equal(t, "Текст новости", item.Article.Summary)
	assert.Equal(t, "http://a/1", item.Article.Link)
	assert.Equal(t, StatePending, item.State)
	assert.EqualValues(t, 42, item.ChatID)
	assert.NotEmpty(t, item.ID)
}

func TestFetchCandidatesSkipsPublished(t *testing.T) {
	e := newEnv(entry("http://a/1"))
	_, err := e.store.Add(articles.Article{Link: "http://a/1"})
	require.NoError(t, err)

	items, err := e.wf.FetchCandidates(context.Background(), 42, 1)
	require.NoError(t, err)
	assert.Empty(t, items, "уже опубликованная статья не предлагается снова")
}

func TestFetchCandidatesSummarizerFailureDropsCandidate(t *testing.T) {
	e := newEnv(entry("http://a/1"), entry("http://a/2"))
	e.sum.failFor["http://a/1"] = true

	items, err := e.wf.FetchCandidates(context.Background(), 42, 2)
	require.NoError(t, err, "отказ суммаризации одной статьи не прерывает всю пачку")
	require.Len(t, items, 1)
	assert.Equal(t, "http://a/2", items[0].Article.Link)
}

func TestFetchCandidatesRespectsLimit(t *testing.T) {
	e := newEnv(entry("http://a/1"), entry("http://a/2"), entry("http://a/3"))

	items, err := e.wf.FetchCandidates(context.Background(), 42, 2)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 2, e.sum.calls, "суммаризируются только статьи в пределах limit")
}

func TestFetchCandidatesFeedsFailure(t *testing.T) {
	e := newEnv()
	e.feeds.err = errors.New("feeds down")

	_, err := e.wf.FetchCandidates(context.Background(), 42, 1)
	assert.Equal(t, ReasonUpstream, ReasonOf(err))
}

func TestApprove(t *testing.T) {
	e := newEnv(entry("http://a/1"))
	items, err := e.wf.FetchCandidates(context.Background(), 42, 1)
	require.NoError(t, err)

	res, err := e.wf.HandleControl(context.Background(), 42, items[0].ID, ActionApprove)
	require.NoError(t, err)
	assert.Equal(t, StatusPublished, res.Status)
	assert.Equal(t, 1, e.pub.count())
	assert.Equal(t, 1, e.store.size())
	assert.Equal(t, 0, e.wf.PendingCount(42))

	// статья больше никогда не предлагается
	again, err := e.wf.FetchCandidates(context.Background(), 42, 1)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestDoubleApproveIsIdempotent(t *testing.T) {
	e := newEnv(entry("http://a/1"))
	items, err := e.wf.FetchCandidates(context.Background(), 42, 1)
	require.NoError(t, err)

	_, err = e.wf.HandleControl(context.Background(), 42, items[0].ID, ActionApprove)
	require.NoError(t, err)

	// второй клик по уже обработанному элементу
	_, err = e.wf.HandleControl(context.Background(), 42, items[0].ID, ActionApprove)
	assert.Equal(t, ReasonNotFound, ReasonOf(err))
	assert.Equal(t, 1, e.pub.count(), "повторный Approve не публикует второй раз")
}

func TestApproveSameLinkFromTwoChats(t *testing.T) {
	e := newEnv(entry("http://a/1"))

	first, err := e.wf.FetchCandidates(context.Background(), 42, 1)
	require.NoError(t, err)
	second, err := e.wf.FetchCandidates(context.Background(), 99, 1)
	require.NoError(t, err)
	require.Len(t, second, 1, "пока статья не опубликована, другой чат тоже получает её на проверку")

	res, err := e.wf.HandleControl(context.Background(), 42, first[0].ID, ActionApprove)
	require.NoError(t, err)
	assert.Equal(t, StatusPublished, res.Status)

	// второй чат опоздал: та же статья уже в хранилище
	_, err = e.wf.HandleControl(context.Background(), 99, second[0].ID, ActionApprove)
	assert.Equal(t, ReasonDuplicate, ReasonOf(err))
	assert.Equal(t, 1, e.pub.count(), "статья должна публиковаться не более одного раза")
	assert.Equal(t, 0, e.wf.PendingCount(99), "опоздавший элемент удаляется")
}

func TestApproveDeliveryFailureKeepsItem(t *testing.T) {
	e := newEnv(entry("http://a/1"))
	items, err := e.wf.FetchCandidates(context.Background(), 42, 1)
	require.NoError(t, err)

	e.pub.err = errors.New("500")
	_, err = e.wf.HandleControl(context.Background(), 42, items[0].ID, ActionApprove)
	assert.Equal(t, ReasonDelivery, ReasonOf(err))
	assert.Equal(t, 1, e.wf.PendingCount(42), "после сбоя доставки элемент остаётся")
	assert.Equal(t, 0, e.store.size(), "после сбоя доставки записи в хранилище нет")

	// доставка восстановилась — повторный клик публикует
	e.pub.err = nil
	res, err := e.wf.HandleControl(context.Background(), 42, items[0].ID, ActionApprove)
	require.NoError(t, err)
	assert.Equal(t, StatusPublished, res.Status)
	assert.Equal(t, 0, e.wf.PendingCount(42))
}

func TestReject(t *testing.T) {
	e := newEnv(entry("http://a/1"))
	items, err := e.wf.FetchCandidates(context.Background(), 42, 1)
	require.NoError(t, err)

	before := e.store.size()
	res, err := e.wf.HandleControl(context.Background(), 42, items[0].ID, ActionReject)
	require.NoError(t, err)
	assert.Equal(t, StatusDiscarded, res.Status)
	assert.Equal(t, 0, e.wf.PendingCount(42))
	assert.Equal(t, before, e.store.size(), "Reject не трогает хранилище")
	assert.Equal(t, 0, e.pub.count())
}

func TestEditRoundTrip(t *testing.T) {
	e := newEnv(entry("http://a/1"))
	items, err := e.wf.FetchCandidates(context.Background(), 42, 1)
	require.NoError(t, err)
	id := items[0].ID

	res, err := e.wf.HandleControl(context.Background(), 42, id, ActionEdit)
	require.NoError(t, err)
	assert.Equal(t, StatusAwaitingTitle, res.Status)

	text, err := e.wf.HandleTextInput(context.Background(), 42, "Новый заголовок")
	require.NoError(t, err)
	assert.True(t, text.Consumed)
	assert.Equal(t, StatusAwaitingSummary, text.Status)

	text, err = e.wf.HandleTextInput(context.Background(), 42, "Новый пересказ")
	require.NoError(t, err)
	assert.True(t, text.Consumed)
	assert.Equal(t, StatusPending, text.Status)
	assert.Equal(t, "Новый заголовок", text.Item.Article.Title)
	assert.Equal(t, "Новый пересказ", text.Item.Article.Summary)
	assert.Equal(t, StatePending, text.Item.State)
}

func TestKeepCurrentControls(t *testing.T) {
	e := newEnv(entry("http://a/1"))
	items, err := e.wf.FetchCandidates(context.Background(), 42, 1)
	require.NoError(t, err)
	id := items[0].ID

	_, err = e.wf.HandleControl(context.Background(), 42, id, ActionEdit)
	require.NoError(t, err)

	res, err := e.wf.HandleControl(context.Background(), 42, id, ActionKeepTitle)
	require.NoError(t, err)
	assert.Equal(t, StatusAwaitingSummary, res.Status)
	assert.Equal(t, "Заголовок", res.Item.Article.Title, "keep оставляет заголовок без изменений")

	res, err = e.wf.HandleControl(context.Background(), 42, id, ActionKeepSummary)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, res.Status)
	assert.Equal(t, "Текст новости", res.Item.Article.Summary)
}

func TestApproveWhileEditingIsRefused(t *testing.T) {
	e := newEnv(entry("http://a/1"))
	items, err := e.wf.FetchCandidates(context.Background(), 42, 1)
	require.NoError(t, err)
	id := items[0].ID

	_, err = e.wf.HandleControl(context.Background(), 42, id, ActionEdit)
	require.NoError(t, err)

	_, err = e.wf.HandleControl(context.Background(), 42, id, ActionApprove)
	assert.Equal(t, ReasonInvalidState, ReasonOf(err))
	assert.Equal(t, 0, e.pub.count())
}

func TestTextInputWithoutAwaitingItem(t *testing.T) {
	e := newEnv(entry("http://a/1"))
	_, err := e.wf.FetchCandidates(context.Background(), 42, 1)
	require.NoError(t, err)

	res, err := e.wf.HandleTextInput(context.Background(), 42, "просто сообщение")
	require.NoError(t, err)
	assert.False(t, res.Consumed, "текст без ожидающего элемента не потребляется")
}

func TestTextInputAmbiguous(t *testing.T) {
	e := newEnv(entry("http://a/1"), entry("http://a/2"))
	items, err := e.wf.FetchCandidates(context.Background(), 42, 2)
	require.NoError(t, err)
	require.Len(t, items, 2)

	for _, item := range items {
		_, err = e.wf.HandleControl(context.Background(), 42, item.ID, ActionEdit)
		require.NoError(t, err)
	}

	_, err = e.wf.HandleTextInput(context.Background(), 42, "кому это?")
	assert.Equal(t, ReasonAmbiguous, ReasonOf(err))
}

func TestSessionsAreIsolatedPerChat(t *testing.T) {
	e := newEnv(entry("http://a/1"))
	items, err := e.wf.FetchCandidates(context.Background(), 42, 1)
	require.NoError(t, err)

	// чужой чат не видит элемент
	_, err = e.wf.HandleControl(context.Background(), 99, items[0].ID, ActionApprove)
	assert.Equal(t, ReasonNotFound, ReasonOf(err))
	assert.Equal(t, 1, e.wf.PendingCount(42))
}

func TestPublishSingle(t *testing.T) {
	e := newEnv()

	a, err := e.wf.PublishSingle(context.Background(), "http://a/1")
	require.NoError(t, err)
	assert.Equal(t, "Заголовок", a.Title)
	assert.Equal(t, 1, e.pub.count())
	assert.Equal(t, 1, e.store.size())

	// повторная публикация той же ссылки
	_, err = e.wf.PublishSingle(context.Background(), "http://a/1")
	assert.Equal(t, ReasonDuplicate, ReasonOf(err))
	assert.Equal(t, 1, e.pub.count())
}

func TestPublishSingleSummarizerFailure(t *testing.T) {
	e := newEnv()
	e.sum.failFor["http://a/1"] = true

	_, err := e.wf.PublishSingle(context.Background(), "http://a/1")
	assert.Equal(t, ReasonUpstream, ReasonOf(err))
	assert.Equal(t, 0, e.store.size(), "сбой суммаризации не оставляет следа в хранилище")
}

func TestPublishSingleDeliveryFailure(t *testing.T) {
	e := newEnv()
	e.pub.err = errors.New("500")

	_, err := e.wf.PublishSingle(context.Background(), "http://a/1")
	assert.Equal(t, ReasonDelivery, ReasonOf(err))
	assert.Equal(t, 0, e.store.size())
}

func TestAutoPost(t *testing.T) {
	e := newEnv(entry("http://a/1"), entry("http://a/2"))
	_, err := e.store.Add(articles.Article{Link: "http://a/1"})
	require.NoError(t, err)

	a, err := e.wf.AutoPost(context.Background())
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "http://a/2", a.Link, "автопостинг берёт самую свежую невиденную статью")

	// всё уже опубликовано
	a, err = e.wf.AutoPost(context.Background())
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestConcurrentDoubleApprove(t *testing.T) {
	e := newEnv(entry("http://a/1"))
	items, err := e.wf.FetchCandidates(context.Background(), 42, 1)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.wf.HandleControl(context.Background(), 42, items[0].ID, ActionApprove)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, e.pub.count(), "два одновременных Approve публикуют ровно один раз")
	assert.Equal(t, 1, e.store.size())
}
