package feed

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/goreforced/YCTNewsBot-TG/internal/logging"
)

// Entry — одна запись RSS-ленты
type Entry struct {
	Title     string
	Link      string
	Published time.Time
}

// Fetcher получает записи из нескольких RSS-лент
type Fetcher struct {
	urls    []string
	timeout time.Duration
	parser  *gofeed.Parser
}

// NewFetcher возвращает новый Fetcher
func NewFetcher(urls []string, timeout time.Duration) *Fetcher {
	return &Fetcher{
		urls:    urls,
		timeout: timeout,
		parser:  gofeed.NewParser(),
	}
}

// FetchAll опрашивает все ленты параллельно и возвращает записи
// в порядке убывания по времени (новые раньше).
// Недоступная лента логгируется и пропускается, остальные продолжают работу.
// Ошибка возвращается только если не ответила ни одна лента
func (f *Fetcher) FetchAll(ctx context.Context) ([]Entry, error) {
	var (
		mu      sync.Mutex
		entries []Entry
		failed  int
	)

	var wg sync.WaitGroup
	for _, url := range f.urls {
		wg.Add(1)
		go func(url string) {
			defer wg.Done()

			got, err := f.fetchOne(ctx, url)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logging.LogMinorError("FetchAll", "попытка получить RSS-ленту "+url, err)
				failed++
				return
			}
			entries = append(entries, got...)
		}(url)
	}
	wg.Wait()

	if failed == len(f.urls) {
		return nil, errors.New("ни одна RSS-лента не ответила")
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Published.After(entries[j].Published)
	})

	return entries, nil
}

// количество попыток получить одну RSS-ленту
const attemptLimit = 3

func (f *Fetcher) fetchOne(ctx context.Context, url string) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	var (
		parsed *gofeed.Feed
		err    error
	)
	for i := 0; i < attemptLimit; i++ {
		parsed, err = f.parser.ParseURLWithContext(url, ctx)
		if err == nil {
			break
		}
		if i == attemptLimit-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil || item.Link == "" {
			continue
		}
		e := Entry{Title: item.Title, Link: item.Link}
		if item.PublishedParsed != nil {
			e.Published = *item.PublishedParsed
		}
		entries = append(entries, e)
	}

	return entries, nil
}
