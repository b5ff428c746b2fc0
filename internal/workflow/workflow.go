package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goreforced/YCTNewsBot-TG/internal/articles"
	"github.com/goreforced/YCTNewsBot-TG/internal/feed"
	"github.com/goreforced/YCTNewsBot-TG/internal/logging"
)

// State — состояние элемента на проверке
type State int

const (
	// StatePending — статья ждёт решения админа, заголовок и пересказ заполнены
	StatePending State = iota
	// StateEditingTitle — бот ждёт от админа новый заголовок
	StateEditingTitle
	// StateEditingSummary — бот ждёт от админа новый пересказ
	StateEditingSummary
)

// Item — статья, ожидающая approve/edit/reject.
// Принадлежит ровно одному чату; удаляется при approve или reject
type Item struct {
	ID        string
	Article   articles.Article
	State     State
	ChatID    int64
	MessageID int // сообщение с карточкой статьи, у которого живут кнопки
}

// FeedSource отдаёт записи RSS-лент
type FeedSource interface {
	FetchAll(ctx context.Context) ([]feed.Entry, error)
}

// Summarizer делает русский заголовок и пересказ по ссылке
type Summarizer interface {
	Summarize(ctx context.Context, link string) (title, summary string, err error)
}

// Publisher доставляет готовую статью в каналы
type Publisher interface {
	Publish(ctx context.Context, a articles.Article) error
}

// Store — хранилище уже опубликованных статей
type Store interface {
	Exists(fingerprint string) (bool, error)
	Add(a articles.Article) (bool, error)
}

// Deps — внешние зависимости workflow
type Deps struct {
	Feeds      FeedSource
	Summarizer Summarizer
	Publisher  Publisher
	Store      Store
}

// Workflow превращает свежие статьи из лент в опубликованные,
// проводя их через проверку человеком.
// Все сессии (chat id -> item id -> Item) живут в памяти процесса
type Workflow struct {
	feeds      FeedSource
	summarizer Summarizer
	publisher  Publisher
	store      Store

	// Защищает sessions и все операции со Store внутри операций workflow.
	// Планировщик автопостинга ходит через этот же mutex
	mu       sync.Mutex
	sessions map[int64]map[string]*Item
}

// New возвращает новый Workflow
func New(deps Deps) *Workflow {
	return &Workflow{
		feeds:      deps.Feeds,
		summarizer: deps.Summarizer,
		publisher:  deps.Publisher,
		store:      deps.Store,
		sessions:   make(map[int64]map[string]*Item),
	}
}

// Status — результат перехода элемента
type Status int

const (
	// StatusPublished — статья опубликована и записана в хранилище
	StatusPublished Status = iota + 1
	// StatusDiscarded — статья отклонена без следа в хранилище
	StatusDiscarded
	// StatusAwaitingTitle — бот ждёт новый заголовок
	StatusAwaitingTitle
	// StatusAwaitingSummary — бот ждёт новый пересказ
	StatusAwaitingSummary
	// StatusPending — элемент вернулся к полному набору кнопок
	StatusPending
)

// ControlResult — результат HandleControl. Item — копия на момент перехода
type ControlResult struct {
	Status Status
	Item   Item
}

// TextResult — результат HandleTextInput
type TextResult struct {
	// Consumed == false означает, что текст не относится к workflow
	// и должен быть обработан как обычное сообщение
	Consumed bool
	Status   Status
	Item     Item
}

// FetchCandidates опрашивает ленты, отбрасывает уже опубликованные статьи,
// суммаризирует до limit оставшихся (параллельно) и создаёт элементы
// на проверку для чата chatID.
// Пустой результат — не ошибка: новых статей просто нет
func (w *Workflow) FetchCandidates(ctx context.Context, chatID int64, limit int) ([]*Item, error) {
	entries, err := w.feeds.FetchAll(ctx)
	if err != nil {
		return nil, &Failure{Reason: ReasonUpstream, Err: err}
	}

	candidates := w.filterNew(chatID, entries, limit)
	if len(candidates) == 0 {
		return []*Item{}, nil
	}

	// Суммаризация независима для каждой статьи: fan-out без общего состояния,
	// неудачная статья выпадает из пачки, остальные продолжают
	var (
		mu        sync.Mutex
		summaries = make(map[string][2]string, len(candidates))
		wg        sync.WaitGroup
	)
	for _, entry := range candidates {
		wg.Add(1)
		go func(entry feed.Entry) {
			defer wg.Done()

			title, summary, err := w.summarizer.Summarize(ctx, entry.Link)
			if err != nil {
				logging.LogMinorError("FetchCandidates", "суммаризация "+entry.Link, err)
				return
			}
			mu.Lock()
			summaries[entry.Link] = [2]string{title, summary}
			mu.Unlock()
		}(entry)
	}
	wg.Wait()

	w.mu.Lock()
	defer w.mu.Unlock()

	items := make([]*Item, 0, len(summaries))
	for _, entry := range candidates {
		s, ok := summaries[entry.Link]
		if !ok {
			continue
		}
		item := &Item{
			ID: uuid.NewString(),
			Article: articles.Article{
				Title:     s[0],
				Summary:   s[1],
				Link:      entry.Link,
				Source:    articles.SourceHost(entry.Link),
				FetchedAt: time.Now(),
			},
			State:  StatePending,
			ChatID: chatID,
		}
		if w.sessions[chatID] == nil {
			w.sessions[chatID] = make(map[string]*Item)
		}
		w.sessions[chatID][item.ID] = item
		items = append(items, item)
	}

	return items, nil
}

// filterNew отбирает до limit записей, которых нет ни в хранилище,
// ни среди ожидающих проверки в этом чате
func (w *Workflow) filterNew(chatID int64, entries []feed.Entry, limit int) []feed.Entry {
	w.mu.Lock()
	pending := make(map[string]bool)
	for _, item := range w.sessions[chatID] {
		pending[item.Article.Link] = true
	}
	w.mu.Unlock()

	seen := make(map[string]bool)
	result := make([]feed.Entry, 0, limit)
	for _, entry := range entries {
		if len(result) >= limit {
			break
		}
		if seen[entry.Link] || pending[entry.Link] {
			continue
		}
		seen[entry.Link] = true

		exists, err := w.store.Exists(articles.Fingerprint(entry.Link))
		if err != nil {
			logging.LogMinorError("filterNew", "проверка дубликата "+entry.Link, err)
			continue
		}
		if exists {
			continue
		}
		result = append(result, entry)
	}

	return result
}

// SetMessageID привязывает к элементу id отправленной карточки
func (w *Workflow) SetMessageID(chatID int64, itemID string, messageID int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if item, ok := w.sessions[chatID][itemID]; ok {
		item.MessageID = messageID
	}
}

// PendingCount возвращает количество элементов на проверке в чате
func (w *Workflow) PendingCount(chatID int64) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.sessions[chatID])
}

// HandleControl обрабатывает нажатие inline-кнопки.
// Повторное нажатие по уже обработанному элементу — no-op с ReasonNotFound
func (w *Workflow) HandleControl(ctx context.Context, chatID int64, itemID string, action Action) (*ControlResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	item, ok := w.sessions[chatID][itemID]
	if !ok {
		return nil, &Failure{Reason: ReasonNotFound}
	}

	switch action {
	case ActionApprove:
		if item.State != StatePending {
			return nil, &Failure{Reason: ReasonInvalidState}
		}
		// Ту же статью мог уже опубликовать другой чат
		exists, err := w.store.Exists(articles.Fingerprint(item.Article.Link))
		if err != nil {
			return nil, &Failure{Reason: ReasonUpstream, Err: err}
		}
		if exists {
			w.remove(chatID, itemID)
			return nil, &Failure{Reason: ReasonDuplicate}
		}
		// Сначала доставка, потом запись в хранилище: повторный Approve
		// после сбоя доставки не создаёт записи-призрака,
		// а после потерянного ответа упирается в insert-if-absent
		if err := w.publisher.Publish(ctx, item.Article); err != nil {
			return nil, &Failure{Reason: ReasonDelivery, Err: err}
		}
		if _, err := w.store.Add(item.Article); err != nil {
			logging.LogMinorError("HandleControl", "запись в хранилище "+item.Article.Link, err)
		}
		w.remove(chatID, itemID)
		return &ControlResult{Status: StatusPublished, Item: *item}, nil

	case ActionReject:
		if item.State != StatePending {
			return nil, &Failure{Reason: ReasonInvalidState}
		}
		w.remove(chatID, itemID)
		return &ControlResult{Status: StatusDiscarded, Item: *item}, nil

	case ActionEdit:
		if item.State != StatePending {
			return nil, &Failure{Reason: ReasonInvalidState}
		}
		item.State = StateEditingTitle
		return &ControlResult{Status: StatusAwaitingTitle, Item: *item}, nil

	case ActionKeepTitle:
		// То же самое, что прислать текущий заголовок текстом
		if item.State != StateEditingTitle {
			return nil, &Failure{Reason: ReasonInvalidState}
		}
		item.State = StateEditingSummary
		return &ControlResult{Status: StatusAwaitingSummary, Item: *item}, nil

	case ActionKeepSummary:
		if item.State != StateEditingSummary {
			return nil, &Failure{Reason: ReasonInvalidState}
		}
		item.State = StatePending
		return &ControlResult{Status: StatusPending, Item: *item}, nil
	}

	return nil, &Failure{Reason: ReasonInvalidState}
}

// HandleTextInput применяет свободный текст админа к элементу,
// ожидающему ввода. Если такого элемента нет, текст не трогается
// (Consumed == false) и обрабатывается выше как обычное сообщение
func (w *Workflow) HandleTextInput(ctx context.Context, chatID int64, text string) (*TextResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var awaiting []*Item
	for _, item := range w.sessions[chatID] {
		if item.State == StateEditingTitle || item.State == StateEditingSummary {
			awaiting = append(awaiting, item)
		}
	}

	if len(awaiting) == 0 {
		return &TextResult{Consumed: false}, nil
	}
	if len(awaiting) > 1 {
		return nil, &Failure{Reason: ReasonAmbiguous}
	}

	item := awaiting[0]
	switch item.State {
	case StateEditingTitle:
		item.Article.Title = text
		item.State = StateEditingSummary
		return &TextResult{Consumed: true, Status: StatusAwaitingSummary, Item: *item}, nil
	default:
		item.Article.Summary = text
		item.State = StatePending
		return &TextResult{Consumed: true, Status: StatusPending, Item: *item}, nil
	}
}

// PublishSingle — неинтерактивная публикация по ссылке ("запостить сейчас").
// Дубликат, сбой суммаризации или доставки прерывают операцию без записи
func (w *Workflow) PublishSingle(ctx context.Context, link string) (*articles.Article, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.publishLocked(ctx, link)
}

func (w *Workflow) publishLocked(ctx context.Context, link string) (*articles.Article, error) {
	exists, err := w.store.Exists(articles.Fingerprint(link))
	if err != nil {
		return nil, &Failure{Reason: ReasonUpstream, Err: err}
	}
	if exists {
		return nil, &Failure{Reason: ReasonDuplicate}
	}

	title, summary, err := w.summarizer.Summarize(ctx, link)
	if err != nil {
		return nil, &Failure{Reason: ReasonUpstream, Err: err}
	}

	a := articles.Article{
		Title:     title,
		Summary:   summary,
		Link:      link,
		Source:    articles.SourceHost(link),
		FetchedAt: time.Now(),
	}

	if err := w.publisher.Publish(ctx, a); err != nil {
		return nil, &Failure{Reason: ReasonDelivery, Err: err}
	}
	if _, err := w.store.Add(a); err != nil {
		logging.LogMinorError("PublishSingle", "запись в хранилище "+link, err)
	}

	return &a, nil
}

// AutoPost публикует самую свежую ещё не виденную статью из лент.
// Используется планировщиком. Если новых статей нет, возвращает (nil, nil)
func (w *Workflow) AutoPost(ctx context.Context) (*articles.Article, error) {
	entries, err := w.feeds.FetchAll(ctx)
	if err != nil {
		return nil, &Failure{Reason: ReasonUpstream, Err: err}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, entry := range entries {
		exists, err := w.store.Exists(articles.Fingerprint(entry.Link))
		if err != nil {
			logging.LogMinorError("AutoPost", "проверка дубликата "+entry.Link, err)
			continue
		}
		if exists {
			continue
		}
		return w.publishLocked(ctx, entry.Link)
	}

	return nil, nil
}

// remove удаляет элемент; опустевшая сессия чата тоже удаляется.
// Вызывать только под mutex
func (w *Workflow) remove(chatID int64, itemID string) {
	delete(w.sessions[chatID], itemID)
	if len(w.sessions[chatID]) == 0 {
		delete(w.sessions, chatID)
	}
}
