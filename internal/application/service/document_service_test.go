package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/post-review/internal/application/dispatcher"
	"github.com/garyjia/post-review/internal/application/port"
	"github.com/garyjia/post-review/internal/application/workflow"
	"github.com/garyjia/post-review/internal/domain/entity"
	"github.com/garyjia/post-review/internal/domain/event"
	domainwf "github.com/garyjia/post-review/internal/domain/workflow"
)

type mockLogger struct {
	mu     sync.Mutex
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

type memRow struct {
	doc     *entity.Document
	state   domainwf.State
	content string
}

type memDocumentRepo struct {
	mu      sync.Mutex
	rows    []*memRow
	listErr error
}

func (m *memDocumentRepo) Create(ctx context.Context, doc *entity.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, &memRow{doc: doc, state: doc.State(), content: doc.RawContent()})
	return nil
}

func (m *memDocumentRepo) row(id int64) (*memRow, error) {
	if id < 1 || int(id) > len(m.rows) {
		return nil, port.ErrDocumentNotFound
	}
	return m.rows[id-1], nil
}

func (m *memDocumentRepo) GetByID(ctx context.Context, id int64) (*entity.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, err := m.row(id)
	if err != nil {
		return nil, err
	}
	doc, err := entity.RestoreDocument(r.state, r.content)
	if err != nil {
		return nil, err
	}
	doc.ID = id
	doc.Title = r.doc.Title
	return doc, nil
}

func (m *memDocumentRepo) UpdateState(ctx context.Context, id int64, state domainwf.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, err := m.row(id)
	if err != nil {
		return err
	}
	r.state = state
	return nil
}

func (m *memDocumentRepo) AppendText(ctx context.Context, id int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, err := m.row(id)
	if err != nil {
		return err
	}
	r.content += text
	return nil
}

func (m *memDocumentRepo) List(ctx context.Context, limit, offset int) ([]*entity.Document, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*entity.Document
	for i := len(m.rows); i >= 1; i-- {
		doc, _ := m.GetByID(ctx, int64(i))
		out = append(out, doc)
	}
	return out, nil
}

type memHistoryRepo struct {
	mu      sync.Mutex
	records []*entity.DocumentHistory
}

func (m *memHistoryRepo) Create(ctx context.Context, h *entity.DocumentHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h.ID = int64(len(m.records) + 1)
	m.records = append(m.records, h)
	return nil
}

func (m *memHistoryRepo) GetByDocumentID(ctx context.Context, id int64) ([]*entity.DocumentHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.DocumentHistory
	for _, h := range m.records {
		if h.DocumentID == id {
			out = append(out, h)
		}
	}
	return out, nil
}

type passthroughTx struct{}

func (passthroughTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type serviceFixture struct {
	svc     DocumentService
	docs    *memDocumentRepo
	history *memHistoryRepo
	disp    dispatcher.Dispatcher
	logger  *mockLogger
}

func newServiceFixture(t *testing.T, opts ...workflow.EngineOption) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		docs:    &memDocumentRepo{},
		history: &memHistoryRepo{},
		disp:    dispatcher.NewDispatcher(),
		logger:  &mockLogger{},
	}
	opts = append([]workflow.EngineOption{workflow.WithDispatcher(f.disp)}, opts...)
	engine := workflow.NewEngine(f.docs, f.history, passthroughTx{}, opts...)
	f.svc = NewDocumentService(f.docs, f.history, passthroughTx{}, engine, f.disp, f.logger)
	return f
}

func TestDocumentService_SaladScenario(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	doc, err := f.svc.Create(ctx, "Lunch", "alice")
	require.NoError(t, err)
	assert.Equal(t, domainwf.StateDraft, doc.State())

	_, err = f.svc.AddText(ctx, doc.ID, "I ate a salad for lunch today", "alice")
	require.NoError(t, err)

	content, err := f.svc.Content(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, content)

	result, err := f.svc.RequestReview(ctx, doc.ID, "alice")
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.Equal(t, domainwf.StatePendingReview, result.NewState)

	content, err = f.svc.Content(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, content)

	result, err = f.svc.Approve(ctx, doc.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, domainwf.StatePublished, result.NewState)

	content, err = f.svc.Content(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "I ate a salad for lunch today", content)
}

func TestDocumentService_Create(t *testing.T) {
	t.Run("trims title and records history", func(t *testing.T) {
		f := newServiceFixture(t)

		doc, err := f.svc.Create(context.Background(), "  Draft post  ", "")
		require.NoError(t, err)
		assert.Equal(t, "Draft post", doc.Title)
		assert.False(t, doc.CreatedAt.IsZero())

		history, err := f.svc.History(context.Background(), doc.ID)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, entity.ActionCreate, history[0].ActionType)
		assert.Equal(t, entity.ActorSystem, history[0].Actor)
		assert.Equal(t, "DRAFT", history[0].NewState)
	})

	t.Run("rejects long titles", func(t *testing.T) {
		f := newServiceFixture(t)

		_, err := f.svc.Create(context.Background(), strings.Repeat("x", MaxTitleLength+1), "")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("emits created event", func(t *testing.T) {
		f := newServiceFixture(t)
		got := make(chan *event.Event, 1)
		f.disp.Subscribe(event.TypeDocumentCreated, func(ctx context.Context, evt *event.Event) error {
			got <- evt
			return nil
		})

		doc, err := f.svc.Create(context.Background(), "Hello", "carol")
		require.NoError(t, err)

		evt := <-got
		assert.Equal(t, doc.ID, evt.DocumentID)
		assert.Equal(t, "Hello", evt.GetPayloadString(event.KeyTitle))
		assert.Equal(t, "carol", evt.GetPayloadString(event.KeyActor))
	})
}

func TestDocumentService_AddText(t *testing.T) {
	t.Run("allowed after publish", func(t *testing.T) {
		f := newServiceFixture(t)
		ctx := context.Background()

		doc, err := f.svc.Create(ctx, "", "")
		require.NoError(t, err)
		_, err = f.svc.AddText(ctx, doc.ID, "one", "")
		require.NoError(t, err)
		_, err = f.svc.RequestReview(ctx, doc.ID, "")
		require.NoError(t, err)
		_, err = f.svc.Approve(ctx, doc.ID, "")
		require.NoError(t, err)

		updated, err := f.svc.AddText(ctx, doc.ID, " two", "")
		require.NoError(t, err)
		assert.Equal(t, "one two", updated.Content())

		content, err := f.svc.Content(ctx, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, "one two", content)
	})

	t.Run("control characters are kept verbatim", func(t *testing.T) {
		f := newServiceFixture(t)
		ctx := context.Background()
		parts := []string{"a\fb", "\x1b[1mbold", "\x00z", "\r\n"}

		doc, err := f.svc.Create(ctx, "", "")
		require.NoError(t, err)
		for _, part := range parts {
			_, err = f.svc.AddText(ctx, doc.ID, part, "")
			require.NoError(t, err)
		}
		_, err = f.svc.RequestReview(ctx, doc.ID, "")
		require.NoError(t, err)
		_, err = f.svc.Approve(ctx, doc.ID, "")
		require.NoError(t, err)

		content, err := f.svc.Content(ctx, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, strings.Join(parts, ""), content)
	})

	t.Run("missing document", func(t *testing.T) {
		f := newServiceFixture(t)

		_, err := f.svc.AddText(context.Background(), 42, "text", "")
		assert.ErrorIs(t, err, port.ErrDocumentNotFound)
		assert.Empty(t, f.logger.errors, "not-found is not logged as an error")
	})
}

func TestDocumentService_InvalidRequestsAreNoOps(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	doc, err := f.svc.Create(ctx, "", "")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		result, err := f.svc.Approve(ctx, doc.ID, "")
		require.NoError(t, err)
		assert.False(t, result.Changed)
		assert.Equal(t, domainwf.StateDraft, result.NewState)
	}

	history, err := f.svc.History(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, history, 4)
}

func TestDocumentService_StrictMode(t *testing.T) {
	f := newServiceFixture(t, workflow.WithStrictTransitions(true))
	ctx := context.Background()

	doc, err := f.svc.Create(ctx, "", "")
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, doc.ID, "")
	assert.True(t, errors.Is(err, domainwf.ErrInvalidTransition))
}

func TestDocumentService_List(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	for _, title := range []string{"a", "b", "c"} {
		_, err := f.svc.Create(ctx, title, "")
		require.NoError(t, err)
	}

	docs, err := f.svc.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "c", docs[0].Title)

	f.docs.listErr = errors.New("db down")
	_, err = f.svc.List(ctx, 10, 0)
	assert.Error(t, err)
	assert.Len(t, f.logger.errors, 1)
}

func TestDocumentService_HistoryMissingDocument(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.History(context.Background(), 7)
	assert.ErrorIs(t, err, port.ErrDocumentNotFound)
}
