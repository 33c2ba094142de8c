package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"tabi/internal/agents"
	"tabi/internal/models/db_models"
	"tabi/internal/repositories"
)

// inlineJobs runs submitted work before Submit returns. A panic is handed to
// onAbort the way jobs.Runner does it.
type inlineJobs struct{ errs []error }

func (j *inlineJobs) Submit(_ string, fn func(ctx context.Context) error, onAbort func(ctx context.Context, err error)) error {
	var err error
	func() {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("panicked: %v", p)
				if onAbort != nil {
					onAbort(context.Background(), err)
				}
			}
		}()
		err = fn(context.Background())
	}()
	j.errs = append(j.errs, err)
	return nil
}

type fakeAccounts struct {
	mu   sync.Mutex
	byID map[string]*db_models.Account
}

func newFakeAccounts() *fakeAccounts { return &fakeAccounts{byID: map[string]*db_models.Account{}} }

func (f *fakeAccounts) InsertTx(a *db_models.Account, _ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	cp := *a
	f.byID[a.ID.String()] = &cp
	return nil
}

func (f *fakeAccounts) FindById(_ context.Context, id string) (*db_models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[id], nil
}

func (f *fakeAccounts) find(match func(*db_models.Account) bool) *db_models.Account {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.byID {
		if match(a) {
			return a
		}
	}
	return nil
}

func (f *fakeAccounts) FindByUsername(_ context.Context, username string) (*db_models.Account, error) {
	return f.find(func(a *db_models.Account) bool { return a.Username == username }), nil
}

func (f *fakeAccounts) FindByEmail(_ context.Context, email string) (*db_models.Account, error) {
	return f.find(func(a *db_models.Account) bool { return strings.EqualFold(a.Email, email) }), nil
}

type fakePlans struct {
	mu    sync.Mutex
	plans map[string]*db_models.Plan
	seq   int64
}

func newFakePlans() *fakePlans { return &fakePlans{plans: map[string]*db_models.Plan{}} }

func (f *fakePlans) Create(_ context.Context, p *db_models.Plan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.seq++
	p.CreatedAt = f.seq
	cp := *p
	f.plans[p.ID.String()] = &cp
	return nil
}

func (f *fakePlans) FindByID(_ context.Context, id string) (*db_models.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.plans[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakePlans) ListByAccount(_ context.Context, accountID string, page, pageSize int) ([]db_models.Plan, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db_models.Plan
	for _, p := range f.plans {
		if p.AccountID.String() == accountID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	total := int64(len(out))
	start := min((page-1)*pageSize, len(out))
	end := min(start+pageSize, len(out))
	return out[start:end], total, nil
}

func (f *fakePlans) Update(_ context.Context, p *db_models.Plan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.plans[p.ID.String()] = &cp
	return nil
}

func (f *fakePlans) MarkStatus(_ context.Context, id string, status db_models.PlanStatus, msg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.plans[id]
	if !ok {
		return errors.New("no plan")
	}
	p.Status = status
	p.Error = msg
	return nil
}

func (f *fakePlans) ResetStale(context.Context) (int64, error) { return 0, nil }

type fakeDocuments struct {
	mu      sync.Mutex
	docs    map[string]*db_models.Document
	chunks  map[string][]db_models.Chunk
	nearest []repositories.ChunkDistance
}

func newFakeDocuments() *fakeDocuments {
	return &fakeDocuments{docs: map[string]*db_models.Document{}, chunks: map[string][]db_models.Chunk{}}
}

func (f *fakeDocuments) Create(_ context.Context, d *db_models.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	cp := *d
	f.docs[d.ID.String()] = &cp
	return nil
}

func (f *fakeDocuments) FindByID(_ context.Context, id string) (*db_models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (f *fakeDocuments) List(context.Context, int, int) ([]db_models.Document, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db_models.Document
	for _, d := range f.docs {
		out = append(out, *d)
	}
	return out, int64(len(out)), nil
}

func (f *fakeDocuments) MarkReady(_ context.Context, id string, n int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[id].Status = db_models.DocumentReady
	f.docs[id].ChunkCount = n
	return nil
}

func (f *fakeDocuments) MarkFailed(_ context.Context, id string, msg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[id].Status = db_models.DocumentFailed
	f.docs[id].Error = msg
	return nil
}

func (f *fakeDocuments) ReplaceChunks(_ context.Context, id string, chunks []db_models.Chunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chunks[id] = chunks
	return nil
}

func (f *fakeDocuments) ResetStale(context.Context) (int64, error) { return 0, nil }

func (f *fakeDocuments) NearestChunks(context.Context, pgvector.Vector, int) ([]repositories.ChunkDistance, error) {
	return f.nearest, nil
}

// fakeEmbedder maps each text to a vector holding its rune count.
type fakeEmbedder struct {
	calls int
	err   error
}

func (e *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len([]rune(t))), 1}
	}
	return out, nil
}

type fakePlanner struct {
	content string
	title   string
	err     error
}

func (p *fakePlanner) Plan(context.Context, string) (*agents.Result, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &agents.Result{Content: p.content, Steps: []agents.Step{{Agent: "pathfinder", Tool: "find_cities_between"}}}, nil
}

func (p *fakePlanner) Title(context.Context, string) (string, error) {
	if p.title == "" {
		return "", errors.New("no title")
	}
	return p.title, nil
}

type sentMail struct{ to, title, url string }

type fakeMailer struct{ sent []sentMail }

func (m *fakeMailer) SendPlanReady(to, title, url string) error {
	m.sent = append(m.sent, sentMail{to, title, url})
	return nil
}
