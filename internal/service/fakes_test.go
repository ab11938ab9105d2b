package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/timmy/agentfeed/internal/domain"
	"github.com/timmy/agentfeed/internal/provider"
	"github.com/timmy/agentfeed/internal/storage"
)

const testPublicBase = "https://cdn.test/media"

var errBoom = errors.New("boom")

// memStorage is an in-memory ObjectStorage.
type memStorage struct {
	mu         sync.Mutex
	objects    map[string][]byte
	meta       map[string]storage.ObjectMeta
	public     map[string]bool
	failStore  func(key string) bool
	failPublic bool
}

func newMemStorage() *memStorage {
	return &memStorage{
		objects: map[string][]byte{},
		meta:    map[string]storage.ObjectMeta{},
		public:  map[string]bool{},
	}
}

func (s *memStorage) Store(_ context.Context, key string, data []byte, _ string, meta storage.ObjectMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failStore != nil && s.failStore(key) {
		return &domain.StorageError{Op: "store", Key: key, Err: errBoom}
	}
	s.objects[key] = data
	s.meta[key] = meta
	return nil
}

func (s *memStorage) MakePublic(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPublic {
		return "", &domain.StorageError{Op: "make_public", Key: key, Err: errBoom}
	}
	s.public[key] = true
	return s.GetURL(key), nil
}

func (s *memStorage) Download(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, &domain.StorageError{Op: "download", Key: key, Err: domain.ErrNotFound}
	}
	return data, nil
}

func (s *memStorage) GetURL(key string) string { return testPublicBase + "/" + key }

func (s *memStorage) KeyFromURL(rawURL string) (string, bool) {
	for _, prefix := range []string{"gs://media/", testPublicBase + "/"} {
		if strings.HasPrefix(rawURL, prefix) {
			return strings.TrimPrefix(rawURL, prefix), true
		}
	}
	return "", false
}

func (s *memStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *memStorage) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok, nil
}

func (s *memStorage) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.objects))
	for k := range s.objects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// fakeImages records every image request.
type fakeImages struct {
	mu    sync.Mutex
	calls []provider.ImageRequest
	fn    func(req provider.ImageRequest) (*domain.MediaArtifact, error)
}

func (f *fakeImages) GenerateImage(_ context.Context, req provider.ImageRequest) (*domain.MediaArtifact, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if f.fn != nil {
		return f.fn(req)
	}
	return &domain.MediaArtifact{Data: []byte("png:" + req.AspectRatio), ContentType: domain.ContentTypePNG, Model: "imagen-test", AspectRatio: req.AspectRatio}, nil
}

func (f *fakeImages) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// failRatio fails requests for one aspect ratio.
func failRatio(ratio string) func(req provider.ImageRequest) (*domain.MediaArtifact, error) {
	return func(req provider.ImageRequest) (*domain.MediaArtifact, error) {
		if req.AspectRatio == ratio {
			return nil, &domain.ProviderError{Provider: provider.NameImagen, StatusCode: 500, Message: "unavailable"}
		}
		return &domain.MediaArtifact{Data: []byte("png"), ContentType: domain.ContentTypePNG, Model: "imagen-test", AspectRatio: req.AspectRatio}, nil
	}
}

type fakeEditor struct {
	mu    sync.Mutex
	calls []provider.EditRequest
	fail  map[string]bool
}

func (f *fakeEditor) EditImage(_ context.Context, req provider.EditRequest) (*domain.MediaArtifact, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if f.fail[req.AspectRatio] {
		return nil, errBoom
	}
	return &domain.MediaArtifact{Data: []byte("edited"), ContentType: domain.ContentTypePNG, AspectRatio: req.AspectRatio}, nil
}

// fakeVideo scripts a long-running job.
type fakeVideo struct {
	submitErr  error
	handle     string
	statuses   []*provider.VideoStatus
	pollErr    error
	submits    int
	polls      int
	lastSubmit provider.VideoRequest
}

func (f *fakeVideo) SubmitVideo(_ context.Context, req provider.VideoRequest) (string, error) {
	f.submits++
	f.lastSubmit = req
	if f.submitErr != nil {
		return "", f.submitErr
	}
	return f.handle, nil
}

func (f *fakeVideo) PollVideo(context.Context, string) (*provider.VideoStatus, error) {
	f.polls++
	if f.pollErr != nil {
		return nil, f.pollErr
	}
	if len(f.statuses) == 0 {
		return &provider.VideoStatus{}, nil
	}
	st := f.statuses[0]
	if len(f.statuses) > 1 {
		f.statuses = f.statuses[1:]
	}
	return st, nil
}

type fakeResearcher struct {
	err         error
	fallbackErr error
	calls       int
	fallbacks   int
	topics      []string
}

func (f *fakeResearcher) Research(_ context.Context, topic string) (*domain.ResearchResult, error) {
	f.calls++
	f.topics = append(f.topics, topic)
	if f.err != nil {
		return nil, f.err
	}
	return &domain.ResearchResult{Topic: topic, Headline: "Grounded headline", Source: "Wire", Citations: []domain.Citation{{URL: "https://wire.test/a"}}, Grounded: true}, nil
}

func (f *fakeResearcher) ResearchFallback(_ context.Context, topic string) (*domain.ResearchResult, error) {
	f.fallbacks++
	if f.fallbackErr != nil {
		return nil, f.fallbackErr
	}
	return &domain.ResearchResult{Topic: topic, Headline: "Fallback headline", Source: "General knowledge", Citations: []domain.Citation{}}, nil
}

type fakeWriter struct {
	draft *domain.ContentDraft
	err   error
}

func (f *fakeWriter) Write(context.Context, string, *domain.ResearchResult) (*domain.ContentDraft, error) {
	if f.err != nil {
		return nil, f.err
	}
	d := *f.draft
	return &d, nil
}

type fakeVoice struct {
	err   error
	calls int
}

func (f *fakeVoice) Synthesize(context.Context, string, domain.VoiceSpec) (*domain.MediaArtifact, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &domain.MediaArtifact{Data: []byte("mp3"), ContentType: domain.ContentTypeMPEG, Model: "tts"}, nil
}

// memPosts is an in-memory PostStore.
type memPosts struct {
	mu        sync.Mutex
	posts     map[string]*domain.PublishRecord
	putErr    error
	latestErr error
	scores    map[string]float64
	topErr    map[string]error
}

func newMemPosts() *memPosts {
	return &memPosts{posts: map[string]*domain.PublishRecord{}, scores: map[string]float64{}}
}

func (m *memPosts) Put(_ context.Context, post *domain.PublishRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	cp := *post
	m.posts[post.ID] = &cp
	return nil
}

func (m *memPosts) LatestByAuthor(_ context.Context, author string) (*domain.PublishRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.latestErr != nil {
		return nil, m.latestErr
	}
	var latest *domain.PublishRecord
	for _, p := range m.posts {
		if p.Author == author && (latest == nil || p.CreatedAt.After(latest.CreatedAt)) {
			latest = p
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *memPosts) GetByID(_ context.Context, id string) (*domain.PublishRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPosts) CountByAuthor(_ context.Context, author string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, p := range m.posts {
		if p.Author == author {
			n++
		}
	}
	return n, nil
}

func (m *memPosts) UpdateMedia(_ context.Context, id, mediaURL string, gen *domain.MediaGeneration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.MediaURL = mediaURL
	p.MediaGeneration = gen
	return nil
}

func (m *memPosts) UpdateDualRatio(_ context.Context, id, portraitURL, landscapeURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return domain.ErrNotFound
	}
	if portraitURL != "" {
		p.MediaURLPortrait = portraitURL
	}
	if landscapeURL != "" {
		p.MediaURLLandscape = landscapeURL
	}
	return nil
}

func (m *memPosts) ListPublishedSince(_ context.Context, since time.Time, limit int) ([]domain.PublishRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.PublishRecord
	for _, p := range m.posts {
		if p.Status == domain.PostStatusPublished && !p.CreatedAt.Before(since) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memPosts) UpdateEngagementScore(_ context.Context, id string, score float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores[id] = score
	if p, ok := m.posts[id]; ok {
		p.EngagementScore = score
	}
	return nil
}

func (m *memPosts) TopByCategory(_ context.Context, category string, limit int) ([]domain.PublishRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.topErr[category] != nil {
		return nil, m.topErr[category]
	}
	var out []domain.PublishRecord
	for _, p := range m.posts {
		if p.Status != domain.PostStatusPublished {
			continue
		}
		for _, c := range p.Categories {
			if c == category {
				out = append(out, *p)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EngagementScore > out[j].EngagementScore })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memPosts) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.posts)
}

type memAudit struct {
	mu      sync.Mutex
	entries []*domain.AgentLog
	err     error
}

func (a *memAudit) Append(_ context.Context, entry *domain.AgentLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.entries = append(a.entries, entry)
	return nil
}

func (a *memAudit) byType(t domain.AgentLogType) []*domain.AgentLog {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []*domain.AgentLog
	for _, e := range a.entries {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type memContentLog struct {
	entries []*domain.CreatorContent
	err     error
}

func (c *memContentLog) Append(_ context.Context, entry *domain.CreatorContent) error {
	if c.err != nil {
		return c.err
	}
	c.entries = append(c.entries, entry)
	return nil
}

func testCreator(key string) domain.CreatorProfile {
	return domain.CreatorProfile{
		Key:            key,
		AuthorID:       "ai_" + key,
		Name:           strings.ToUpper(key),
		Personality:    "You are " + key,
		ResearchTopics: []string{key + " news"},
		Categories:     []string{"food", "feed"},
		MinInterval:    4 * time.Hour,
		Voice:          domain.VoiceSpec{LanguageCode: "en-US", Name: "en-US-Neural2-D", SSMLGender: "MALE"},
	}
}

type memTrending struct {
	lists map[string]*domain.TrendingList
}

func (m *memTrending) Save(_ context.Context, list *domain.TrendingList) error {
	if m.lists == nil {
		m.lists = map[string]*domain.TrendingList{}
	}
	cp := *list
	m.lists[list.Category] = &cp
	return nil
}

func (m *memTrending) List(context.Context) ([]domain.TrendingList, error) {
	out := make([]domain.TrendingList, 0, len(m.lists))
	for _, l := range m.lists {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}
