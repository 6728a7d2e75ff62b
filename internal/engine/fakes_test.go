package engine

import (
	"context"
	"database/sql"
	"sync"
	"time"

	cfg "github.com/getbrandflow/brandflow/configs"
	"github.com/getbrandflow/brandflow/internal/generation"
	"github.com/getbrandflow/brandflow/internal/models"
	"github.com/getbrandflow/brandflow/internal/moderation"
	"github.com/getbrandflow/brandflow/internal/publisher"
	"github.com/getbrandflow/brandflow/internal/trends"
)

type fakeBrandRepo struct {
	brands map[int64]*models.Brand
}

func (f *fakeBrandRepo) GetByID(ctx context.Context, id int64) (*models.Brand, error) {
	return f.brands[id], nil
}

func (f *fakeBrandRepo) ListActive(ctx context.Context) ([]*models.Brand, error) {
	var out []*models.Brand
	for _, b := range f.brands {
		if b.Active {
			out = append(out, b)
		}
	}
	return out, nil
}

type fakeDraftRepo struct {
	mu      sync.Mutex
	nextID  int64
	drafts  map[int64]*models.ContentDraft
	deleted int64
}

func newFakeDraftRepo(drafts ...*models.ContentDraft) *fakeDraftRepo {
	f := &fakeDraftRepo{drafts: make(map[int64]*models.ContentDraft), nextID: 100}
	for _, d := range drafts {
		f.drafts[d.ID] = d
	}
	return f
}

func (f *fakeDraftRepo) Create(ctx context.Context, tx *sql.Tx, draft *models.ContentDraft) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	copied := *draft
	copied.ID = f.nextID
	f.drafts[copied.ID] = &copied
	return copied.ID, nil
}

func (f *fakeDraftRepo) GetByID(ctx context.Context, id int64) (*models.ContentDraft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.drafts[id], nil
}

func (f *fakeDraftRepo) ListByBrandAndStatus(ctx context.Context, brandID int64, status string) ([]*models.ContentDraft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.ContentDraft
	for _, d := range f.drafts {
		if d.BrandID == brandID && d.Status == status {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDraftRepo) ListByStatus(ctx context.Context, status string) ([]*models.ContentDraft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.ContentDraft
	for _, d := range f.drafts {
		if d.Status == status {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDraftRepo) ListDue(ctx context.Context, now time.Time) ([]*models.ContentDraft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.ContentDraft
	for _, d := range f.drafts {
		if d.Status == models.DraftStatusScheduled && !d.PublishAt.After(now) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDraftRepo) UpdateStatus(ctx context.Context, status string, draftID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.drafts[draftID]; ok {
		d.Status = status
	}
	return nil
}

func (f *fakeDraftRepo) UpdateSchedule(ctx context.Context, draftID int64, publishAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.drafts[draftID]; ok {
		d.Status = models.DraftStatusScheduled
		d.PublishAt = publishAt
	}
	return nil
}

func (f *fakeDraftRepo) DeleteTerminalOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	terminal := map[string]bool{
		models.DraftStatusPublished: true,
		models.DraftStatusRejected:  true,
		models.DraftStatusFailed:    true,
	}
	var n int64
	for id, d := range f.drafts {
		if terminal[d.Status] && d.UpdatedAt.Before(cutoff) {
			delete(f.drafts, id)
			n++
		}
	}
	f.deleted += n
	return n, nil
}

type fakeTopicRepo struct {
	mu      sync.Mutex
	nextID  int64
	topics  map[int64]*models.Topic
	expired int64
}

func newFakeTopicRepo(topics ...*models.Topic) *fakeTopicRepo {
	f := &fakeTopicRepo{topics: make(map[int64]*models.Topic), nextID: 500}
	for _, t := range topics {
		f.topics[t.ID] = t
	}
	return f
}

func (f *fakeTopicRepo) Create(ctx context.Context, topic *models.Topic) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	copied := *topic
	copied.ID = f.nextID
	f.topics[copied.ID] = &copied
	return copied.ID, nil
}

func (f *fakeTopicRepo) GetByID(ctx context.Context, id int64) (*models.Topic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.topics[id], nil
}

func (f *fakeTopicRepo) ListByBrandAndStatus(ctx context.Context, brandID int64, status string) ([]*models.Topic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Topic
	for _, t := range f.topics {
		if t.BrandID == brandID && t.Status == status {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTopicRepo) UpdateStatus(ctx context.Context, status string, topicID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.topics[topicID]; ok {
		t.Status = status
	}
	return nil
}

func (f *fakeTopicRepo) ExpireOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, t := range f.topics {
		if t.Status == models.TopicStatusDiscovered && t.CreatedAt.Before(cutoff) {
			t.Status = models.TopicStatusExpired
			n++
		}
	}
	f.expired += n
	return n, nil
}

type fakeVariantRepo struct {
	mu       sync.Mutex
	variants []*models.ContentVariant
}

func (f *fakeVariantRepo) Create(ctx context.Context, variant *models.ContentVariant) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *variant
	f.variants = append(f.variants, &copied)
	return int64(len(f.variants)), nil
}

func (f *fakeVariantRepo) ListByDraftID(ctx context.Context, draftID int64) ([]*models.ContentVariant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.ContentVariant
	for _, v := range f.variants {
		if v.DraftID == draftID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeVariantRepo) byPlatform(platform string) *models.ContentVariant {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.variants {
		if v.Platform == platform {
			return v
		}
	}
	return nil
}

type engineConnectorRepo struct {
	mu         sync.Mutex
	connectors []*models.SocialConnector
}

func (f *engineConnectorRepo) Create(ctx context.Context, tx *sql.Tx, sc *models.SocialConnector) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connectors = append(f.connectors, sc)
	return int64(len(f.connectors)), nil
}

func (f *engineConnectorRepo) GetByID(ctx context.Context, id int64) (*models.SocialConnector, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sc := range f.connectors {
		if sc.ID == id {
			return sc, nil
		}
	}
	return nil, nil
}

func (f *engineConnectorRepo) GetByBrandAndPlatform(ctx context.Context, brandID int64, platform string) (*models.SocialConnector, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sc := range f.connectors {
		if sc.BrandID == brandID && sc.Platform == platform {
			return sc, nil
		}
	}
	return nil, nil
}

func (f *engineConnectorRepo) ListByBrand(ctx context.Context, brandID int64) ([]*models.SocialConnector, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.SocialConnector
	for _, sc := range f.connectors {
		if sc.BrandID == brandID {
			out = append(out, sc)
		}
	}
	return out, nil
}

func (f *engineConnectorRepo) ListExpiring(ctx context.Context, initialTime, finalTime time.Time) ([]*models.SocialConnector, error) {
	return nil, nil
}

func (f *engineConnectorRepo) SetToken(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt time.Time) error {
	return nil
}

func (f *engineConnectorRepo) UpdateRateCounters(ctx context.Context, id int64, postsThisHour int, hourStart time.Time, postsToday int, dayStart time.Time) error {
	return nil
}

func (f *engineConnectorRepo) TouchLastPosted(ctx context.Context, id int64, postedAt time.Time) error {
	return nil
}

func (f *engineConnectorRepo) Remove(ctx context.Context, id int64) error {
	return nil
}

type fakeRecordRepo struct {
	mu      sync.Mutex
	records []*models.PublishRecord
}

func (f *fakeRecordRepo) Create(ctx context.Context, record *models.PublishRecord) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *record
	f.records = append(f.records, &copied)
	return int64(len(f.records)), nil
}

func (f *fakeRecordRepo) ListByDraftID(ctx context.Context, draftID int64) ([]*models.PublishRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.PublishRecord
	for _, r := range f.records {
		if r.DraftID == draftID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeAssetRepo struct {
	asset *models.MediaAsset
}

func (f *fakeAssetRepo) Create(ctx context.Context, asset *models.MediaAsset) (int64, error) {
	f.asset = asset
	return 1, nil
}

func (f *fakeAssetRepo) GetLatestByDraftID(ctx context.Context, draftID int64) (*models.MediaAsset, error) {
	return f.asset, nil
}

type fakeGenClient struct {
	mu           sync.Mutex
	draftErr     error
	variantErr   error
	draftCount   int
	variantCalls []string
}

func (f *fakeGenClient) GenerateBrief(ctx context.Context, brand *models.Brand, topic *models.Topic) (string, error) {
	return "brief", nil
}

func (f *fakeGenClient) GenerateOutline(ctx context.Context, brand *models.Brand, brief string) (string, error) {
	return "outline", nil
}

func (f *fakeGenClient) GenerateDraft(ctx context.Context, brand *models.Brand, topic *models.Topic) (*generation.Draft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.draftErr != nil {
		return nil, f.draftErr
	}
	f.draftCount++
	return &generation.Draft{Title: "Generated title", Body: "Generated body"}, nil
}

func (f *fakeGenClient) GenerateVariant(ctx context.Context, brand *models.Brand, body, platform string) (*generation.Variant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.variantErr != nil {
		return nil, f.variantErr
	}
	f.variantCalls = append(f.variantCalls, platform)
	return &generation.Variant{
		Content:  "short form for " + platform,
		Hashtags: []string{"brand"},
	}, nil
}

func (f *fakeGenClient) ImproveContent(ctx context.Context, brand *models.Brand, body, feedback string) (string, error) {
	return body, nil
}

func (f *fakeGenClient) GenerateSEOMetadata(ctx context.Context, title, body string) (*models.SEOMetadata, error) {
	return &models.SEOMetadata{MetaTitle: title, Slug: "generated-title"}, nil
}

type scriptedPublisher struct {
	platform   string
	publishErr error
	denyPost   bool

	mu        sync.Mutex
	published []*models.ContentVariant
	refreshed int
}

func (s *scriptedPublisher) Publish(ctx context.Context, variant *models.ContentVariant, connector *models.SocialConnector) (*publisher.PublishResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.publishErr != nil {
		return nil, s.publishErr
	}
	s.published = append(s.published, variant)
	return &publisher.PublishResult{
		PostID:   s.platform + "-post-1",
		URL:      "https://" + s.platform + ".example/post-1",
		Platform: s.platform,
	}, nil
}

func (s *scriptedPublisher) Delete(ctx context.Context, postID string, connector *models.SocialConnector) bool {
	return true
}

func (s *scriptedPublisher) GetMetrics(ctx context.Context, postID string, connector *models.SocialConnector) publisher.Metrics {
	return publisher.Metrics{}
}

func (s *scriptedPublisher) RefreshToken(ctx context.Context, connector *models.SocialConnector) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshed++
	return nil
}

func (s *scriptedPublisher) CanPost(ctx context.Context, connector *models.SocialConnector) (bool, error) {
	return !s.denyPost, nil
}

func (s *scriptedPublisher) PlatformID() string {
	return s.platform
}

func (s *scriptedPublisher) publishCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.published)
}

type fakeScheduler struct {
	mu    sync.Mutex
	calls []scheduledCall
	err   error
}

type scheduledCall struct {
	draftID   int64
	opts      PublishOptions
	publishAt time.Time
}

func (f *fakeScheduler) EnqueuePublish(draftID int64, opts PublishOptions, publishAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, scheduledCall{draftID: draftID, opts: opts, publishAt: publishAt})
	return nil
}

type engineClassifier struct {
	flagged bool
}

func (c *engineClassifier) Classify(ctx context.Context, content string) (bool, error) {
	return c.flagged, nil
}

// harness bundles the engine with every fake so tests can assert on side
// effects directly.
type harness struct {
	engine     *Engine
	brands     *fakeBrandRepo
	drafts     *fakeDraftRepo
	topics     *fakeTopicRepo
	variants   *fakeVariantRepo
	connectors *engineConnectorRepo
	records    *fakeRecordRepo
	assets     *fakeAssetRepo
	gen        *fakeGenClient
	scheduler  *fakeScheduler
	website    *scriptedPublisher
	twitter    *scriptedPublisher
	facebook   *scriptedPublisher
}

func newHarness() *harness {
	h := &harness{
		brands:     &fakeBrandRepo{brands: make(map[int64]*models.Brand)},
		drafts:     newFakeDraftRepo(),
		topics:     newFakeTopicRepo(),
		variants:   &fakeVariantRepo{},
		connectors: &engineConnectorRepo{},
		records:    &fakeRecordRepo{},
		assets:     &fakeAssetRepo{},
		gen:        &fakeGenClient{},
		scheduler:  &fakeScheduler{},
		website:    &scriptedPublisher{platform: publisher.PlatformWebsite},
		twitter:    &scriptedPublisher{platform: publisher.PlatformTwitter},
		facebook:   &scriptedPublisher{platform: publisher.PlatformFacebook},
	}

	conf := cfg.Config{
		PublishTimeout:       time.Second,
		DraftRetentionDays:   30,
		TopicRetentionDays:   7,
		AutoApproveThreshold: 0.8,
	}

	h.engine = New(conf,
		h.brands, h.drafts, h.topics, h.variants, h.connectors, h.records, h.assets,
		moderation.NewGate(&engineClassifier{}),
		h.gen,
		publisher.NewRegistry(h.website, h.twitter, h.facebook),
		trends.NewRegistry(),
		h.scheduler,
	)
	return h
}

func (h *harness) addBrand(brand *models.Brand) *models.Brand {
	h.brands.brands[brand.ID] = brand
	return brand
}

func (h *harness) addConnector(sc *models.SocialConnector) *models.SocialConnector {
	h.connectors.connectors = append(h.connectors.connectors, sc)
	return sc
}

func simpleBrand(id int64) *models.Brand {
	return &models.Brand{ID: id, Name: "Acme", Active: true}
}

func approvedDraft(id, brandID int64) *models.ContentDraft {
	return &models.ContentDraft{
		ID:      id,
		BrandID: brandID,
		Title:   "Launch post",
		Body:    "Acme launches a new product line today.",
		Status:  models.DraftStatusApproved,
	}
}
