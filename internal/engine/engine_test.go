package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getbrandflow/brandflow/internal/models"
	"github.com/getbrandflow/brandflow/internal/publisher"
)

func TestPublishDraftRejectsUnapproved(t *testing.T) {
	h := newHarness()
	h.addBrand(simpleBrand(1))
	draft := approvedDraft(10, 1)
	draft.Status = models.DraftStatusPendingReview
	h.drafts.drafts[draft.ID] = draft

	outcome, err := h.engine.PublishDraft(context.Background(), draft, PublishOptions{PublishToWebsite: true})

	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Equal(t, "not approved", outcome.Error)
	assert.Zero(t, h.website.publishCount(), "no delivery may happen for unapproved drafts")
	assert.Empty(t, h.records.records)
	assert.Equal(t, models.DraftStatusPendingReview, draft.Status)
}

func TestPublishDraftModerationBlocks(t *testing.T) {
	h := newHarness()
	brand := simpleBrand(1)
	brand.StyleGuide.Blocklist = []string{"product line"}
	h.addBrand(brand)
	draft := approvedDraft(10, 1)
	h.drafts.drafts[draft.ID] = draft

	outcome, err := h.engine.PublishDraft(context.Background(), draft, PublishOptions{PublishToWebsite: true})

	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Equal(t, "moderation failed", outcome.Error)
	require.Len(t, outcome.Violations, 1)
	assert.Zero(t, h.website.publishCount())
}

func TestPublishDraftNoDestinations(t *testing.T) {
	h := newHarness()
	h.addBrand(simpleBrand(1))
	draft := approvedDraft(10, 1)
	h.drafts.drafts[draft.ID] = draft

	outcome, err := h.engine.PublishDraft(context.Background(), draft, PublishOptions{PublishToSocial: true})

	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Equal(t, ErrNoDestinations.Error(), outcome.Error)
}

func TestPublishDraftAllDestinationsSucceed(t *testing.T) {
	h := newHarness()
	h.addBrand(simpleBrand(1))
	h.addConnector(&models.SocialConnector{ID: 5, BrandID: 1, Platform: publisher.PlatformTwitter})
	h.assets.asset = &models.MediaAsset{DraftID: 10, FileURL: "https://cdn.example/hero.png"}
	draft := approvedDraft(10, 1)
	h.drafts.drafts[draft.ID] = draft

	outcome, err := h.engine.PublishDraft(context.Background(), draft, PublishOptions{
		PublishToWebsite: true,
		PublishToSocial:  true,
	})

	require.NoError(t, err)
	assert.True(t, outcome.Success)
	require.Len(t, outcome.Destinations, 2)
	for _, dest := range outcome.Destinations {
		assert.True(t, dest.Success, dest.Platform)
		assert.NotEmpty(t, dest.PostID)
	}

	assert.Equal(t, models.DraftStatusPublished, h.drafts.drafts[draft.ID].Status)
	assert.Len(t, h.records.records, 2)

	// website reuses the draft body; social gets a generated variant
	site := h.variants.byPlatform(publisher.PlatformWebsite)
	require.NotNil(t, site)
	assert.Equal(t, draft.Body, site.Content)
	assert.Equal(t, "https://cdn.example/hero.png", site.MediaURL)

	social := h.variants.byPlatform(publisher.PlatformTwitter)
	require.NotNil(t, social)
	assert.Equal(t, "short form for twitter", social.Content)
	assert.Equal(t, len([]rune(social.Content)), social.CharCount)
}

func TestPublishDraftPartialFailure(t *testing.T) {
	h := newHarness()
	h.addBrand(simpleBrand(1))
	h.addConnector(&models.SocialConnector{ID: 5, BrandID: 1, Platform: publisher.PlatformTwitter})
	h.twitter.publishErr = errors.New("twitter: 503 service unavailable")
	draft := approvedDraft(10, 1)
	h.drafts.drafts[draft.ID] = draft

	outcome, err := h.engine.PublishDraft(context.Background(), draft, PublishOptions{
		PublishToWebsite: true,
		PublishToSocial:  true,
	})

	require.NoError(t, err)
	assert.False(t, outcome.Success)
	require.Len(t, outcome.Destinations, 2)

	byPlatform := map[string]DestinationResult{}
	for _, dest := range outcome.Destinations {
		byPlatform[dest.Platform] = dest
	}
	assert.True(t, byPlatform[publisher.PlatformWebsite].Success, "one failing platform must not fail the others")
	assert.False(t, byPlatform[publisher.PlatformTwitter].Success)
	assert.Contains(t, byPlatform[publisher.PlatformTwitter].Error, "503")

	assert.Equal(t, models.DraftStatusFailed, h.drafts.drafts[draft.ID].Status)

	records, _ := h.records.ListByDraftID(context.Background(), draft.ID)
	require.Len(t, records, 2)
	for _, r := range records {
		if r.Platform == publisher.PlatformTwitter {
			assert.Contains(t, r.ErrorMessage, "503")
		} else {
			assert.Empty(t, r.ErrorMessage)
		}
	}
}

func TestPublishDraftRateLimitedDestination(t *testing.T) {
	h := newHarness()
	h.addBrand(simpleBrand(1))
	h.addConnector(&models.SocialConnector{ID: 5, BrandID: 1, Platform: publisher.PlatformTwitter})
	h.twitter.denyPost = true
	draft := approvedDraft(10, 1)
	h.drafts.drafts[draft.ID] = draft

	outcome, err := h.engine.PublishDraft(context.Background(), draft, PublishOptions{
		PublishToWebsite: true,
		PublishToSocial:  true,
	})

	require.NoError(t, err)
	assert.False(t, outcome.Success)

	byPlatform := map[string]DestinationResult{}
	for _, dest := range outcome.Destinations {
		byPlatform[dest.Platform] = dest
	}
	assert.Equal(t, "rate_limited", byPlatform[publisher.PlatformTwitter].Error)
	assert.True(t, byPlatform[publisher.PlatformWebsite].Success)
	assert.Zero(t, h.twitter.publishCount())
}

func TestPublishDraftSchedules(t *testing.T) {
	h := newHarness()
	brand := simpleBrand(1)
	brand.Settings.PostsPerDay = 4
	h.addBrand(brand)
	draft := approvedDraft(10, 1)
	h.drafts.drafts[draft.ID] = draft

	at := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	h.engine.now = func() time.Time { return at }

	outcome, err := h.engine.PublishDraft(context.Background(), draft, PublishOptions{
		Schedule:         true,
		PublishToWebsite: true,
	})

	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.True(t, outcome.Scheduled)
	// 4 posts/day from midnight: 00:00, 06:00, 12:00, 18:00
	want := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, want, outcome.PublishAt)

	assert.Equal(t, models.DraftStatusScheduled, h.drafts.drafts[draft.ID].Status)
	assert.Equal(t, want, h.drafts.drafts[draft.ID].PublishAt)

	require.Len(t, h.scheduler.calls, 1)
	call := h.scheduler.calls[0]
	assert.Equal(t, draft.ID, call.draftID)
	assert.Equal(t, want, call.publishAt)
	assert.False(t, call.opts.Schedule, "queued options must dispatch, not reschedule")

	assert.Zero(t, h.website.publishCount(), "scheduling must not deliver")
}

func TestPublishDraftDryRun(t *testing.T) {
	h := newHarness()
	h.addBrand(simpleBrand(1))
	h.addConnector(&models.SocialConnector{ID: 5, BrandID: 1, Platform: publisher.PlatformTwitter})
	draft := approvedDraft(10, 1)
	h.drafts.drafts[draft.ID] = draft

	outcome, err := h.engine.PublishDraft(context.Background(), draft, PublishOptions{
		PublishToWebsite: true,
		PublishToSocial:  true,
		DryRun:           true,
	})

	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.Len(t, outcome.Destinations, 2)

	assert.Zero(t, h.website.publishCount())
	assert.Zero(t, h.twitter.publishCount())
	assert.Empty(t, h.records.records)
	assert.Equal(t, models.DraftStatusApproved, h.drafts.drafts[draft.ID].Status)
}

func TestPublishDraftClaimedConcurrently(t *testing.T) {
	h := newHarness()
	h.addBrand(simpleBrand(1))
	draft := approvedDraft(10, 1)
	h.drafts.drafts[draft.ID] = draft

	release, err := h.engine.claim(draft.ID)
	require.NoError(t, err)
	defer release()

	_, err = h.engine.PublishDraft(context.Background(), draft, PublishOptions{PublishToWebsite: true})
	assert.ErrorIs(t, err, ErrDraftClaimed)
}

func TestPublishDraftClaimReleasedAfterUse(t *testing.T) {
	h := newHarness()
	h.addBrand(simpleBrand(1))
	draft := approvedDraft(10, 1)
	h.drafts.drafts[draft.ID] = draft

	for i := 0; i < 2; i++ {
		outcome, err := h.engine.PublishDraft(context.Background(), draft, PublishOptions{
			PublishToWebsite: true,
			DryRun:           true,
		})
		require.NoError(t, err)
		assert.True(t, outcome.Success)
	}
}

func TestPublishDraftExplicitPlatformWithoutConnector(t *testing.T) {
	h := newHarness()
	h.addBrand(simpleBrand(1))
	draft := approvedDraft(10, 1)
	h.drafts.drafts[draft.ID] = draft

	_, err := h.engine.PublishDraft(context.Background(), draft, PublishOptions{
		PublishToSocial: true,
		Platforms:       []string{publisher.PlatformTwitter},
	})

	assert.ErrorIs(t, err, publisher.ErrMissingConnector)
}

func TestPublishDraftUnknownPlatform(t *testing.T) {
	h := newHarness()
	h.addBrand(simpleBrand(1))
	draft := approvedDraft(10, 1)
	h.drafts.drafts[draft.ID] = draft

	_, err := h.engine.PublishDraft(context.Background(), draft, PublishOptions{
		PublishToSocial: true,
		Platforms:       []string{"myspace"},
	})

	assert.ErrorContains(t, err, "myspace")
}

func TestPublishScheduledSkipsWrongStatus(t *testing.T) {
	h := newHarness()
	h.addBrand(simpleBrand(1))
	draft := approvedDraft(10, 1)
	draft.Status = models.DraftStatusPublished
	h.drafts.drafts[draft.ID] = draft

	outcome, err := h.engine.PublishScheduled(context.Background(), draft.ID, PublishOptions{PublishToWebsite: true})

	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Zero(t, h.website.publishCount(), "redelivery of a finished draft must be a no-op")
}

func TestPublishScheduledDispatches(t *testing.T) {
	h := newHarness()
	h.addBrand(simpleBrand(1))
	draft := approvedDraft(10, 1)
	draft.Status = models.DraftStatusScheduled
	h.drafts.drafts[draft.ID] = draft

	outcome, err := h.engine.PublishScheduled(context.Background(), draft.ID, PublishOptions{PublishToWebsite: true})

	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.Equal(t, 1, h.website.publishCount())
	assert.Equal(t, models.DraftStatusPublished, h.drafts.drafts[draft.ID].Status)
}

func TestPublishScheduledFailsOnStaleModeration(t *testing.T) {
	h := newHarness()
	brand := simpleBrand(1)
	brand.StyleGuide.Blocklist = []string{"product line"}
	h.addBrand(brand)
	draft := approvedDraft(10, 1)
	draft.Status = models.DraftStatusScheduled
	h.drafts.drafts[draft.ID] = draft

	outcome, err := h.engine.PublishScheduled(context.Background(), draft.ID, PublishOptions{PublishToWebsite: true})

	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Equal(t, models.DraftStatusFailed, h.drafts.drafts[draft.ID].Status)
	assert.Zero(t, h.website.publishCount())
}

func TestNextPublishSlot(t *testing.T) {
	base := func(h, m int) time.Time {
		return time.Date(2026, 3, 10, h, m, 0, 0, time.UTC)
	}

	cases := []struct {
		name        string
		now         time.Time
		postsPerDay int
		want        time.Time
	}{
		{"mid-morning four per day", base(10, 0), 4, base(12, 0)},
		{"exactly on a slot moves to next", base(12, 0), 4, base(18, 0)},
		{"late evening rolls to next midnight", base(23, 0), 4, base(0, 0).AddDate(0, 0, 1)},
		{"one per day", base(10, 0), 1, base(0, 0).AddDate(0, 0, 1)},
		{"zero defaults to one per day", base(10, 0), 0, base(0, 0).AddDate(0, 0, 1)},
		{"just after midnight", base(0, 1), 24, base(1, 0)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, nextPublishSlot(tc.now, tc.postsPerDay))
		})
	}
}
