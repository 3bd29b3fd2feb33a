package businessflow

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/amirphl/Maskan/app/dto"
	"github.com/amirphl/Maskan/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClickDeduplication(t *testing.T) {
	ctx := context.Background()
	w := defaultWorld(t)
	link := w.addPromoterLink(t, "clickable001", listingID)
	visitor := dto.ClickHeaders{ForwardedFor: "203.0.113.7, 10.0.0.1", UserAgent: "Mozilla/5.0"}

	clickCount := func() int64 {
		l, err := w.links.ByID(ctx, link.ID)
		require.NoError(t, err)
		return l.ClickCount
	}

	resp, err := w.clickFlow.Click(ctx, "clickable001", visitor)
	require.NoError(t, err)
	assert.True(t, resp.Recorded)
	assert.Equal(t, listingID, resp.ListingID)
	assert.Equal(t, int64(1), clickCount())

	w.clickFlow.now = fixedClock(baseTime.Add(5 * time.Minute))
	resp, err = w.clickFlow.Click(ctx, "clickable001", visitor)
	require.NoError(t, err)
	assert.False(t, resp.Recorded)
	assert.Equal(t, "duplicate", resp.Reason)
	assert.Equal(t, int64(1), clickCount())

	w.clickFlow.now = fixedClock(baseTime.Add(VisitorBucket))
	resp, err = w.clickFlow.Click(ctx, "clickable001", visitor)
	require.NoError(t, err)
	assert.True(t, resp.Recorded)
	assert.Equal(t, int64(2), clickCount())

	n, err := w.clicks.Count(ctx, models.ClickEventFilter{TrackingLinkID: &link.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestClickDistinctVisitors(t *testing.T) {
	ctx := context.Background()
	w := defaultWorld(t)
	w.addPromoterLink(t, "clickable002", listingID)

	visitors := []dto.ClickHeaders{
		{ForwardedFor: "203.0.113.7", UserAgent: "Mozilla/5.0"},
		{ForwardedFor: "203.0.113.7", UserAgent: "curl/8.0"},
		{RealIP: "198.51.100.2", UserAgent: "Mozilla/5.0"},
		{UserAgent: "Mozilla/5.0"},
	}
	for _, v := range visitors {
		resp, err := w.clickFlow.Click(ctx, "clickable002", v)
		require.NoError(t, err)
		assert.True(t, resp.Recorded)
	}
}

func TestClickStoresNoRawVisitorData(t *testing.T) {
	ctx := context.Background()
	w := defaultWorld(t)
	w.addPromoterLink(t, "clickable003", listingID)

	_, err := w.clickFlow.Click(ctx, "clickable003", dto.ClickHeaders{ForwardedFor: "203.0.113.7", UserAgent: "Mozilla/5.0"})
	require.NoError(t, err)

	events, err := w.clicks.ByFilter(ctx, models.ClickEventFilter{}, "", 0, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Len(t, events[0].VisitorHash, 32)
	assert.False(t, strings.Contains(events[0].VisitorHash, "203.0.113.7"))
}

func TestClickUnknownRefCode(t *testing.T) {
	w := defaultWorld(t)
	for _, code := range []string{"", "   ", "missing"} {
		_, err := w.clickFlow.Click(context.Background(), code, dto.ClickHeaders{})
		require.Error(t, err)
		assert.Equal(t, CodeNotFound, ErrorCode(err))
		assert.True(t, IsTrackingLinkNotFound(err))
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers dto.ClickHeaders
		want    string
	}{
		{"FirstForwardedHop", dto.ClickHeaders{ForwardedFor: "203.0.113.7, 10.0.0.1", RealIP: "198.51.100.2"}, "203.0.113.7"},
		{"SkipsEmptyHops", dto.ClickHeaders{ForwardedFor: " , 203.0.113.9"}, "203.0.113.9"},
		{"RealIPFallback", dto.ClickHeaders{RealIP: " 198.51.100.2 "}, "198.51.100.2"},
		{"Unknown", dto.ClickHeaders{}, "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClientIP(tt.headers))
		})
	}
}

func TestVisitorHash(t *testing.T) {
	h := VisitorHash("203.0.113.7", "Mozilla/5.0", baseTime)

	assert.Len(t, h, 32)
	assert.Equal(t, h, VisitorHash("203.0.113.7", "Mozilla/5.0", baseTime.Add(9*time.Minute)))
	assert.NotEqual(t, h, VisitorHash("203.0.113.7", "Mozilla/5.0", baseTime.Add(VisitorBucket)))
	assert.NotEqual(t, h, VisitorHash("203.0.113.8", "Mozilla/5.0", baseTime))
	assert.NotEqual(t, h, VisitorHash("203.0.113.7", "curl/8.0", baseTime))
}

func TestGenerateRefCode(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		code, err := GenerateRefCode()
		require.NoError(t, err)
		assert.Len(t, code, 12)
		assert.Regexp(t, `^[A-Za-z0-9_-]{12}$`, code)
		seen[code] = struct{}{}
	}
	assert.Len(t, seen, 200)
}
