package scraper

import (
	"context"
	"strings"
	"testing"
	"time"

	"linkscrape/internal/debuglog"
	"linkscrape/internal/domtree"
	"linkscrape/internal/domtree/memdom"
	"linkscrape/internal/poll"
)

func newTestScraper(clock poll.Clock) *Scraper {
	return New(debuglog.New(false), clock, DefaultTiming())
}

func mustParse(t *testing.T, markup string) *memdom.Document {
	t.Helper()
	doc, err := memdom.ParseString(markup)
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

func mustQuery(t *testing.T, doc *memdom.Document, sel string) *memdom.Node {
	t.Helper()
	n := doc.Query(sel)
	if n == nil {
		t.Fatalf("fixture missing %q", sel)
	}
	return n.(*memdom.Node)
}

func TestResolveCenteredPost(t *testing.T) {
	doc := mustParse(t, `
		<div id="below" class="feed-shared-update-v2" data-box="1200,0,1920,400">below the fold</div>
		<div id="center" class="feed-shared-update-v2" data-box="200,0,1920,500">in view</div>
	`)
	doc.SetViewport(1920, 1080)
	s := newTestScraper(poll.NewSimulated(time.Now()))

	root := s.findActivePostRoot(doc)
	if root == nil {
		t.Fatal("expected a root")
	}
	if want := mustQuery(t, doc, "#center"); root.ID() != want.ID() {
		t.Fatalf("resolved wrong post: got id %d, want #center", root.ID())
	}
}

func TestResolveGeometricFallback(t *testing.T) {
	// Nothing sits under the viewport center, so candidates are ranked by
	// vertical distance. The short shell is filtered by the height floor.
	doc := mustParse(t, `
		<div id="shell" class="feed-shared-update-v2" data-box="500,0,1920,40">collapsed</div>
		<div id="near" class="feed-shared-update-v2" data-box="100,0,1920,200">near</div>
		<div id="far" class="feed-shared-update-v2" data-box="800,0,1920,200">far</div>
	`)
	doc.SetViewport(1920, 1080)
	s := newTestScraper(poll.NewSimulated(time.Now()))

	root := s.findActivePostRoot(doc)
	if root == nil {
		t.Fatal("expected a root")
	}
	// Viewport center y=540: #near center=200 (distance 340), #far
	// center=900 (distance 360).
	if want := mustQuery(t, doc, "#near"); root.ID() != want.ID() {
		t.Fatalf("resolved wrong post: got id %d, want #near", root.ID())
	}
}

func TestResolveVerticallyContainingWins(t *testing.T) {
	// A candidate whose box contains the viewport center beats a closer
	// centered one.
	doc := mustParse(t, `
		<div id="tall" class="feed-shared-update-v2" data-box="0,0,900,1080">tall</div>
		<div id="tight" class="feed-shared-update-v2" data-box="500,1000,900,90">tight</div>
	`)
	doc.SetViewport(1920, 1080)
	s := newTestScraper(poll.NewSimulated(time.Now()))

	root := s.findActivePostRoot(doc)
	if root == nil {
		t.Fatal("expected a root")
	}
	if want := mustQuery(t, doc, "#tall"); root.ID() != want.ID() {
		t.Fatalf("resolved wrong post: got id %d, want #tall", root.ID())
	}
}

func TestResolveModalPost(t *testing.T) {
	doc := mustParse(t, `
		<div id="bg" class="feed-shared-update-v2" data-box="200,0,1920,600">background post</div>
		<div role="dialog">
			<div id="modal" class="feed-shared-update-v2">modal post</div>
		</div>
	`)
	doc.SetViewport(1920, 1080)
	s := newTestScraper(poll.NewSimulated(time.Now()))

	root := s.findActivePostRoot(doc)
	if root == nil {
		t.Fatal("expected a root")
	}
	if want := mustQuery(t, doc, "#modal"); root.ID() != want.ID() {
		t.Fatalf("resolved wrong post: got id %d, want the modal post", root.ID())
	}
}

func TestScrapeNoRoot(t *testing.T) {
	doc := mustParse(t, `<p>nothing post-like here</p>`)
	doc.SetURL("https://www.linkedin.com/feed/")
	s := newTestScraper(poll.NewSimulated(time.Now()))

	result, err := s.Scrape(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Post != nil {
		t.Error("post should be nil when no root is found")
	}
	if len(result.Comments) != 0 {
		t.Error("comments should be empty when no root is found")
	}
	if result.PostType != "" {
		t.Errorf("postType should be unset, got %q", result.PostType)
	}
	if result.URL != "https://www.linkedin.com/feed/" {
		t.Errorf("url = %q", result.URL)
	}
}

const postFixture = `
<div class="feed-shared-update-v2" data-urn="urn:li:activity:7123" data-box="100,0,1920,700">
	<div class="update-components-actor__container">
		<a class="update-components-actor__meta-link" href="/in/jane-doe" aria-label="View Jane Doe's profile">
			<span class="update-components-actor__title"><span aria-hidden="true">Jane Doe</span></span>
		</a>
		<span class="update-components-actor__sub-description"><time datetime="1700000000">2h</time></span>
	</div>
	<div class="update-components-text"><span id="body">Short intro</span></div>
	<button id="seemore" aria-expanded="false" aria-label="See more of this post">…see more</button>
	<script>trackImpression()</script>
</div>`

func TestScrapeExpandsSeeMore(t *testing.T) {
	doc := mustParse(t, postFixture)
	doc.SetURL("https://www.linkedin.com/posts/jane-doe_7123")
	doc.SetViewport(1920, 1080)

	btn := mustQuery(t, doc, "#seemore")
	body := mustQuery(t, doc, "#body")
	doc.OnClick(btn, func() {
		btn.SetAttr("aria-expanded", "true")
		if err := body.AppendHTML(" and the full story"); err != nil {
			t.Errorf("append: %v", err)
		}
	})

	s := newTestScraper(poll.NewSimulated(time.Now()))
	result, err := s.Scrape(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := btn.Attr("aria-expanded"); got != "true" {
		t.Errorf("see-more button not expanded, aria-expanded=%q", got)
	}
	if result.Post == nil {
		t.Fatal("expected a post")
	}
	if result.Post.Text == nil || *result.Post.Text != "Short intro and the full story" {
		t.Errorf("post text = %v, want expanded content", result.Post.Text)
	}
	if len(result.Comments) != 0 || result.TotalComments != 0 {
		t.Errorf("expected no comments, got %d", result.TotalComments)
	}
	if result.Post.Author == nil || *result.Post.Author != "Jane Doe" {
		t.Errorf("author = %v, want Jane Doe", result.Post.Author)
	}
	if result.Post.AuthorProfile == nil || *result.Post.AuthorProfile != "/in/jane-doe" {
		t.Errorf("authorProfile = %v", result.Post.AuthorProfile)
	}
	if result.Post.Timestamp == nil || *result.Post.Timestamp != "2023-11-14T22:13:20.000Z" {
		t.Errorf("timestamp = %v", result.Post.Timestamp)
	}
	if result.PostType != "original" {
		t.Errorf("postType = %q, want original", result.PostType)
	}
	if result.DebugHTML == "" {
		t.Error("expected a debug snapshot")
	}
	if strings.Contains(result.DebugHTML, "<script") {
		t.Error("debug snapshot should not contain script elements")
	}
}

func TestExpanderClassification(t *testing.T) {
	doc := mustParse(t, `
		<div id="root" class="feed-shared-update-v2" data-box="100,0,1920,700">
			<div class="update-components-text">hello</div>
			<button id="react" aria-label="React to this comment">Like</button>
			<button id="reply" aria-label="Reply to this comment">Reply</button>
			<button id="loadmore" class="comments-comments-list__load-more" aria-label="Load more replies">Load more replies</button>
		</div>
	`)
	doc.SetViewport(1920, 1080)

	var reactClicked, replyClicked, loadClicked bool
	root := mustQuery(t, doc, "#root")
	doc.OnClick(mustQuery(t, doc, "#react"), func() { reactClicked = true })
	doc.OnClick(mustQuery(t, doc, "#reply"), func() { replyClicked = true })
	doc.OnClick(mustQuery(t, doc, "#loadmore"), func() {
		loadClicked = true
		err := root.AppendHTML(`
			<article data-id="urn:li:comment:991">
				<div class="comments-comment-meta">
					<a data-test-id="comment-author-link" href="/in/bob-jones">
						<span class="comments-comment-meta__description-title"><span aria-hidden="true">Bob Jones</span></span>
					</a>
				</div>
				<span class="break-words">Great post!</span>
				<time class="comments-comment-item__timestamp">3h</time>
			</article>`)
		if err != nil {
			t.Errorf("append: %v", err)
		}
	})

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := poll.NewSimulated(now)
	s := newTestScraper(clock)

	result, err := s.Scrape(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if reactClicked {
		t.Error("reaction control must never be clicked")
	}
	if replyClicked {
		t.Error("bare reply control must never be clicked")
	}
	if !loadClicked {
		t.Error("load-more-replies control must be clicked")
	}

	if result.TotalComments != 1 || len(result.Comments) != 1 {
		t.Fatalf("expected exactly one comment, got %d", result.TotalComments)
	}
	c := result.Comments[0]
	if c.Author == nil || *c.Author != "Bob Jones" {
		t.Errorf("comment author = %v", c.Author)
	}
	if c.AuthorProfile == nil || *c.AuthorProfile != "/in/bob-jones" {
		t.Errorf("comment profile = %v", c.AuthorProfile)
	}
	if c.Text == nil || *c.Text != "Great post!" {
		t.Errorf("comment text = %v", c.Text)
	}
	// "3h" is relative to the clock the scraper was given; the clock has
	// advanced through expansion waits by the time it is read.
	if c.Timestamp == nil {
		t.Fatal("comment timestamp missing")
	}
	ts, err := time.Parse("2006-01-02T15:04:05.000Z", *c.Timestamp)
	if err != nil {
		t.Fatalf("timestamp %q not ISO: %v", *c.Timestamp, err)
	}
	if ts.After(clock.Now()) || ts.Before(now.Add(-4*time.Hour)) {
		t.Errorf("timestamp %v not roughly 3h before now", ts)
	}
}

func TestCommentDedup(t *testing.T) {
	// Several comment-structural matches inside one logical comment
	// article must collapse to a single record.
	doc := mustParse(t, `
		<div class="feed-shared-update-v2" data-box="100,0,1920,700">
			<div class="update-components-text">post body</div>
			<article data-id="urn:li:comment:5">
				<div class="comments-comment-item">
					<div class="comments-comment-item__main-content">nested body</div>
				</div>
				<div class="comments-comment-meta">meta</div>
				<span class="break-words">One comment only</span>
			</article>
		</div>
	`)
	doc.SetViewport(1920, 1080)
	s := newTestScraper(poll.NewSimulated(time.Now()))

	result, err := s.Scrape(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Comments) != 1 {
		t.Fatalf("expected 1 comment after de-duplication, got %d", len(result.Comments))
	}
	if result.Comments[0].Text == nil || *result.Comments[0].Text != "One comment only" {
		t.Errorf("comment text = %v", result.Comments[0].Text)
	}
}

func TestContentSkipsCommentText(t *testing.T) {
	// The only .break-words match lives inside a comment, so the content
	// lookup must skip it and fall through to a later selector.
	doc := mustParse(t, `
		<div class="feed-shared-update-v2" data-box="100,0,1920,700">
			<article data-id="urn:li:comment:9">
				<span class="break-words">a comment, not the post</span>
			</article>
			<div class="feed-shared-text">the actual post body</div>
		</div>
	`)
	doc.SetViewport(1920, 1080)
	s := newTestScraper(poll.NewSimulated(time.Now()))

	result, err := s.Scrape(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Post == nil || result.Post.Text == nil {
		t.Fatal("expected post text")
	}
	if *result.Post.Text != "the actual post body" {
		t.Errorf("post text = %q, picked up comment text", *result.Post.Text)
	}
}

func TestDetectPostType(t *testing.T) {
	cases := []struct {
		name   string
		markup string
		want   string
	}{
		{
			"repost header",
			`<div id="r" class="feed-shared-update-v2"><div class="update-components-header__text-view">Jane Doe reposted this</div></div>`,
			"repost",
		},
		{
			"reshared header",
			`<div id="r" class="feed-shared-update-v2"><div class="update-components-header__text-view">Acme reshared</div></div>`,
			"repost",
		},
		{
			"unrelated header",
			`<div id="r" class="feed-shared-update-v2"><div class="update-components-header__text-view">Promoted</div></div>`,
			"original",
		},
		{
			"no header",
			`<div id="r" class="feed-shared-update-v2"></div>`,
			"original",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := mustParse(t, tc.markup)
			if got := detectPostType(mustQuery(t, doc, "#r")); got != tc.want {
				t.Errorf("detectPostType = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestTimestampRawFallback(t *testing.T) {
	// When neither attributes nor text normalize, the cleaned raw text is
	// kept rather than losing the field.
	doc := mustParse(t, `
		<div id="r" class="feed-shared-update-v2">
			<time>  yesterday   evening </time>
		</div>
	`)
	s := newTestScraper(poll.NewSimulated(time.Now()))

	got := s.extractTimestamp(mustQuery(t, doc, "#r"), postTimestampSelectors)
	if got != "yesterday evening" {
		t.Errorf("timestamp fallback = %q, want cleaned raw text", got)
	}
}

func TestTimestampFromTestAttribute(t *testing.T) {
	// Some comment renderings carry the instant only in a test attribute;
	// it must win over the human-relative visible text.
	doc := mustParse(t, `
		<article id="c" data-id="urn:li:comment:3">
			<time data-test-timestamp="1700000000">2h</time>
		</article>
	`)
	s := newTestScraper(poll.NewSimulated(time.Now()))

	got := s.extractTimestamp(mustQuery(t, doc, "#c"), commentTimestampSelectors)
	if got != "2023-11-14T22:13:20.000Z" {
		t.Errorf("timestamp = %q, want the attribute epoch", got)
	}
}

func TestAuthorNameFromAriaLabel(t *testing.T) {
	doc := mustParse(t, `
		<div id="r" class="feed-shared-update-v2">
			<a class="update-components-actor__meta-link" href="/in/sam-smith" aria-label="View Sam Smith's profile"><img alt=""></a>
		</div>
	`)

	authorEl := findAuthorElement(mustQuery(t, doc, "#r"))
	if authorEl == nil {
		t.Fatal("expected an author element")
	}
	if got := extractAuthorName(authorEl); got != "Sam Smith" {
		t.Errorf("author = %q, want label artifact stripped", got)
	}
}

func TestCommentAuthorAvatarFallback(t *testing.T) {
	doc := mustParse(t, `
		<article id="c" data-id="urn:li:comment:7">
			<img alt="Pat Doe">
			<span class="break-words">hi</span>
		</article>
	`)

	name, profile := extractCommentAuthor(mustQuery(t, doc, "#c"))
	if name != "Pat Doe" {
		t.Errorf("name = %q, want avatar alt fallback", name)
	}
	if profile != "" {
		t.Errorf("profile = %q, want empty", profile)
	}
}

func TestSerializeForDebugCapsWideSubtrees(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(`<div id="r" class="feed-shared-update-v2">`)
	for i := 0; i <= maxDebugChildren; i++ {
		sb.WriteString("<p>x</p>")
	}
	sb.WriteString(`</div>`)

	doc := mustParse(t, sb.String())
	if got := serializeForDebug(mustQuery(t, doc, "#r")); got != "" {
		t.Error("snapshot should be omitted for wide subtrees")
	}
}

var _ domtree.Document = (*memdom.Document)(nil)
