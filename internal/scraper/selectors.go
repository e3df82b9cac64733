package scraper

import "strings"

// LinkedIn DOM selectors. These are isolated here because LinkedIn renders
// the same post under several markup variants and changes them frequently;
// update these when extraction breaks. Every lookup walks its list in order
// and takes the first match, so new variants are added without touching
// control flow.

// postRootSelectors identify "post-like" elements: roots of a single feed
// update across rendering modes.
var postRootSelectors = []string{
	`[data-urn^="urn:li:activity"]`,
	`[data-urn^="urn:li:ugcPost"]`,
	`[data-id^="urn:li:activity"]`,
	`[data-id^="urn:li:ugcPost"]`,
	`article[data-urn^="urn:li:activity"]`,
	`article[data-urn^="urn:li:ugcPost"]`,
	`article[data-id^="urn:li:activity"]`,
	`article[data-id^="urn:li:ugcPost"]`,
	`article.feed-shared-update-v2`,
	`div.feed-shared-update-v2`,
}

// commentNodeSelectors identify elements belonging to a comment subtree.
var commentNodeSelectors = []string{
	`article[data-id^="urn:li:comment"]`,
	`[data-test-id="comment"]`,
	`.comments-comment-item`,
	`li.comments-comment-item`,
	`.comments-comment-item__main-content`,
	`.comments-comment-item__main`,
	`.comments-comment-item__body`,
	`.comments-comment-item__nested`,
	`[data-urn^="urn:li:comment"]`,
	`li.social-details-social-activity__comment-item`,
	`.comments-comment-meta`,
}

var (
	postRootSelector    = strings.Join(postRootSelectors, ", ")
	commentNodeSelector = strings.Join(commentNodeSelectors, ", ")
)

// commentArticleSelector is the top-level comment container a nested match
// resolves to, de-duplicating to one record per logical comment.
const commentArticleSelector = `article[data-id^="urn:li:comment"]`

const modalSelector = `div[role="dialog"]`

// actorContainerSelectors locate the post's actor block; author lookups
// prefer named sub-elements inside it over document-wide fallbacks.
var actorContainerSelectors = []string{
	`.update-components-actor__container`,
	`.feed-shared-actor__container`,
}

var actorWithinContainerSelectors = []string{
	`.update-components-actor__meta-link`,
	`.feed-shared-actor__name`,
	`.update-components-actor__title`,
	`.update-components-actor__name a[href*="/in/"]`,
}

var actorFallbackSelectors = []string{
	`.update-components-actor__meta-link`,
	`.update-components-actor__title`,
	`.update-components-actor__name a[href*="/in/"]`,
	`a[href*="/in/"][data-field="actor-link"]`,
	`.feed-shared-actor__title a`,
	`.feed-shared-actor__title`,
	`a[href*="/in/"]`,
}

// authorNameSelectors pick the visible name span within an author element.
var authorNameSelectors = []string{
	`.update-components-actor__title span[aria-hidden="true"]`,
	`.update-components-actor__title span`,
	`.feed-shared-actor__title span[aria-hidden="true"]`,
	`.feed-shared-actor__title span`,
}

// postContentSelectors locate the post body text, tried in order; any
// candidate inside a comment subtree is skipped.
var postContentSelectors = []string{
	`[data-test-id="main-feed-activity-card__commentary"]`,
	`.feed-shared-inline-show-more-text`,
	`.update-components-text`,
	`.break-words`,
	`span[dir][aria-hidden="false"]`,
	`div.feed-shared-update-v2__description`,
	`.update-components-text-view`,
	`.feed-shared-text`,
}

var postTimestampSelectors = []string{
	`time`,
	`[data-test-id="main-feed-activity-card__timestamp"]`,
	`.update-components-actor__sub-description time`,
	`.update-components-actor__sub-description`,
}

var commentAuthorSelectors = []string{
	`.comments-comment-item__author`,
	`[data-test-id="comment-author-link"]`,
	`a[href*="/in/"]`,
	`.comments-comment-meta__description-container a`,
	`.comments-comment-meta__headline a`,
	`.comments-comment-meta__description-title a`,
	`.comments-comment-meta__description-container`,
	`.comments-comment-meta__description-title`,
	`[data-test-id="comment-author-name"]`,
}

var commentNameSelectors = []string{
	`.comments-comment-meta__description-title span[aria-hidden="true"]`,
	`.comments-comment-meta__description-title`,
}

var commentTextSelectors = []string{
	`span.break-words`,
	`span[dir]`,
	`div.comments-comment-item__main-content`,
}

var commentTimestampSelectors = []string{
	`time`,
	`[data-test-id="comment-timestamp"]`,
	`.comments-comment-item__timestamp`,
	`[data-test-id="social-detail-base-comment__timestamp"]`,
	`.comments-comment-meta__timestamp`,
	`.comments-comment-meta__data time`,
}

// timestampAttrs are machine-readable attributes tried before visible text.
var timestampAttrs = []string{"datetime", "data-time", "data-timestamp", "data-test-timestamp"}

const profileLinkSelector = `a[href*="/in/"], a[data-entity-urn]`

// seeMoreSelectors find truncated-post-body expansion controls.
var seeMoreSelectors = []string{
	`button[aria-label*="See more"]`,
	`button[aria-label*="see more"]`,
	`button[aria-label*="Show more"]`,
	`button.feed-shared-inline-show-more-text__see-more-less-toggle`,
	`button.update-components-text-view__button`,
}

var seeMoreSelector = strings.Join(seeMoreSelectors, ", ")

// commentExpanderSelectors find candidate comment-thread expansion
// controls; candidates still pass the classification filter in expand.go.
var commentExpanderSelectors = []string{
	`button[aria-label*=" comment"]`,
	`button[aria-label^="comment"]`,
	`button[aria-label*="Comment"]`,
	`button[data-test-id*="comments"]`,
	`button[data-test-id*="comment__view"]`,
	`button[data-test-id*="comment__load"]`,
	`button.comments-comments-list__trigger`,
	`button.comments-comments-list__see-more`,
	`button.comments-comments-list__load-more`,
	`button.comments-comment-social-bar__replies-toggle`,
	`button[data-control-name*="comment"]`,
	`button[aria-controls*="comments"]`,
	`span[role="button"][aria-label*="comment"]`,
	`span[role="button"][data-test-id*="comment"]`,
}

var commentExpanderSelector = strings.Join(commentExpanderSelectors, ", ")

const reactionAncestorSelector = `[data-control-name*="reaction"], [aria-label*="reaction"]`

const reactionIconSelector = `span.reactions-icon`

const headerTextSelector = `.update-components-header__text-view`

// repostKeywords classify a post as a repost when found in its header text.
var repostKeywords = []string{"reposted", "shared this", "reshared"}
