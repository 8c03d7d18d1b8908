package postman

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"postman-sync/internal/types"
)

// Tag is the shape the collection tag endpoints exchange
type Tag struct {
	Slug string `json:"slug"`
}

// Tag slug contract: length 2 to 64, lowercase, starts with a letter, ends
// with a letter or digit, interior limited to lowercase letters, digits and
// hyphens.
const (
	tagMinLen = 2
	tagMaxLen = 64
)

// ValidateTag coerces an arbitrary string into a valid tag slug. Invalid
// characters become hyphens and boundary violations are repaired rather
// than rejected: prefix "tag-", suffix "0", truncate. Idempotent.
func ValidateTag(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	tag := b.String()

	if tag == "" || !isLowerLetter(tag[0]) {
		tag = "tag-" + tag
	}
	if len(tag) > tagMaxLen {
		tag = tag[:tagMaxLen]
	}
	if !isLetterOrDigit(tag[len(tag)-1]) {
		if len(tag) == tagMaxLen {
			tag = tag[:tagMaxLen-1] + "0"
		} else {
			tag = tag + "0"
		}
	}
	if len(tag) < tagMinLen {
		tag = tag + "0"
	}
	return tag
}

func isLowerLetter(c byte) bool {
	return c >= 'a' && c <= 'z'
}

func isLetterOrDigit(c byte) bool {
	return isLowerLetter(c) || (c >= '0' && c <= '9')
}

// GetCollectionTags reads the tags currently attached to a collection.
func (c *Client) GetCollectionTags(ctx context.Context, uid types.CollectionUID) ([]Tag, error) {
	var out struct {
		Tags []Tag `json:"tags"`
	}
	path := fmt.Sprintf("/collections/%s/tags", uid)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to read tags for collection %s: %w", uid, err)
	}
	return out.Tags, nil
}

// ReplaceCollectionTags replaces the collection's full tag set.
func (c *Client) ReplaceCollectionTags(ctx context.Context, uid types.CollectionUID, tags []Tag) error {
	body := map[string]interface{}{"tags": tags}
	path := fmt.Sprintf("/collections/%s/tags", uid)
	if err := c.do(ctx, http.MethodPut, path, nil, body, nil); err != nil {
		return fmt.Errorf("failed to replace tags for collection %s: %w", uid, err)
	}
	return nil
}

// ApplyTags validates the given tags and merges them into the collection's
// existing tag set: read, union, replace, in sorted order.
func (c *Client) ApplyTags(ctx context.Context, uid types.CollectionUID, tags []string) error {
	existing, err := c.GetCollectionTags(ctx, uid)
	if err != nil {
		return err
	}

	seen := make(map[string]bool, len(existing)+len(tags))
	for _, tag := range existing {
		seen[tag.Slug] = true
	}
	for _, tag := range tags {
		seen[ValidateTag(tag)] = true
	}

	slugs := make([]string, 0, len(seen))
	for slug := range seen {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	merged := make([]Tag, 0, len(slugs))
	for _, slug := range slugs {
		merged = append(merged, Tag{Slug: slug})
	}
	return c.ReplaceCollectionTags(ctx, uid, merged)
}
