package http

import (
	"net/url"
	"strings"

	"spacetraveling/app/internal/domain/blog"
	"spacetraveling/app/internal/presentation/http/templates"
)

const postsAPIPath = "/api/posts"

// postsCursorPath points an upstream cursor at the load-more endpoint.
func postsCursorPath(cursor string) string {
	return postsAPIPath + "?cursor=" + url.QueryEscape(cursor)
}

func homePageData(page *blog.HomePage, preview bool) templates.HomePageData {
	data := templates.HomePageData{Preview: preview}
	if page == nil {
		return data
	}

	data.Posts = make([]templates.PostSummary, 0, len(page.Posts))
	for _, post := range page.Posts {
		data.Posts = append(data.Posts, templates.PostSummary{
			Path:     blog.ResolveLink(blog.DocumentLink{UID: post.UID, Type: blog.PostType}),
			Title:    deref(post.Data.Title),
			Subtitle: deref(post.Data.Subtitle),
			Author:   deref(post.Data.Author),
			Date:     templates.FormatDate(post.FirstPublicationDate),
		})
	}

	if page.NextPage != "" {
		data.NextPage = postsCursorPath(page.NextPage)
	}

	return data
}

func postPageData(page *blog.PostPage, preview bool) templates.PostPageData {
	post := page.Post
	data := templates.PostPageData{
		Title:       deref(post.Data.Title),
		Author:      deref(post.Data.Author),
		Date:        templates.FormatDate(post.FirstPublicationDate),
		ReadingTime: page.ReadingTime,
		Preview:     preview,
	}

	if banner := post.Data.Banner; banner != nil {
		data.BannerURL = safeImageURL(banner.URL)
		data.BannerAlt = deref(banner.Alt)
	}

	data.Sections = make([]templates.SectionView, 0, len(post.Data.Content))
	for _, block := range post.Data.Content {
		data.Sections = append(data.Sections, templates.SectionView{
			Heading: deref(block.Heading),
			Blocks:  blockViews(block.Body),
		})
	}

	data.Previous = navView(page.Adjacency.Previous)
	data.Next = navView(page.Adjacency.Next)

	return data
}

// blockViews maps rich text blocks to block-level elements, grouping
// consecutive list items into one list.
func blockViews(body []blog.RichTextBlock) []templates.BlockView {
	views := make([]templates.BlockView, 0, len(body))
	for _, block := range body {
		tag := blockTag(block.Type)
		if tag == "" {
			continue
		}

		if tag == "ul" || tag == "ol" {
			if last := len(views) - 1; last >= 0 && views[last].Tag == tag {
				views[last].Items = append(views[last].Items, block.Text)
				continue
			}
			views = append(views, templates.BlockView{Tag: tag, Items: []string{block.Text}})
			continue
		}

		views = append(views, templates.BlockView{Tag: tag, Text: block.Text})
	}
	return views
}

func blockTag(blockType string) string {
	switch blockType {
	case "paragraph", "":
		return "p"
	case "heading1", "heading2", "heading3", "heading4", "heading5", "heading6":
		return "h" + strings.TrimPrefix(blockType, "heading")
	case "preformatted":
		return "pre"
	case "list-item":
		return "ul"
	case "o-list-item":
		return "ol"
	default:
		return ""
	}
}

func navView(link *blog.NavLink) *templates.NavView {
	if link == nil {
		return nil
	}
	return &templates.NavView{Path: link.Path, Title: deref(link.Title)}
}

func safeImageURL(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (parsed.Scheme != "https" && parsed.Scheme != "http") || parsed.Host == "" {
		return ""
	}
	return parsed.String()
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
