package prismic

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"spacetraveling/app/internal/domain/blog"
)

const publicationLayout = "2006-01-02T15:04:05-0700"

type apiResponse struct {
	Refs []apiRef `json:"refs"`
}

type apiRef struct {
	ID          string `json:"id"`
	Ref         string `json:"ref"`
	Label       string `json:"label"`
	IsMasterRef bool   `json:"isMasterRef"`
}

type searchResponse struct {
	Page           int           `json:"page"`
	ResultsPerPage int           `json:"results_per_page"`
	TotalPages     int           `json:"total_pages"`
	NextPage       *string       `json:"next_page"`
	Results        []documentDTO `json:"results"`
}

type documentDTO struct {
	ID                   string  `json:"id"`
	UID                  *string `json:"uid"`
	Type                 string  `json:"type"`
	FirstPublicationDate *string `json:"first_publication_date"`
	LastPublicationDate  *string `json:"last_publication_date"`
	Data                 postDTO `json:"data"`
}

type postDTO struct {
	Title    textField    `json:"title"`
	Subtitle textField    `json:"subtitle"`
	Author   textField    `json:"author"`
	Banner   *imageDTO    `json:"banner"`
	Content  []contentDTO `json:"content"`
}

type imageDTO struct {
	URL *string `json:"url"`
	Alt *string `json:"alt"`
}

type contentDTO struct {
	Heading textField     `json:"heading"`
	Body    []richTextDTO `json:"body"`
}

type richTextDTO struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// textField accepts either a key text string or a rich text array, keeping
// nil when the field is absent or null.
type textField struct {
	value *string
}

func (f *textField) UnmarshalJSON(raw []byte) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		f.value = nil
		return nil
	}

	if trimmed[0] == '[' {
		var blocks []richTextDTO
		if err := json.Unmarshal(trimmed, &blocks); err != nil {
			return err
		}
		if len(blocks) == 0 {
			f.value = nil
			return nil
		}
		parts := make([]string, 0, len(blocks))
		for _, block := range blocks {
			parts = append(parts, block.Text)
		}
		joined := strings.Join(parts, " ")
		f.value = &joined
		return nil
	}

	var text string
	if err := json.Unmarshal(trimmed, &text); err != nil {
		return err
	}
	f.value = &text
	return nil
}

func (r searchResponse) toResultPage() *blog.ResultPage {
	page := &blog.ResultPage{Results: make([]blog.Document, 0, len(r.Results))}
	for _, dto := range r.Results {
		page.Results = append(page.Results, dto.toDocument())
	}
	if r.NextPage != nil {
		page.NextPage = publicCursor(*r.NextPage)
	}
	return page
}

func (d documentDTO) toDocument() blog.Document {
	doc := blog.Document{
		ID:                   d.ID,
		Type:                 d.Type,
		FirstPublicationDate: parsePublication(d.FirstPublicationDate),
		LastPublicationDate:  parsePublication(d.LastPublicationDate),
		Data: blog.PostData{
			Title:    d.Data.Title.value,
			Subtitle: d.Data.Subtitle.value,
			Author:   d.Data.Author.value,
		},
	}
	if d.UID != nil {
		doc.UID = *d.UID
	}

	if d.Data.Banner != nil && d.Data.Banner.URL != nil {
		doc.Data.Banner = &blog.Image{URL: *d.Data.Banner.URL, Alt: d.Data.Banner.Alt}
	}

	if d.Data.Content != nil {
		doc.Data.Content = make([]blog.ContentBlock, 0, len(d.Data.Content))
		for _, block := range d.Data.Content {
			body := make([]blog.RichTextBlock, 0, len(block.Body))
			for _, item := range block.Body {
				body = append(body, blog.RichTextBlock{Type: item.Type, Text: item.Text})
			}
			doc.Data.Content = append(doc.Data.Content, blog.ContentBlock{Heading: block.Heading.value, Body: body})
		}
	}

	return doc
}

func parsePublication(value *string) *time.Time {
	if value == nil {
		return nil
	}

	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}

	for _, layout := range []string{publicationLayout, time.RFC3339} {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return &parsed
		}
	}
	return nil
}
