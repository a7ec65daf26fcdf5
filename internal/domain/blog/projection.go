package blog

import (
	"io"
	"math"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const wordsPerMinute = 200

// ListingFields are the document fields the listing query fetches.
var ListingFields = []string{"posts.title", "posts.subtitle", "posts.author"}

// ListingView is the minimal view of a post rendered in the feed.
type ListingView struct {
	UID                  string      `json:"uid"`
	FirstPublicationDate *time.Time  `json:"first_publication_date"`
	Data                 ListingData `json:"data"`
}

// ListingData holds the listing payload fields.
type ListingData struct {
	Title    *string `json:"title"`
	Subtitle *string `json:"subtitle"`
	Author   *string `json:"author"`
}

// DetailView is the view of a post rendered on its own page.
type DetailView struct {
	UID                  string
	FirstPublicationDate *time.Time
	LastPublicationDate  *time.Time
	Data                 DetailData
}

// DetailData holds the detail payload fields.
type DetailData struct {
	Title   *string
	Banner  *Image
	Author  *string
	Content []ContentBlock
}

// ProjectListing extracts the listing fields of a document. The body is omitted.
func ProjectListing(doc Document) ListingView {
	return ListingView{
		UID:                  doc.UID,
		FirstPublicationDate: doc.FirstPublicationDate,
		Data: ListingData{
			Title:    doc.Data.Title,
			Subtitle: doc.Data.Subtitle,
			Author:   doc.Data.Author,
		},
	}
}

// ProjectListings projects every document in order.
func ProjectListings(docs []Document) []ListingView {
	views := make([]ListingView, 0, len(docs))
	for _, doc := range docs {
		views = append(views, ProjectListing(doc))
	}
	return views
}

// ProjectDetail extracts the detail fields of a document including its content.
func ProjectDetail(doc Document) DetailView {
	return DetailView{
		UID:                  doc.UID,
		FirstPublicationDate: doc.FirstPublicationDate,
		LastPublicationDate:  doc.LastPublicationDate,
		Data: DetailData{
			Title:   doc.Data.Title,
			Banner:  doc.Data.Banner,
			Author:  doc.Data.Author,
			Content: doc.Data.Content,
		},
	}
}

// ReadingTime returns the estimated reading time in minutes, rounded up.
func ReadingTime(blocks []ContentBlock) int {
	words := 0
	for _, block := range blocks {
		words += len(strings.Fields(PlainText(block.Body)))
	}

	return int(math.Ceil(float64(words) / wordsPerMinute))
}

// PlainText joins the text of the body blocks with markup removed.
func PlainText(body []RichTextBlock) string {
	parts := make([]string, 0, len(body))
	for _, block := range body {
		parts = append(parts, stripMarkup(block.Text))
	}
	return strings.Join(parts, " ")
}

func stripMarkup(text string) string {
	if !strings.ContainsAny(text, "<&") {
		return text
	}

	var b strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(text))
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			if tokenizer.Err() == io.EOF {
				return b.String()
			}
			return text
		case html.TextToken:
			b.Write(tokenizer.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			b.WriteByte(' ')
		}
	}
}
