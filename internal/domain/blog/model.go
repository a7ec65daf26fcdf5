package blog

import "time"

// PostType is the content type of blog posts in the content repository.
const PostType = "posts"

// Ref selects a content snapshot. The zero value selects the published snapshot.
type Ref string

// IsPreview reports whether the ref selects a preview snapshot.
func (r Ref) IsPreview() bool {
	return r != ""
}

// Document is a single content entry as returned by the content client.
type Document struct {
	ID                   string
	UID                  string
	Type                 string
	FirstPublicationDate *time.Time
	LastPublicationDate  *time.Time
	Data                 PostData
}

// Link returns the identity the link resolver needs for the document.
func (d Document) Link() DocumentLink {
	return DocumentLink{ID: d.ID, UID: d.UID, Type: d.Type}
}

// PostData is the typed payload of a post. Absent upstream fields stay nil.
type PostData struct {
	Title    *string
	Subtitle *string
	Author   *string
	Banner   *Image
	Content  []ContentBlock
}

// Image references a remote image asset.
type Image struct {
	URL string  `json:"url"`
	Alt *string `json:"alt,omitempty"`
}

// ContentBlock is a heading followed by rich-text body blocks in reading order.
type ContentBlock struct {
	Heading *string         `json:"heading"`
	Body    []RichTextBlock `json:"body"`
}

// RichTextBlock is one block-level rich-text element such as a paragraph.
type RichTextBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ResultPage is one page of a paged query. NextPage is empty on the last page.
type ResultPage struct {
	Results  []Document
	NextPage string
}

// Ordering selects the sort order of a query.
type Ordering int

const (
	OrderDefault Ordering = iota
	OrderFirstPublicationAsc
	OrderFirstPublicationDesc
)

// Query describes a predicate query over documents of a single type.
type Query struct {
	Type     string
	Fetch    []string
	PageSize int
	After    string
	Ordering Ordering
	Ref      Ref
}
