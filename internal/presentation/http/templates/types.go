package templates

// SiteName is appended to every page title.
const SiteName = "spacetraveling"

// LayoutData carries the values shared by every page.
type LayoutData struct {
	Title   string
	Preview bool
	Scripts []string
}

// PostSummary is a post entry of the home page feed.
type PostSummary struct {
	Path     string
	Title    string
	Subtitle string
	Author   string
	Date     string
}

// HomePageData contains the dynamic values rendered on the landing page.
type HomePageData struct {
	Posts    []PostSummary
	NextPage string
	Preview  bool
}

// BlockView is a block-level rich text element. Lists carry their items.
type BlockView struct {
	Tag   string
	Text  string
	Items []string
}

// SectionView is a heading followed by its body blocks.
type SectionView struct {
	Heading string
	Blocks  []BlockView
}

// NavView links to a neighbouring post.
type NavView struct {
	Path  string
	Title string
}

// PostPageData contains the dynamic values for a post page.
type PostPageData struct {
	Title       string
	BannerURL   string
	BannerAlt   string
	Author      string
	Date        string
	ReadingTime int
	Sections    []SectionView
	Previous    *NavView
	Next        *NavView
	Preview     bool
}

// ErrorPageData holds information for rendering an error view.
type ErrorPageData struct {
	StatusLabel string
	Message     string
}
