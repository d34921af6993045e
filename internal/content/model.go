// Package content provides the subject content tree, its aggregation into plain text and persistence.
package content

// Difficulty is the optional difficulty label attached to a paragraph.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Subject is the root of the content tree. Books keep their insertion order.
type Subject struct {
	ID          string `json:"id" yaml:"id,omitempty"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Books       []Book `json:"books" yaml:"books,omitempty"`
}

type Book struct {
	ID       string    `json:"id" yaml:"id,omitempty"`
	Title    string    `json:"title" yaml:"title"`
	Author   string    `json:"author,omitempty" yaml:"author,omitempty"`
	Chapters []Chapter `json:"chapters" yaml:"chapters,omitempty"`
}

// Chapter's Order is author-assigned and may have gaps or duplicates.
type Chapter struct {
	ID     string  `json:"id" yaml:"id,omitempty"`
	Title  string  `json:"title" yaml:"title"`
	Order  int     `json:"order" yaml:"order"`
	Topics []Topic `json:"topics" yaml:"topics,omitempty"`
}

type Topic struct {
	ID         string      `json:"id" yaml:"id,omitempty"`
	Title      string      `json:"title" yaml:"title"`
	Paragraphs []Paragraph `json:"paragraphs" yaml:"paragraphs,omitempty"`
}

// Paragraph's Order is author-assigned and may have gaps or duplicates.
type Paragraph struct {
	ID       string   `json:"id" yaml:"id,omitempty"`
	Order    int      `json:"order" yaml:"order"`
	Text     string   `json:"text" yaml:"text"`
	Pages    []int    `json:"pages" yaml:"pages,omitempty"`
	Metadata Metadata `json:"metadata" yaml:"metadata,omitempty"`
}

type Metadata struct {
	Keywords   []string   `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Difficulty Difficulty `json:"difficulty,omitempty" yaml:"difficulty,omitempty"`
	Source     string     `json:"source,omitempty" yaml:"source,omitempty"`
}

// FindBook returns the book with the given id, or nil.
func (s Subject) FindBook(id string) *Book {
	for i := range s.Books {
		if s.Books[i].ID == id {
			return &s.Books[i]
		}
	}
	return nil
}

// FindChapter returns the chapter with the given id, or nil.
func (b Book) FindChapter(id string) *Chapter {
	for i := range b.Chapters {
		if b.Chapters[i].ID == id {
			return &b.Chapters[i]
		}
	}
	return nil
}

// ChapterTitles indexes chapter titles by id.
func (b Book) ChapterTitles() map[string]string {
	titles := make(map[string]string, len(b.Chapters))
	for _, ch := range b.Chapters {
		titles[ch.ID] = ch.Title
	}
	return titles
}
