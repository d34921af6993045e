package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lectio-edu/lectio/internal/apperr"
	"github.com/lectio-edu/lectio/internal/database"
)

// Repository defines read and append operations over the content tree.
type Repository interface {
	ListSubjects(ctx context.Context) ([]Subject, error)
	// FindSubject loads the complete tree of a subject, or nil if it does not exist.
	FindSubject(ctx context.Context, id string) (*Subject, error)
	CreateSubject(ctx context.Context, subject Subject) (Subject, error)
	AddBook(ctx context.Context, subjectID string, book Book) (Book, error)
	AddChapter(ctx context.Context, bookID string, chapter Chapter) (Chapter, error)
	AddTopic(ctx context.Context, chapterID string, topic Topic) (Topic, error)
	AddParagraph(ctx context.Context, topicID string, paragraph Paragraph) (Paragraph, error)
}

type subjectRecord struct {
	ID          string `db:"id"`
	Title       string `db:"title"`
	Description string `db:"description"`
	CreatedAt   int64  `db:"created_at"`
}

type bookRecord struct {
	ID        string `db:"id"`
	SubjectID string `db:"subject_id"`
	Position  int    `db:"position"`
	Title     string `db:"title"`
	Author    string `db:"author"`
}

type chapterRecord struct {
	ID        string `db:"id"`
	BookID    string `db:"book_id"`
	Position  int    `db:"position"`
	Title     string `db:"title"`
	SortOrder int    `db:"sort_order"`
}

type topicRecord struct {
	ID        string `db:"id"`
	ChapterID string `db:"chapter_id"`
	Position  int    `db:"position"`
	Title     string `db:"title"`
}

type paragraphRecord struct {
	ID         string `db:"id"`
	TopicID    string `db:"topic_id"`
	Position   int    `db:"position"`
	SortOrder  int    `db:"sort_order"`
	Text       string `db:"text"`
	Pages      string `db:"pages"`
	Keywords   string `db:"keywords"`
	Difficulty string `db:"difficulty"`
	Source     string `db:"source"`
}

// Transactor is implemented by repositories that can group several writes into one transaction.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}

// dbtx is satisfied by both *sqlx.DB and *sqlx.Tx.
type dbtx interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// DBRepository implements Repository on top of sqlx.
// A repository bound to a transaction has a nil db and runs every query on q.
type DBRepository struct {
	db    *sqlx.DB
	q     dbtx
	newID func() string
	now   func() time.Time
}

// NewDBRepository creates a new DBRepository.
func NewDBRepository(db *sqlx.DB) *DBRepository {
	return &DBRepository{db: db, q: db, newID: uuid.NewString, now: time.Now}
}

// InTx runs fn with a repository whose queries share one transaction.
func (r *DBRepository) InTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error {
	return r.inTx(ctx, func(ctx context.Context, tx *DBRepository) error {
		return fn(ctx, tx)
	})
}

func (r *DBRepository) inTx(ctx context.Context, fn func(ctx context.Context, tx *DBRepository) error) error {
	if r.db == nil {
		return fn(ctx, r)
	}
	return database.RunInTx(ctx, r.db, func(ctx context.Context, tx *sqlx.Tx) error {
		return fn(ctx, &DBRepository{q: tx, newID: r.newID, now: r.now})
	})
}

// ListSubjects returns subjects without their books.
func (r *DBRepository) ListSubjects(ctx context.Context) ([]Subject, error) {
	var records []subjectRecord
	if err := r.q.SelectContext(ctx, &records,
		"SELECT id, title, description, created_at FROM subjects ORDER BY created_at, id"); err != nil {
		return nil, fmt.Errorf("db.SelectContext(subjects) > %w", err)
	}
	subjects := make([]Subject, 0, len(records))
	for _, rec := range records {
		subjects = append(subjects, Subject{ID: rec.ID, Title: rec.Title, Description: rec.Description})
	}
	return subjects, nil
}

func (r *DBRepository) FindSubject(ctx context.Context, id string) (*Subject, error) {
	var rec subjectRecord
	err := r.q.GetContext(ctx, &rec,
		r.q.Rebind("SELECT id, title, description, created_at FROM subjects WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("db.GetContext(subject) > %w", err)
	}

	var books []bookRecord
	if err := r.q.SelectContext(ctx, &books,
		r.q.Rebind("SELECT id, subject_id, position, title, author FROM books WHERE subject_id = ? ORDER BY position"),
		id); err != nil {
		return nil, fmt.Errorf("db.SelectContext(books) > %w", err)
	}

	var chapters []chapterRecord
	if err := r.q.SelectContext(ctx, &chapters, r.q.Rebind(
		`SELECT c.id, c.book_id, c.position, c.title, c.sort_order FROM chapters c
		JOIN books b ON b.id = c.book_id
		WHERE b.subject_id = ? ORDER BY c.position`), id); err != nil {
		return nil, fmt.Errorf("db.SelectContext(chapters) > %w", err)
	}

	var topics []topicRecord
	if err := r.q.SelectContext(ctx, &topics, r.q.Rebind(
		`SELECT t.id, t.chapter_id, t.position, t.title FROM topics t
		JOIN chapters c ON c.id = t.chapter_id
		JOIN books b ON b.id = c.book_id
		WHERE b.subject_id = ? ORDER BY t.position`), id); err != nil {
		return nil, fmt.Errorf("db.SelectContext(topics) > %w", err)
	}

	var paragraphs []paragraphRecord
	if err := r.q.SelectContext(ctx, &paragraphs, r.q.Rebind(
		`SELECT p.id, p.topic_id, p.position, p.sort_order, p.text, p.pages, p.keywords, p.difficulty, p.source
		FROM paragraphs p
		JOIN topics t ON t.id = p.topic_id
		JOIN chapters c ON c.id = t.chapter_id
		JOIN books b ON b.id = c.book_id
		WHERE b.subject_id = ? ORDER BY p.position`), id); err != nil {
		return nil, fmt.Errorf("db.SelectContext(paragraphs) > %w", err)
	}

	return assembleSubject(rec, books, chapters, topics, paragraphs)
}

// assembleSubject builds the nested tree from flat records already sorted by position.
func assembleSubject(
	rec subjectRecord,
	books []bookRecord,
	chapters []chapterRecord,
	topics []topicRecord,
	paragraphs []paragraphRecord,
) (*Subject, error) {
	paragraphsByTopic := make(map[string][]Paragraph)
	for _, p := range paragraphs {
		paragraph, err := p.toParagraph()
		if err != nil {
			return nil, err
		}
		paragraphsByTopic[p.TopicID] = append(paragraphsByTopic[p.TopicID], paragraph)
	}
	topicsByChapter := make(map[string][]Topic)
	for _, t := range topics {
		topicsByChapter[t.ChapterID] = append(topicsByChapter[t.ChapterID], Topic{
			ID:         t.ID,
			Title:      t.Title,
			Paragraphs: paragraphsByTopic[t.ID],
		})
	}
	chaptersByBook := make(map[string][]Chapter)
	for _, c := range chapters {
		chaptersByBook[c.BookID] = append(chaptersByBook[c.BookID], Chapter{
			ID:     c.ID,
			Title:  c.Title,
			Order:  c.SortOrder,
			Topics: topicsByChapter[c.ID],
		})
	}

	subject := &Subject{ID: rec.ID, Title: rec.Title, Description: rec.Description}
	for _, b := range books {
		subject.Books = append(subject.Books, Book{
			ID:       b.ID,
			Title:    b.Title,
			Author:   b.Author,
			Chapters: chaptersByBook[b.ID],
		})
	}
	return subject, nil
}

func (p paragraphRecord) toParagraph() (Paragraph, error) {
	paragraph := Paragraph{
		ID:    p.ID,
		Order: p.SortOrder,
		Text:  p.Text,
		Metadata: Metadata{
			Difficulty: Difficulty(p.Difficulty),
			Source:     p.Source,
		},
	}
	if p.Pages != "" {
		if err := json.Unmarshal([]byte(p.Pages), &paragraph.Pages); err != nil {
			return Paragraph{}, fmt.Errorf("json.Unmarshal(paragraph %s pages) > %w", p.ID, err)
		}
	}
	if p.Keywords != "" {
		if err := json.Unmarshal([]byte(p.Keywords), &paragraph.Metadata.Keywords); err != nil {
			return Paragraph{}, fmt.Errorf("json.Unmarshal(paragraph %s keywords) > %w", p.ID, err)
		}
	}
	return paragraph, nil
}

// CreateSubject inserts a new subject. Nested books are not inserted.
func (r *DBRepository) CreateSubject(ctx context.Context, subject Subject) (Subject, error) {
	subject.ID = r.newID()
	if _, err := r.q.ExecContext(ctx,
		r.q.Rebind("INSERT INTO subjects (id, title, description, created_at) VALUES (?, ?, ?, ?)"),
		subject.ID, subject.Title, subject.Description, r.now().UnixNano()); err != nil {
		return Subject{}, fmt.Errorf("db.ExecContext(insert subject) > %w", err)
	}
	subject.Books = nil
	return subject, nil
}

func (r *DBRepository) AddBook(ctx context.Context, subjectID string, book Book) (Book, error) {
	err := r.inTx(ctx, func(ctx context.Context, tx *DBRepository) error {
		position, err := tx.nextPosition(ctx, "subjects", "books", "subject_id", subjectID, "Subject not found")
		if err != nil {
			return err
		}
		book.ID = tx.newID()
		if _, err := tx.q.ExecContext(ctx,
			tx.q.Rebind("INSERT INTO books (id, subject_id, position, title, author) VALUES (?, ?, ?, ?, ?)"),
			book.ID, subjectID, position, book.Title, book.Author); err != nil {
			return fmt.Errorf("db.ExecContext(insert book) > %w", err)
		}
		return nil
	})
	if err != nil {
		return Book{}, err
	}
	book.Chapters = nil
	return book, nil
}

func (r *DBRepository) AddChapter(ctx context.Context, bookID string, chapter Chapter) (Chapter, error) {
	err := r.inTx(ctx, func(ctx context.Context, tx *DBRepository) error {
		position, err := tx.nextPosition(ctx, "books", "chapters", "book_id", bookID, "Book not found")
		if err != nil {
			return err
		}
		chapter.ID = tx.newID()
		if _, err := tx.q.ExecContext(ctx,
			tx.q.Rebind("INSERT INTO chapters (id, book_id, position, title, sort_order) VALUES (?, ?, ?, ?, ?)"),
			chapter.ID, bookID, position, chapter.Title, chapter.Order); err != nil {
			return fmt.Errorf("db.ExecContext(insert chapter) > %w", err)
		}
		return nil
	})
	if err != nil {
		return Chapter{}, err
	}
	chapter.Topics = nil
	return chapter, nil
}

func (r *DBRepository) AddTopic(ctx context.Context, chapterID string, topic Topic) (Topic, error) {
	err := r.inTx(ctx, func(ctx context.Context, tx *DBRepository) error {
		position, err := tx.nextPosition(ctx, "chapters", "topics", "chapter_id", chapterID, "Chapter not found")
		if err != nil {
			return err
		}
		topic.ID = tx.newID()
		if _, err := tx.q.ExecContext(ctx,
			tx.q.Rebind("INSERT INTO topics (id, chapter_id, position, title) VALUES (?, ?, ?, ?)"),
			topic.ID, chapterID, position, topic.Title); err != nil {
			return fmt.Errorf("db.ExecContext(insert topic) > %w", err)
		}
		return nil
	})
	if err != nil {
		return Topic{}, err
	}
	topic.Paragraphs = nil
	return topic, nil
}

func (r *DBRepository) AddParagraph(ctx context.Context, topicID string, paragraph Paragraph) (Paragraph, error) {
	pages, err := json.Marshal(nonNil(paragraph.Pages))
	if err != nil {
		return Paragraph{}, fmt.Errorf("json.Marshal(pages) > %w", err)
	}
	keywords, err := json.Marshal(nonNil(paragraph.Metadata.Keywords))
	if err != nil {
		return Paragraph{}, fmt.Errorf("json.Marshal(keywords) > %w", err)
	}

	err = r.inTx(ctx, func(ctx context.Context, tx *DBRepository) error {
		position, err := tx.nextPosition(ctx, "topics", "paragraphs", "topic_id", topicID, "Topic not found")
		if err != nil {
			return err
		}
		paragraph.ID = tx.newID()
		if _, err := tx.q.ExecContext(ctx, tx.q.Rebind(
			`INSERT INTO paragraphs (id, topic_id, position, sort_order, text, pages, keywords, difficulty, source)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			paragraph.ID, topicID, position, paragraph.Order, paragraph.Text, string(pages), string(keywords),
			string(paragraph.Metadata.Difficulty), paragraph.Metadata.Source); err != nil {
			return fmt.Errorf("db.ExecContext(insert paragraph) > %w", err)
		}
		return nil
	})
	if err != nil {
		return Paragraph{}, err
	}
	return paragraph, nil
}

// nextPosition locks the parent row and returns the next insertion position among its children.
// It must run inside a transaction. Table and column names are constants from this file, never user input.
func (r *DBRepository) nextPosition(ctx context.Context, parentTable, childTable, parentColumn, parentID, notFound string) (int, error) {
	query := fmt.Sprintf("SELECT id FROM %s WHERE id = ?", parentTable)
	if r.q.DriverName() != "sqlite" {
		// SQLite has no FOR UPDATE; its transactions already serialize writers.
		query += " FOR UPDATE"
	}
	var id string
	err := r.q.GetContext(ctx, &id, r.q.Rebind(query), parentID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, apperr.NotFound("%s", notFound)
	}
	if err != nil {
		return 0, fmt.Errorf("db.GetContext(%s lock) > %w", parentTable, err)
	}

	var position int
	if err := r.q.GetContext(ctx, &position, r.q.Rebind(
		fmt.Sprintf("SELECT COALESCE(MAX(position) + 1, 0) FROM %s WHERE %s = ?", childTable, parentColumn)),
		parentID); err != nil {
		return 0, fmt.Errorf("db.GetContext(%s position) > %w", childTable, err)
	}
	return position, nil
}

func nonNil[T any](values []T) []T {
	if values == nil {
		return []T{}
	}
	return values
}
