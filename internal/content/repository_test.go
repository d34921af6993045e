package content

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectio-edu/lectio/internal/apperr"
)

func newTestRepository(t *testing.T) (*DBRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewDBRepository(sqlx.NewDb(db, "mysql"))
	ids := 0
	repo.newID = func() string {
		ids++
		return fmt.Sprintf("id-%d", ids)
	}
	repo.now = func() time.Time { return time.Unix(0, 42) }
	return repo, mock
}

func TestDBRepository_FindSubject(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		want      *Subject
		wantErr   bool
	}{
		{
			name: "assembles the tree in position order",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, description, created_at FROM subjects WHERE id = ?")).
					WithArgs("s1").
					WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "created_at"}).
						AddRow("s1", "Biology", "Life science", 1))
				mock.ExpectQuery("SELECT id, subject_id, position, title, author FROM books").
					WithArgs("s1").
					WillReturnRows(sqlmock.NewRows([]string{"id", "subject_id", "position", "title", "author"}).
						AddRow("b1", "s1", 0, "Cells", "Alberts"))
				mock.ExpectQuery("SELECT c.id, c.book_id, c.position, c.title, c.sort_order FROM chapters c").
					WithArgs("s1").
					WillReturnRows(sqlmock.NewRows([]string{"id", "book_id", "position", "title", "sort_order"}).
						AddRow("c1", "b1", 0, "Membrane", 0))
				mock.ExpectQuery("SELECT t.id, t.chapter_id, t.position, t.title FROM topics t").
					WithArgs("s1").
					WillReturnRows(sqlmock.NewRows([]string{"id", "chapter_id", "position", "title"}).
						AddRow("t1", "c1", 0, "Structure"))
				mock.ExpectQuery("SELECT p.id, p.topic_id, p.position, p.sort_order, p.text, p.pages, p.keywords, p.difficulty, p.source").
					WithArgs("s1").
					WillReturnRows(sqlmock.NewRows([]string{
						"id", "topic_id", "position", "sort_order", "text", "pages", "keywords", "difficulty", "source",
					}).
						AddRow("p1", "t1", 0, 0, "The membrane is selectively permeable.", "[12]", `["membrane"]`, "easy", "lecture").
						AddRow("p2", "t1", 1, 0, "It has proteins.", "", "", "", ""))
			},
			want: &Subject{
				ID: "s1", Title: "Biology", Description: "Life science",
				Books: []Book{{
					ID: "b1", Title: "Cells", Author: "Alberts",
					Chapters: []Chapter{{
						ID: "c1", Title: "Membrane", Order: 0,
						Topics: []Topic{{
							ID: "t1", Title: "Structure",
							Paragraphs: []Paragraph{
								{
									ID: "p1", Order: 0, Text: "The membrane is selectively permeable.", Pages: []int{12},
									Metadata: Metadata{Keywords: []string{"membrane"}, Difficulty: DifficultyEasy, Source: "lecture"},
								},
								{ID: "p2", Order: 0, Text: "It has proteins."},
							},
						}},
					}},
				}},
			},
		},
		{
			name: "returns nil when the subject does not exist",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT id, title, description, created_at FROM subjects").
					WithArgs("s1").
					WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "created_at"}))
			},
			want: nil,
		},
		{
			name: "db error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT id, title, description, created_at FROM subjects").
					WithArgs("s1").
					WillReturnError(fmt.Errorf("connection refused"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newTestRepository(t)
			tt.setupMock(mock)

			got, err := repo.FindSubject(context.Background(), "s1")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDBRepository_ListSubjects(t *testing.T) {
	repo, mock := newTestRepository(t)
	mock.ExpectQuery("SELECT id, title, description, created_at FROM subjects ORDER BY created_at, id").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "created_at"}).
			AddRow("s1", "Biology", "", 1).
			AddRow("s2", "Physics", "Mechanics", 2))

	got, err := repo.ListSubjects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Subject{
		{ID: "s1", Title: "Biology"},
		{ID: "s2", Title: "Physics", Description: "Mechanics"},
	}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDBRepository_CreateSubject(t *testing.T) {
	repo, mock := newTestRepository(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO subjects (id, title, description, created_at) VALUES (?, ?, ?, ?)")).
		WithArgs("id-1", "Biology", "Life", int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := repo.CreateSubject(context.Background(), Subject{Title: "Biology", Description: "Life"})
	require.NoError(t, err)
	assert.Equal(t, Subject{ID: "id-1", Title: "Biology", Description: "Life"}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDBRepository_AddChapter(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		want      Chapter
		wantErr   bool
		wantKind  apperr.Kind
	}{
		{
			name: "appends at the next position",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM books WHERE id = ? FOR UPDATE")).
					WithArgs("b1").
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("b1"))
				mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(position) + 1, 0) FROM chapters WHERE book_id = ?")).
					WithArgs("b1").
					WillReturnRows(sqlmock.NewRows([]string{"position"}).AddRow(2))
				mock.ExpectExec(regexp.QuoteMeta("INSERT INTO chapters (id, book_id, position, title, sort_order) VALUES (?, ?, ?, ?, ?)")).
					WithArgs("id-1", "b1", 2, "Membrane", 7).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			want: Chapter{ID: "id-1", Title: "Membrane", Order: 7},
		},
		{
			name: "book not found",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM books WHERE id = ? FOR UPDATE")).
					WithArgs("b1").
					WillReturnRows(sqlmock.NewRows([]string{"id"}))
				mock.ExpectRollback()
			},
			wantErr:  true,
			wantKind: apperr.KindNotFound,
		},
		{
			name: "duplicate position is rolled back",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM books WHERE id = ? FOR UPDATE")).
					WithArgs("b1").
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("b1"))
				mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(position) + 1, 0) FROM chapters WHERE book_id = ?")).
					WithArgs("b1").
					WillReturnRows(sqlmock.NewRows([]string{"position"}).AddRow(2))
				mock.ExpectExec("INSERT INTO chapters").
					WillReturnError(fmt.Errorf("Duplicate entry 'b1-2' for key 'uq_chapters_book_position'"))
				mock.ExpectRollback()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newTestRepository(t)
			tt.setupMock(mock)

			got, err := repo.AddChapter(context.Background(), "b1", Chapter{Title: "Membrane", Order: 7})
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, apperr.KindOf(err))
				assert.NoError(t, mock.ExpectationsWereMet())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDBRepository_AddParagraph(t *testing.T) {
	repo, mock := newTestRepository(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM topics WHERE id = ? FOR UPDATE")).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("t1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(position) + 1, 0) FROM paragraphs WHERE topic_id = ?")).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"position"}).AddRow(0))
	mock.ExpectExec("INSERT INTO paragraphs").
		WithArgs("id-1", "t1", 0, 0, "The membrane is selectively permeable.", "[12]", "[]", "", "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := repo.AddParagraph(context.Background(), "t1", Paragraph{
		Text:  "The membrane is selectively permeable.",
		Pages: []int{12},
	})
	require.NoError(t, err)
	assert.Equal(t, "id-1", got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImport_DBRepository(t *testing.T) {
	subject := Subject{
		Title: "Biology",
		Books: []Book{{Title: "Cells", Chapters: []Chapter{{Title: "Membrane"}}}},
	}

	t.Run("writes the tree in one transaction", func(t *testing.T) {
		repo, mock := newTestRepository(t)
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO subjects").
			WithArgs("id-1", "Biology", "", int64(42)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM subjects WHERE id = ? FOR UPDATE")).
			WithArgs("id-1").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("id-1"))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(position) + 1, 0) FROM books WHERE subject_id = ?")).
			WithArgs("id-1").
			WillReturnRows(sqlmock.NewRows([]string{"position"}).AddRow(0))
		mock.ExpectExec("INSERT INTO books").
			WithArgs("id-2", "id-1", 0, "Cells", "").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM books WHERE id = ? FOR UPDATE")).
			WithArgs("id-2").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("id-2"))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(position) + 1, 0) FROM chapters WHERE book_id = ?")).
			WithArgs("id-2").
			WillReturnRows(sqlmock.NewRows([]string{"position"}).AddRow(0))
		mock.ExpectExec("INSERT INTO chapters").
			WithArgs("id-3", "id-2", 0, "Membrane", 0).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		got, err := Import(context.Background(), repo, subject)
		require.NoError(t, err)
		assert.Equal(t, "id-3", got.Books[0].Chapters[0].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("a failure part way rolls back everything", func(t *testing.T) {
		repo, mock := newTestRepository(t)
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO subjects").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM subjects WHERE id = ? FOR UPDATE")).
			WithArgs("id-1").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("id-1"))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(position) + 1, 0) FROM books WHERE subject_id = ?")).
			WithArgs("id-1").
			WillReturnRows(sqlmock.NewRows([]string{"position"}).AddRow(0))
		mock.ExpectExec("INSERT INTO books").
			WillReturnError(fmt.Errorf("connection reset"))
		mock.ExpectRollback()

		_, err := Import(context.Background(), repo, subject)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "repo.AddBook(Cells)")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
