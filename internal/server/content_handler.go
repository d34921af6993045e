package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lectio-edu/lectio/internal/apperr"
	"github.com/lectio-edu/lectio/internal/content"
)

type createSubjectRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

type addBookRequest struct {
	Title  string `json:"title" validate:"required"`
	Author string `json:"author"`
}

type addChapterRequest struct {
	Title string `json:"title" validate:"required"`
	Order int    `json:"order"`
}

type addTopicRequest struct {
	Title string `json:"title" validate:"required"`
}

type addParagraphRequest struct {
	Text     string          `json:"text" validate:"required"`
	Order    int             `json:"order"`
	Pages    []int           `json:"pages" validate:"dive,gt=0"`
	Metadata metadataRequest `json:"metadata"`
}

type metadataRequest struct {
	Keywords   []string `json:"keywords"`
	Difficulty string   `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Source     string   `json:"source"`
}

func (s *Server) listSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := s.contents.ListSubjects(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, subjects)
}

func (s *Server) getSubject(w http.ResponseWriter, r *http.Request) {
	subject, err := s.contents.FindSubject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if subject == nil {
		respondError(w, r, apperr.NotFound("Subject not found"))
		return
	}
	respondData(w, http.StatusOK, subject)
}

func (s *Server) createSubject(w http.ResponseWriter, r *http.Request) {
	var req createSubjectRequest
	if err := s.decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	subject, err := s.contents.CreateSubject(r.Context(), content.Subject{Title: req.Title, Description: req.Description})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, subject)
}

func (s *Server) addBook(w http.ResponseWriter, r *http.Request) {
	var req addBookRequest
	if err := s.decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	book, err := s.contents.AddBook(r.Context(), chi.URLParam(r, "subjectId"), content.Book{Title: req.Title, Author: req.Author})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, book)
}

func (s *Server) addChapter(w http.ResponseWriter, r *http.Request) {
	var req addChapterRequest
	if err := s.decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	chapter, err := s.contents.AddChapter(r.Context(), chi.URLParam(r, "bookId"), content.Chapter{Title: req.Title, Order: req.Order})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, chapter)
}

func (s *Server) addTopic(w http.ResponseWriter, r *http.Request) {
	var req addTopicRequest
	if err := s.decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	topic, err := s.contents.AddTopic(r.Context(), chi.URLParam(r, "chapterId"), content.Topic{Title: req.Title})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, topic)
}

func (s *Server) addParagraph(w http.ResponseWriter, r *http.Request) {
	var req addParagraphRequest
	if err := s.decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	paragraph, err := s.contents.AddParagraph(r.Context(), chi.URLParam(r, "topicId"), content.Paragraph{
		Order: req.Order,
		Text:  req.Text,
		Pages: req.Pages,
		Metadata: content.Metadata{
			Keywords:   req.Metadata.Keywords,
			Difficulty: content.Difficulty(req.Metadata.Difficulty),
			Source:     req.Metadata.Source,
		},
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, paragraph)
}
