package content

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadYAML reads one or more subject trees from a YAML file with a top-level "subjects" list.
func LoadYAML(path string) ([]Subject, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile(%s) > %w", path, err)
	}
	return DecodeYAML(bytes.NewReader(data))
}

func DecodeYAML(r io.Reader) ([]Subject, error) {
	var file struct {
		Subjects []Subject `yaml:"subjects"`
	}
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("yaml.Decode() > %w", err)
	}
	for _, subject := range file.Subjects {
		if err := validateTree(subject); err != nil {
			return nil, err
		}
	}
	return file.Subjects, nil
}

func validateTree(subject Subject) error {
	if strings.TrimSpace(subject.Title) == "" {
		return fmt.Errorf("subject title is required")
	}
	for _, book := range subject.Books {
		if strings.TrimSpace(book.Title) == "" {
			return fmt.Errorf("subject %q: book title is required", subject.Title)
		}
		for _, chapter := range book.Chapters {
			if strings.TrimSpace(chapter.Title) == "" {
				return fmt.Errorf("book %q: chapter title is required", book.Title)
			}
			for _, topic := range chapter.Topics {
				if strings.TrimSpace(topic.Title) == "" {
					return fmt.Errorf("chapter %q: topic title is required", chapter.Title)
				}
				for _, paragraph := range topic.Paragraphs {
					if strings.TrimSpace(paragraph.Text) == "" {
						return fmt.Errorf("topic %q: paragraph text is required", topic.Title)
					}
					if paragraph.Order < 0 {
						return fmt.Errorf("topic %q: paragraph order must not be negative", topic.Title)
					}
				}
			}
		}
	}
	return nil
}

// Import writes a whole subject tree through repo, level by level, and returns it with the assigned ids.
// When repo is a Transactor the tree is written in one transaction, so a failure leaves nothing behind.
func Import(ctx context.Context, repo Repository, subject Subject) (Subject, error) {
	tx, ok := repo.(Transactor)
	if !ok {
		return importTree(ctx, repo, subject)
	}
	var created Subject
	err := tx.InTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		created, err = importTree(ctx, repo, subject)
		return err
	})
	if err != nil {
		return Subject{}, err
	}
	return created, nil
}

func importTree(ctx context.Context, repo Repository, subject Subject) (Subject, error) {
	created, err := repo.CreateSubject(ctx, subject)
	if err != nil {
		return Subject{}, fmt.Errorf("repo.CreateSubject(%s) > %w", subject.Title, err)
	}
	for _, book := range subject.Books {
		createdBook, err := repo.AddBook(ctx, created.ID, book)
		if err != nil {
			return Subject{}, fmt.Errorf("repo.AddBook(%s) > %w", book.Title, err)
		}
		for _, chapter := range book.Chapters {
			createdChapter, err := repo.AddChapter(ctx, createdBook.ID, chapter)
			if err != nil {
				return Subject{}, fmt.Errorf("repo.AddChapter(%s) > %w", chapter.Title, err)
			}
			for _, topic := range chapter.Topics {
				createdTopic, err := repo.AddTopic(ctx, createdChapter.ID, topic)
				if err != nil {
					return Subject{}, fmt.Errorf("repo.AddTopic(%s) > %w", topic.Title, err)
				}
				for _, paragraph := range topic.Paragraphs {
					createdParagraph, err := repo.AddParagraph(ctx, createdTopic.ID, paragraph)
					if err != nil {
						return Subject{}, fmt.Errorf("repo.AddParagraph(%s) > %w", topic.Title, err)
					}
					createdTopic.Paragraphs = append(createdTopic.Paragraphs, createdParagraph)
				}
				createdChapter.Topics = append(createdChapter.Topics, createdTopic)
			}
			createdBook.Chapters = append(createdBook.Chapters, createdChapter)
		}
		created.Books = append(created.Books, createdBook)
	}
	return created, nil
}
