package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/clhstestify/online-judge/internal/dto"
	"github.com/clhstestify/online-judge/internal/examkey"
	"github.com/clhstestify/online-judge/internal/models"
	"github.com/clhstestify/online-judge/internal/repository"
)

// Answer key import failures.
var (
	ErrPaperNotFound      = errors.New("exam paper not found")
	ErrKeySourceMissing   = errors.New("no answer key source supplied")
	ErrKeySourceConflict  = errors.New("manual answers and a document cannot be combined")
	ErrEmptyAnswerKey     = errors.New("answer key contains no answers")
	multipleChoiceLetters = []string{"A", "B", "C", "D"}
	trueFalseLabels       = []string{"a", "b", "c", "d"}
)

// PaperService manages exam papers and their answer keys.
type PaperService interface {
	// ImportAnswerKey parses the request's answer key and atomically replaces
	// the paper's questions with the parsed key.
	ImportAnswerKey(ctx context.Context, paperID uint, req dto.AnswerKeyImportRequest) (dto.AnswerKeyExportResponse, error)
	// ExportAnswerKey reconstructs the stored key in the import shape.
	ExportAnswerKey(ctx context.Context, paperID uint) (dto.AnswerKeyExportResponse, error)
}

type paperService struct {
	papers repository.PaperRepository
	logger zerolog.Logger
}

// NewPaperService constructs the paper service.
func NewPaperService(papers repository.PaperRepository, logger zerolog.Logger) PaperService {
	return &paperService{
		papers: papers,
		logger: logger.With().Str("component", "paper_service").Logger(),
	}
}

func (s *paperService) ImportAnswerKey(ctx context.Context, paperID uint, req dto.AnswerKeyImportRequest) (dto.AnswerKeyExportResponse, error) {
	paper, err := s.papers.GetByID(ctx, paperID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AnswerKeyExportResponse{}, ErrPaperNotFound
		}
		return dto.AnswerKeyExportResponse{}, err
	}

	hasManual := req.HasManual()
	hasDocument := strings.TrimSpace(req.Document) != ""
	if hasManual && hasDocument {
		return dto.AnswerKeyExportResponse{}, ErrKeySourceConflict
	}
	if !hasManual && !hasDocument {
		return dto.AnswerKeyExportResponse{}, ErrKeySourceMissing
	}

	var key examkey.Document
	if hasManual {
		key, err = s.parseManual(paper, req)
	} else {
		key, err = examkey.ParseDocument(req.Document, paper.TrueFalseItems())
	}
	if err != nil {
		return dto.AnswerKeyExportResponse{}, err
	}
	if len(key.Part1)+len(key.Part2)+len(key.Part3) == 0 {
		return dto.AnswerKeyExportResponse{}, ErrEmptyAnswerKey
	}

	questions := buildQuestions(paper, key)
	paper.Part1Questions = len(key.Part1)
	paper.Part2Questions = len(key.Part2)
	paper.Part3Questions = len(key.Part3)

	if err := s.papers.ReplaceQuestions(ctx, &paper, questions); err != nil {
		return dto.AnswerKeyExportResponse{}, err
	}

	s.logger.Info().
		Uint("paper_id", paper.ID).
		Str("code", paper.Code).
		Int("part1", len(key.Part1)).
		Int("part2", len(key.Part2)).
		Int("part3", len(key.Part3)).
		Msg("answer key imported")

	return dto.AnswerKeyExportResponse{Part1: key.Part1, Part2: key.Part2, Part3: key.Part3}, nil
}

// parseManual parses the per-part manual text, enforcing the paper's
// configured question count on each supplied part.
func (s *paperService) parseManual(paper models.ExamPaper, req dto.AnswerKeyImportRequest) (examkey.Document, error) {
	var key examkey.Document
	var err error
	if strings.TrimSpace(req.ManualPart1) != "" {
		key.Part1, err = examkey.ParsePart1(splitLines(req.ManualPart1), paper.Part1Questions)
		if err != nil {
			return examkey.Document{}, err
		}
	}
	if strings.TrimSpace(req.ManualPart2) != "" {
		key.Part2, err = examkey.ParsePart2(splitLines(req.ManualPart2), paper.TrueFalseItems(), paper.Part2Questions)
		if err != nil {
			return examkey.Document{}, err
		}
	}
	if strings.TrimSpace(req.ManualPart3) != "" {
		key.Part3, err = examkey.ParsePart3(splitLines(req.ManualPart3), paper.Part3Questions)
		if err != nil {
			return examkey.Document{}, err
		}
	}

	return key, nil
}

func (s *paperService) ExportAnswerKey(ctx context.Context, paperID uint) (dto.AnswerKeyExportResponse, error) {
	paper, err := s.papers.GetByID(ctx, paperID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AnswerKeyExportResponse{}, ErrPaperNotFound
		}
		return dto.AnswerKeyExportResponse{}, err
	}

	export := dto.AnswerKeyExportResponse{}
	for _, question := range paper.Questions {
		switch question.Part {
		case models.PartMultipleChoice:
			letter := ""
			for _, choice := range question.Choices {
				if choice.IsCorrect {
					letter = choice.Key
					break
				}
			}
			export.Part1 = append(export.Part1, letter)
		case models.PartTrueFalse:
			row := make([]bool, 0, len(question.Choices))
			for _, choice := range question.Choices {
				row = append(row, choice.IsCorrect)
			}
			export.Part2 = append(export.Part2, row)
		case models.PartShortAnswer:
			export.Part3 = append(export.Part3, question.ShortAnswer)
		}
	}

	return export, nil
}

// buildQuestions materializes the parsed key into question rows with choices.
func buildQuestions(paper models.ExamPaper, key examkey.Document) []models.ExamQuestion {
	questions := make([]models.ExamQuestion, 0, len(key.Part1)+len(key.Part2)+len(key.Part3))

	for i, answer := range key.Part1 {
		question := models.ExamQuestion{
			Part:      models.PartMultipleChoice,
			Number:    i + 1,
			Prompt:    fmt.Sprintf("Câu %d", i+1),
			MaxPoints: paper.Part1PointValue(),
		}
		for _, letter := range multipleChoiceLetters {
			question.Choices = append(question.Choices, models.ExamChoice{
				Key:       letter,
				IsCorrect: letter == answer,
			})
		}
		questions = append(questions, question)
	}

	for i, row := range key.Part2 {
		question := models.ExamQuestion{
			Part:      models.PartTrueFalse,
			Number:    i + 1,
			Prompt:    fmt.Sprintf("Câu %d", i+1),
			MaxPoints: paper.Part2PointValue(),
		}
		for j, value := range row {
			label := trueFalseLabels[j%len(trueFalseLabels)]
			question.Choices = append(question.Choices, models.ExamChoice{
				Key:       label,
				IsCorrect: value,
			})
		}
		questions = append(questions, question)
	}

	for i, answer := range key.Part3 {
		questions = append(questions, models.ExamQuestion{
			Part:        models.PartShortAnswer,
			Number:      i + 1,
			Prompt:      fmt.Sprintf("Câu %d", i+1),
			MaxPoints:   paper.Part3PointValue(),
			ShortAnswer: answer,
		})
	}

	return questions
}

func splitLines(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}
