package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func trueFalseQuestion() ExamQuestion {
	return ExamQuestion{
		ID:        1,
		Part:      PartTrueFalse,
		MaxPoints: 1.0,
		Choices: []ExamChoice{
			{ID: 11, Key: "a", IsCorrect: true},
			{ID: 12, Key: "b", IsCorrect: false},
			{ID: 13, Key: "c", IsCorrect: true},
			{ID: 14, Key: "d", IsCorrect: false},
		},
	}
}

func TestTrueFalsePointsCurve(t *testing.T) {
	question := trueFalseQuestion()
	require.InDelta(t, 0.0, question.TrueFalsePoints(0), 1e-9)
	require.InDelta(t, 0.1, question.TrueFalsePoints(1), 1e-9)
	require.InDelta(t, 0.25, question.TrueFalsePoints(2), 1e-9)
	require.InDelta(t, 0.5, question.TrueFalsePoints(3), 1e-9)
	require.InDelta(t, 1.0, question.TrueFalsePoints(4), 1e-9)
}

func TestTrueFalsePointsScaleWithMaxPoints(t *testing.T) {
	question := trueFalseQuestion()
	question.MaxPoints = 2.0
	require.InDelta(t, 0.5, question.TrueFalsePoints(2), 1e-9)
}

func TestGradeMultipleChoice(t *testing.T) {
	question := ExamQuestion{
		ID:   2,
		Part: PartMultipleChoice,
		Choices: []ExamChoice{
			{ID: 21, Key: "A", IsCorrect: false},
			{ID: 22, Key: "B", IsCorrect: true},
		},
	}

	correctChoice := question.Choices[1]
	response := ExamResponse{SelectedChoiceID: &correctChoice.ID, SelectedChoice: &correctChoice}
	correct, total, points := response.Grade(question)
	require.Equal(t, 1, correct)
	require.Equal(t, 1, total)
	require.InDelta(t, 0.25, points, 1e-9)

	wrongChoice := question.Choices[0]
	response = ExamResponse{SelectedChoiceID: &wrongChoice.ID, SelectedChoice: &wrongChoice}
	correct, total, points = response.Grade(question)
	require.Equal(t, 0, correct)
	require.Equal(t, 1, total)
	require.Zero(t, points)
}

func TestGradeTrueFalseCountsOnlyAnsweredStatements(t *testing.T) {
	question := trueFalseQuestion()
	response := ExamResponse{TrueFalseAnswers: map[string]interface{}{
		"11": true,  // correct
		"12": true,  // wrong
		"13": false, // wrong
		// statement 14 left unanswered
	}}

	correct, total, points := response.Grade(question)
	require.Equal(t, 1, correct)
	require.Equal(t, 4, total)
	require.InDelta(t, 0.1, points, 1e-9)
}

func TestGradeTrueFalseAllCorrect(t *testing.T) {
	question := trueFalseQuestion()
	response := ExamResponse{TrueFalseAnswers: map[string]interface{}{
		"11": true, "12": false, "13": true, "14": false,
	}}

	correct, _, points := response.Grade(question)
	require.Equal(t, 4, correct)
	require.InDelta(t, 1.0, points, 1e-9)
}

func TestGradeShortAnswerNormalizes(t *testing.T) {
	question := ExamQuestion{Part: PartShortAnswer, MaxPoints: 0.5, ShortAnswer: "-1,25"}

	response := ExamResponse{ShortAnswerText: "  -1,25  "}
	correct, total, points := response.Grade(question)
	require.Equal(t, 1, correct)
	require.Equal(t, 1, total)
	require.InDelta(t, 0.5, points, 1e-9)

	response = ExamResponse{ShortAnswerText: "-1.25"}
	correct, _, points = response.Grade(question)
	require.Zero(t, correct)
	require.Zero(t, points)
}

func TestGradeShortAnswerEmptyNeverMatches(t *testing.T) {
	question := ExamQuestion{Part: PartShortAnswer, ShortAnswer: ""}
	response := ExamResponse{ShortAnswerText: ""}

	correct, total, points := response.Grade(question)
	require.Zero(t, correct)
	require.Equal(t, 1, total)
	require.Zero(t, points)
}

func TestNormalizeShortAnswer(t *testing.T) {
	require.Equal(t, "abc", NormalizeShortAnswer("  ABC "))
}

func TestPaperPointValues(t *testing.T) {
	math := ExamPaper{Subject: SubjectMath, Part1Questions: 40, Part2Questions: 8, Part3Questions: 6}
	require.InDelta(t, 0.25, math.Part1PointValue(), 1e-9)
	require.InDelta(t, 1.0, math.Part2PointValue(), 1e-9)
	require.InDelta(t, 0.5, math.Part3PointValue(), 1e-9)
	require.InDelta(t, 21.0, math.TotalMaxPoints(), 1e-9)

	physics := ExamPaper{Subject: SubjectPhysics, Part1Questions: 40, Part2Questions: 8, Part3Questions: 6}
	require.InDelta(t, 0.25, physics.Part3PointValue(), 1e-9)
	require.InDelta(t, 19.5, physics.TotalMaxPoints(), 1e-9)
}

func TestCountsAsWrong(t *testing.T) {
	require.True(t, CountsAsWrong(ResultWrongAnswer))
	require.True(t, CountsAsWrong(ResultAccepted))
	require.False(t, CountsAsWrong(ResultCompileError))
	require.False(t, CountsAsWrong(ResultInternalError))
	require.False(t, CountsAsWrong(""))
}
